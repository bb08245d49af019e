package handlers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/utils"
)

const authCookie = "ss_token"

type AuthHandler struct {
	DB        *gorm.DB
	RDB       *redis.Client
	JWTSecret string
	Expires   int
}

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	Role     string `json:"role"` // client / freelancer, admin is never self-registered
}

func (h *AuthHandler) setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	password := strings.TrimSpace(req.Password)
	role := strings.ToLower(strings.TrimSpace(req.Role))

	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "name is required")
	}
	if email == "" {
		errs.Add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "invalid email format")
	}
	if password == "" {
		errs.Add("password", "password is required")
	} else if len(password) < 6 {
		errs.Add("password", "password must be at least 6 characters")
	}
	if phone != "" && len(phone) < 8 {
		errs.Add("phone", "invalid phone number")
	}
	if role != string(models.RoleClient) && role != string(models.RoleFreelancer) {
		errs.Add("role", "role must be client or freelancer")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		errs := FieldErrors{}
		errs.Add("email", "email already registered")
		return validationFail(c, errs)
	} else if err != gorm.ErrRecordNotFound {
		return fail(c, fiber.StatusInternalServerError, "server error")
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to process password")
	}

	u := models.User{
		Name:          name,
		Email:         email,
		Password:      pw,
		Phone:         phone,
		Country:       strings.TrimSpace(req.Country),
		Role:          models.Role(role),
		AccountStatus: models.AccountActive,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		switch u.Role {
		case models.RoleFreelancer:
			return tx.Create(&models.FreelancerProfile{UserID: u.ID}).Error
		default:
			return tx.Create(&models.ClientProfile{UserID: u.ID}).Error
		}
	})
	if err != nil {
		log.Println("register failed:", err)
		return fail(c, fiber.StatusBadRequest, "failed to register")
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create token")
	}
	h.setAuthCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "registered",
		"data": fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":    u.ID,
				"name":  u.Name,
				"email": u.Email,
				"phone": u.Phone,
				"role":  u.Role,
			},
		},
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	errs := FieldErrors{}
	if email == "" {
		errs.Add("email", "email is required")
	}
	if password == "" {
		errs.Add("password", "password is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return fail(c, fiber.StatusUnauthorized, "invalid email or password")
	}
	if !u.Active() {
		return fail(c, fiber.StatusForbidden, "account is suspended")
	}
	if !utils.CheckPassword(u.Password, password) {
		return fail(c, fiber.StatusUnauthorized, "invalid email or password")
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create token")
	}
	h.setAuthCookie(c, token)

	return ok(c, fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":          u.ID,
			"name":        u.Name,
			"email":       u.Email,
			"role":        u.Role,
			"is_verified": u.IsVerified,
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var u models.User
	if err := h.DB.
		Preload("FreelancerProfile").
		Preload("ClientProfile").
		First(&u, "id = ?", userID).Error; err != nil {
		return fail(c, fiber.StatusUnauthorized, "user not found")
	}

	return ok(c, u)
}

const resetTokenTTL = 15 * time.Minute

type ForgotPasswordReq struct {
	Email string `json:"email"`
}

// ForgotPassword issues a one-time reset token with a short TTL. Mail
// delivery is out of scope, so the token is logged for the operator; the
// response never reveals whether the address exists.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return fail(c, fiber.StatusBadRequest, "email is required")
	}

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err == nil {
		token := utils.RandomToken(32)
		if err := h.RDB.Set(context.Background(), "pwreset:"+token, u.ID.String(), resetTokenTTL).Err(); err != nil {
			log.Println("failed to store reset token:", err)
			return fail(c, fiber.StatusInternalServerError, "server error")
		}
		log.Printf("password reset token for %s: %s", email, token)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "if the account exists, a reset token has been issued",
	})
}

type ResetPasswordReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	token := strings.TrimSpace(req.Token)
	password := strings.TrimSpace(req.Password)
	if token == "" || len(password) < 6 {
		return fail(c, fiber.StatusBadRequest, "token and a password of at least 6 characters are required")
	}

	ctx := context.Background()
	key := "pwreset:" + token
	userIDStr, err := h.RDB.Get(ctx, key).Result()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid or expired token")
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to process password")
	}

	res := h.DB.Model(&models.User{}).Where("id = ?", userIDStr).Update("password", pw)
	if res.Error != nil || res.RowsAffected == 0 {
		return fail(c, fiber.StatusInternalServerError, "failed to reset password")
	}

	// token is single use
	h.RDB.Del(ctx, key)

	return c.JSON(fiber.Map{"success": true, "message": "password updated"})
}
