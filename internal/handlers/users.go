package handlers

import (
	"log"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/utils"
)

type UsersHandler struct {
	DB *gorm.DB
}

func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{DB: db}
}

// Exists probes whether a recipient id refers to a real user. The frontend
// calls it before starting a new conversation, so a malformed id must fail
// fast without touching the conversations table.
func (h *UsersHandler) Exists(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid recipient id format")
	}

	var u models.User
	if err := h.DB.Select("id", "name", "role").First(&u, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ok(c, fiber.Map{"exists": false})
		}
		return fail(c, fiber.StatusInternalServerError, "failed to look up user")
	}

	return ok(c, fiber.Map{
		"exists": true,
		"user": fiber.Map{
			"id":   u.ID,
			"name": u.Name,
			"role": u.Role,
		},
	})
}

// ===== admin user management =====

func (h *UsersHandler) AdminList(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	offset := (page - 1) * limit

	q := h.DB.Model(&models.User{})

	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", strings.ToLower(role))
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("account_status = ?", strings.ToLower(status))
	}
	if search := c.Query("q"); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	q.Count(&total)

	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		log.Println("error listing users:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch users")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

type AdminCreateUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	Role     string `json:"role"`
}

func (h *UsersHandler) AdminCreate(c *fiber.Ctx) error {
	var req AdminCreateUserReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))

	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		errs.Add("email", "valid email is required")
	}
	if len(strings.TrimSpace(req.Password)) < 6 {
		errs.Add("password", "password must be at least 6 characters")
	}
	if role != models.RoleClient && role != models.RoleFreelancer && role != models.RoleAdmin {
		errs.Add("role", "unknown role")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	pw, err := utils.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to process password")
	}

	u := models.User{
		Name:          name,
		Email:         email,
		Password:      pw,
		Phone:         strings.TrimSpace(req.Phone),
		Country:       strings.TrimSpace(req.Country),
		Role:          role,
		AccountStatus: models.AccountActive,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		switch role {
		case models.RoleFreelancer:
			return tx.Create(&models.FreelancerProfile{UserID: u.ID}).Error
		case models.RoleClient:
			return tx.Create(&models.ClientProfile{UserID: u.ID}).Error
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fail(c, fiber.StatusConflict, "email already registered")
		}
		log.Println("admin create user failed:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to create user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": u})
}

type AdminUpdateUserReq struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Country       string `json:"country"`
	AccountStatus string `json:"account_status"`
	IsVerified    *bool  `json:"is_verified"`
}

func (h *UsersHandler) AdminUpdate(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req AdminUpdateUserReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "user not found")
	}

	if v := strings.TrimSpace(req.Name); v != "" {
		u.Name = v
	}
	if v := strings.ToLower(strings.TrimSpace(req.Email)); v != "" {
		u.Email = v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		u.Phone = v
	}
	if v := strings.TrimSpace(req.Country); v != "" {
		u.Country = v
	}
	if v := strings.ToLower(strings.TrimSpace(req.AccountStatus)); v != "" {
		if v != string(models.AccountActive) && v != string(models.AccountSuspended) {
			return fail(c, fiber.StatusBadRequest, "unknown account status")
		}
		u.AccountStatus = models.AccountStatus(v)
	}
	if req.IsVerified != nil {
		u.IsVerified = *req.IsVerified
	}

	if err := h.DB.Save(&u).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, fiber.StatusConflict, "email already registered")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to update user")
	}

	return ok(c, u)
}

func (h *UsersHandler) AdminDelete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}

	adminID, err := getAuth(c)
	if err != nil {
		return err
	}
	if adminID == id {
		return fail(c, fiber.StatusBadRequest, "cannot delete your own account")
	}

	res := h.DB.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to delete user")
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "user not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "user deleted"})
}

// ===== profile (self service) =====

type UpdateProfileReq struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Country string `json:"country"`

	// client profile
	Company *string `json:"company"`
	Website *string `json:"website"`
	Bio     *string `json:"bio"`

	// freelancer profile
	Skills         []string                 `json:"skills"`
	HourlyRate     *int64                   `json:"hourly_rate"`
	WorkExperience []map[string]interface{} `json:"work_experience"`
}

func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", userID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "user not found")
	}

	if v := strings.TrimSpace(req.Name); v != "" {
		u.Name = v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		u.Phone = v
	}
	if v := strings.TrimSpace(req.Country); v != "" {
		u.Country = v
	}
	if err := h.DB.Save(&u).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update user")
	}

	switch u.Role {
	case models.RoleClient:
		var p models.ClientProfile
		if err := h.DB.Where("user_id = ?", userID).First(&p).Error; err != nil {
			p = models.ClientProfile{UserID: userID}
		}
		if req.Company != nil {
			p.Company = *req.Company
		}
		if req.Website != nil {
			p.Website = *req.Website
		}
		if req.Bio != nil {
			p.Bio = *req.Bio
		}
		if err := h.DB.Save(&p).Error; err != nil {
			return fail(c, fiber.StatusInternalServerError, "failed to update profile")
		}
	case models.RoleFreelancer:
		var p models.FreelancerProfile
		if err := h.DB.Where("user_id = ?", userID).First(&p).Error; err != nil {
			p = models.FreelancerProfile{UserID: userID}
		}
		if req.Bio != nil {
			p.Bio = *req.Bio
		}
		if req.HourlyRate != nil {
			p.HourlyRate = *req.HourlyRate
		}
		if req.Skills != nil {
			p.Skills = mustJSON(req.Skills)
		}
		if req.WorkExperience != nil {
			p.WorkExperience = mustJSON(req.WorkExperience)
		}
		if err := h.DB.Save(&p).Error; err != nil {
			return fail(c, fiber.StatusInternalServerError, "failed to update profile")
		}
	}

	return h.publicProfile(c, userID)
}

func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}
	return h.publicProfile(c, id)
}

func (h *UsersHandler) publicProfile(c *fiber.Ctx, id uuid.UUID) error {
	var u models.User
	if err := h.DB.
		Preload("FreelancerProfile").
		Preload("ClientProfile").
		First(&u, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "user not found")
	}
	return ok(c, u)
}
