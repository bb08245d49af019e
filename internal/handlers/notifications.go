package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
)

type NotificationsHandler struct {
	DB *gorm.DB
}

func NewNotificationsHandler(db *gorm.DB) *NotificationsHandler {
	return &NotificationsHandler{DB: db}
}

// List returns the caller's notifications, newest first. Capped at 50 so the
// bell dropdown never pulls the whole history.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	q := h.DB.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		q = q.Where("is_read = false")
	}

	var notifications []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		log.Println("error fetching notifications:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch notifications")
	}

	return ok(c, notifications)
}

func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var count int64
	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&count).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to count notifications")
	}

	return ok(c, count)
}

// MarkRead flips one notification; only the owner's rows match.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	notifID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid notification id")
	}

	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notifID, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if res.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update notification")
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "notification not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	res := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if res.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update notifications")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"updated": res.RowsAffected,
	})
}
