package handlers

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/services/notify"
)

type VerificationHandler struct {
	DB        *gorm.DB
	Notifier  *notify.Notifier
	UploadDir string
}

func NewVerificationHandler(db *gorm.DB, notifier *notify.Notifier, uploadDir string) *VerificationHandler {
	return &VerificationHandler{DB: db, Notifier: notifier, UploadDir: uploadDir}
}

const maxDocumentSize = 5 * 1024 * 1024

var allowedDocumentExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// UploadDocument stores a verification document for the calling freelancer.
// Documents start pending and are reviewed independently of the profile's
// overall status.
func (h *VerificationHandler) UploadDocument(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	docType := strings.TrimSpace(c.FormValue("document_type"))
	if docType == "" {
		return fail(c, fiber.StatusBadRequest, "document_type is required")
	}

	file, err := c.FormFile("document")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "document is required (multipart field: document)")
	}
	if file.Size > maxDocumentSize {
		return fail(c, fiber.StatusBadRequest, "file too large (max 5MB)")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedDocumentExt[ext] {
		return fail(c, fiber.StatusBadRequest, "invalid file format (jpg/png/pdf only)")
	}

	var profile models.FreelancerProfile
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "freelancer profile not found")
	}

	dir := filepath.Join(h.UploadDir, "verification", userID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to create upload directory")
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to save file")
	}

	doc := models.VerificationDocument{
		ProfileID:    profile.ID,
		DocumentType: docType,
		DocumentURL:  fmt.Sprintf("/uploads/verification/%s/%s", userID.String(), filename),
		Status:       models.VerificationPending,
	}
	if err := h.DB.Create(&doc).Error; err != nil {
		log.Println("error creating verification document:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to record document")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": doc})
}

// MyVerification returns the calling freelancer's profile with documents.
func (h *VerificationHandler) MyVerification(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var profile models.FreelancerProfile
	if err := h.DB.Preload("Documents").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "freelancer profile not found")
	}

	return ok(c, profile)
}

// ===== admin review =====

// AdminList returns freelancers filtered by verification status.
func (h *VerificationHandler) AdminList(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	offset := (page - 1) * limit

	q := h.DB.Model(&models.User{}).
		Preload("FreelancerProfile").
		Preload("FreelancerProfile.Documents").
		Where("role = ?", models.RoleFreelancer)

	if status := c.Query("status"); status != "" {
		q = q.Joins("JOIN freelancer_profiles ON freelancer_profiles.user_id = users.id").
			Where("freelancer_profiles.verification_status = ?", strings.ToLower(status))
	}

	var total int64
	q.Session(&gorm.Session{}).Count(&total)

	var users []models.User
	if err := q.Order("users.created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		log.Println("error listing freelancers:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch freelancers")
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

func (h *VerificationHandler) AdminGet(c *fiber.Ctx) error {
	userID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid freelancer id")
	}

	var u models.User
	if err := h.DB.
		Preload("FreelancerProfile").
		Preload("FreelancerProfile.Documents").
		First(&u, "id = ? AND role = ?", userID, models.RoleFreelancer).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "freelancer not found")
	}

	return ok(c, u)
}

type VerificationDecisionReq struct {
	Action string `json:"action"` // approve | reject
	Level  string `json:"level"`  // Basic | Verified | Premium, optional on approve
	Notes  string `json:"notes"`
}

func decisionToStatus(action string) (models.VerificationStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "approve":
		return models.VerificationApproved, true
	case "reject":
		return models.VerificationRejected, true
	}
	return "", false
}

func validLevel(level string) bool {
	switch models.VerificationLevel(level) {
	case models.LevelBasic, models.LevelVerified, models.LevelPremium:
		return true
	}
	return false
}

// AdminDecide approves or rejects a freelancer, optionally assigning a
// verification level. The echoed profile is what the admin UI patches its
// local state from.
func (h *VerificationHandler) AdminDecide(c *fiber.Ctx) error {
	userID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid freelancer id")
	}

	var req VerificationDecisionReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	status, okAction := decisionToStatus(req.Action)
	if !okAction {
		return fail(c, fiber.StatusBadRequest, "action must be approve or reject")
	}
	if req.Level != "" && !validLevel(req.Level) {
		return fail(c, fiber.StatusBadRequest, "unknown verification level")
	}

	var profile models.FreelancerProfile
	if err := h.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "freelancer profile not found")
	}

	profile.VerificationStatus = status
	if status == models.VerificationApproved && req.Level != "" {
		profile.VerificationLevel = models.VerificationLevel(req.Level)
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&profile).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("is_verified", status == models.VerificationApproved).Error
	})
	if err != nil {
		log.Println("error saving verification decision:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to update verification status")
	}

	title := "Verification approved"
	message := "Your freelancer verification was approved"
	if status == models.VerificationRejected {
		title = "Verification rejected"
		message = "Your freelancer verification was rejected"
		if req.Notes != "" {
			message += ": " + req.Notes
		}
	}
	h.Notifier.Push(userID, "verification", title, message,
		map[string]interface{}{"status": string(status), "level": string(profile.VerificationLevel)})

	return ok(c, profile)
}

// AdminReset is the admin override pushing a decided freelancer back to
// pending, not a normal transition.
func (h *VerificationHandler) AdminReset(c *fiber.Ctx) error {
	userID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid freelancer id")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FreelancerProfile{}).
			Where("user_id = ?", userID).
			Update("verification_status", models.VerificationPending)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("is_verified", false).Error
	})
	if err == gorm.ErrRecordNotFound {
		return fail(c, fiber.StatusNotFound, "freelancer profile not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to reset verification status")
	}

	return c.JSON(fiber.Map{"success": true, "message": "verification status reset to pending"})
}

type DocumentReviewReq struct {
	Action string `json:"action"` // approve | reject
	Notes  string `json:"notes"`
}

// AdminReviewDocument decides a single document, independent of the
// freelancer's overall status.
func (h *VerificationHandler) AdminReviewDocument(c *fiber.Ctx) error {
	docID, err := paramUUID(c, "docID")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid document id")
	}

	var req DocumentReviewReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	status, okAction := decisionToStatus(req.Action)
	if !okAction {
		return fail(c, fiber.StatusBadRequest, "action must be approve or reject")
	}

	var doc models.VerificationDocument
	if err := h.DB.First(&doc, "id = ?", docID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "document not found")
	}

	doc.Status = status
	doc.Notes = req.Notes
	if err := h.DB.Save(&doc).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update document")
	}

	return ok(c, doc)
}

type BulkVerificationReq struct {
	IDs    []string `json:"ids"` // freelancer user ids
	Action string   `json:"action"`
}

// parseBulkVerification validates a bulk request: an empty selection or an
// unknown action is rejected before any write happens.
func parseBulkVerification(req BulkVerificationReq) ([]uuid.UUID, models.VerificationStatus, error) {
	if len(req.IDs) == 0 {
		return nil, "", fmt.Errorf("no freelancers selected")
	}
	status, okAction := decisionToStatus(req.Action)
	if !okAction {
		return nil, "", fmt.Errorf("action must be approve or reject")
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, "", fmt.Errorf("invalid freelancer id: %s", raw)
		}
		ids = append(ids, id)
	}
	return ids, status, nil
}

// AdminBulk applies one decision to a selection of freelancers in a single
// transaction: either every row is rewritten or none are.
func (h *VerificationHandler) AdminBulk(c *fiber.Ctx) error {
	var req BulkVerificationReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	ids, status, err := parseBulkVerification(req)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.FreelancerProfile{}).
			Where("user_id IN ?", ids).
			Update("verification_status", status).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id IN ?", ids).
			Update("is_verified", status == models.VerificationApproved).Error
	})
	if err != nil {
		log.Println("error applying bulk verification:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to apply bulk action")
	}

	title := "Verification approved"
	message := "Your freelancer verification was approved"
	if status == models.VerificationRejected {
		title = "Verification rejected"
		message = "Your freelancer verification was rejected"
	}
	for _, id := range ids {
		h.Notifier.Push(id, "verification", title, message,
			map[string]interface{}{"status": string(status)})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"updated": len(ids),
			"status":  status,
		},
	})
}
