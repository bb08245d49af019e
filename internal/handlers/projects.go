package handlers

import (
	"log"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/realtime"
	"github.com/skillswap/skillswap-backend/internal/services/earnings"
	"github.com/skillswap/skillswap-backend/internal/services/notify"
)

type ProjectsHandler struct {
	DB       *gorm.DB
	Bridge   *realtime.Bridge
	Notifier *notify.Notifier
	Earnings *earnings.EarningsService
}

func NewProjectsHandler(db *gorm.DB, bridge *realtime.Bridge, notifier *notify.Notifier, earn *earnings.EarningsService) *ProjectsHandler {
	return &ProjectsHandler{DB: db, Bridge: bridge, Notifier: notifier, Earnings: earn}
}

type ProjectReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Skills      []string `json:"skills"`
	Budget      int64    `json:"budget"`
	Deadline    string   `json:"deadline"` // 2006-01-02
}

func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req ProjectReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	errs := FieldErrors{}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", "title is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		errs.Add("category", "category is required")
	}
	if req.Budget <= 0 {
		errs.Add("budget", "budget must be positive")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	deadline, err := time.Parse("2006-01-02", req.Deadline)
	if err != nil {
		deadline = time.Now().AddDate(0, 1, 0)
	}

	p := models.Project{
		ClientID:    userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Skills:      mustJSON(req.Skills),
		Budget:      req.Budget,
		Deadline:    deadline,
		Status:      models.ProjectOpen,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return tx.Model(&models.ClientProfile{}).
			Where("user_id = ?", userID).
			Update("projects_posted", gorm.Expr("projects_posted + 1")).Error
	})
	if err != nil {
		log.Println("error creating project:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to create project")
	}

	h.Bridge.Publish(realtime.DashboardRoom(userID), "dashboard_data_update", fiber.Map{"action": "refresh"})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": p})
}

// ListMine returns the client's own projects with their bid counts.
func (h *ProjectsHandler) ListMine(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var projects []models.Project
	if err := h.DB.
		Preload("AssignedFreelancer").
		Where("client_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch projects")
	}

	data := make([]fiber.Map, 0, len(projects))
	for _, p := range projects {
		var bidCount int64
		h.DB.Model(&models.Bid{}).
			Where("project_id = ? AND status != ?", p.ID, models.BidWithdrawn).
			Count(&bidCount)
		data = append(data, fiber.Map{
			"project":   p,
			"bid_count": bidCount,
		})
	}

	return ok(c, data)
}

// Browse lists open projects for freelancers with search/filter/sort.
func (h *ProjectsHandler) Browse(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	offset := (page - 1) * limit

	q := h.DB.Model(&models.Project{}).
		Preload("Client").
		Where("status = ?", models.ProjectOpen)

	if search := c.Query("q"); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if min := c.QueryInt("min", 0); min > 0 {
		q = q.Where("budget >= ?", min)
	}
	if max := c.QueryInt("max", 0); max > 0 {
		q = q.Where("budget <= ?", max)
	}

	var total int64
	q.Session(&gorm.Session{}).Count(&total)

	switch c.Query("sort") {
	case "budget_low":
		q = q.Order("budget ASC")
	case "budget_high":
		q = q.Order("budget DESC")
	default:
		q = q.Order("created_at DESC")
	}

	var projects []models.Project
	if err := q.Limit(limit).Offset(offset).Find(&projects).Error; err != nil {
		log.Println("error browsing projects:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch projects")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    projects,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *ProjectsHandler) GetDetail(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	var p models.Project
	if err := h.DB.
		Preload("Client").
		Preload("AssignedFreelancer").
		First(&p, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}

	return ok(c, p)
}

func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "not your project")
	}
	if p.Status != models.ProjectOpen {
		return fail(c, fiber.StatusConflict, "only open projects can be edited")
	}

	var req ProjectReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	if v := strings.TrimSpace(req.Title); v != "" {
		p.Title = v
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if v := strings.TrimSpace(req.Category); v != "" {
		p.Category = v
	}
	if req.Skills != nil {
		p.Skills = mustJSON(req.Skills)
	}
	if req.Budget > 0 {
		p.Budget = req.Budget
	}
	if req.Deadline != "" {
		if deadline, err := time.Parse("2006-01-02", req.Deadline); err == nil {
			p.Deadline = deadline
		}
	}

	if err := h.DB.Save(&p).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update project")
	}

	h.Bridge.Publish(realtime.ProjectRoom(p.ID), "project_update", p)

	return ok(c, p)
}

// Cancel moves an open project to cancelled. Bids still pending are rejected.
func (h *ProjectsHandler) Cancel(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "not your project")
	}
	if p.Status != models.ProjectOpen {
		return fail(c, fiber.StatusConflict, "only open projects can be cancelled")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", p.ID, models.ProjectOpen).
			Update("status", models.ProjectCancelled).Error; err != nil {
			return err
		}
		return tx.Model(&models.Bid{}).
			Where("project_id = ? AND status = ?", p.ID, models.BidPending).
			Update("status", models.BidRejected).Error
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to cancel project")
	}

	p.Status = models.ProjectCancelled
	h.Bridge.Publish(realtime.ProjectRoom(p.ID), "project_update", p)
	h.Bridge.Publish(realtime.DashboardRoom(userID), "dashboard_data_update", fiber.Map{"action": "refresh"})

	return ok(c, p)
}

type ProgressReq struct {
	Progress int    `json:"progress"`
	Note     string `json:"note"`
}

// UpdateProgress lets the assigned freelancer report progress on an
// in-progress project. Hitting 100 emits a work_submission event for the
// client's open views.
func (h *ProjectsHandler) UpdateProgress(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	var req ProgressReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if req.Progress < 0 || req.Progress > 100 {
		return fail(c, fiber.StatusBadRequest, "progress must be between 0 and 100")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.AssignedFreelancerID == nil || *p.AssignedFreelancerID != userID {
		return fail(c, fiber.StatusForbidden, "not assigned to this project")
	}
	if p.Status != models.ProjectInProgress {
		return fail(c, fiber.StatusConflict, "project is not in progress")
	}

	p.Progress = req.Progress
	if err := h.DB.Save(&p).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update progress")
	}

	h.Bridge.Publish(realtime.ProjectRoom(p.ID), "project_update", p)
	if req.Progress == 100 {
		h.Bridge.Publish(realtime.ProjectRoom(p.ID), "work_submission", fiber.Map{
			"project_id": p.ID,
			"note":       req.Note,
		})
		h.Notifier.Push(p.ClientID, "work_submission", "Work submitted",
			"The freelancer has submitted work for \""+p.Title+"\"",
			map[string]interface{}{"project_id": p.ID.String()})
	}

	return ok(c, p)
}

// Complete is the client's acceptance of delivered work: the project closes
// and the accepted bid amount is credited to the freelancer's ledger.
func (h *ProjectsHandler) Complete(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "not your project")
	}
	if p.Status != models.ProjectInProgress || p.AssignedFreelancerID == nil {
		return fail(c, fiber.StatusConflict, "project is not in progress")
	}

	var accepted models.Bid
	if err := h.DB.
		Where("project_id = ? AND status = ?", p.ID, models.BidAccepted).
		First(&accepted).Error; err != nil {
		return fail(c, fiber.StatusConflict, "no accepted bid on this project")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", p.ID, models.ProjectInProgress).
			Updates(map[string]interface{}{"status": models.ProjectCompleted, "progress": 100})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return h.Earnings.CreditFreelancer(tx, *p.AssignedFreelancerID, accepted.Amount, p.ID,
			"payout for project \""+p.Title+"\"")
	})
	if err != nil {
		log.Println("error completing project:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to complete project")
	}

	p.Status = models.ProjectCompleted
	p.Progress = 100

	h.Bridge.Publish(realtime.ProjectRoom(p.ID), "project_update", p)
	h.Bridge.Publish(realtime.DashboardRoom(*p.AssignedFreelancerID), "dashboard_data_update", fiber.Map{"action": "refresh"})
	h.Bridge.Publish(realtime.DashboardRoom(userID), "dashboard_data_update", fiber.Map{"action": "refresh"})
	h.Notifier.Push(*p.AssignedFreelancerID, "project_completed", "Project completed",
		"\""+p.Title+"\" was marked completed and your earnings were credited",
		map[string]interface{}{"project_id": p.ID.String()})

	return ok(c, p)
}

// ===== reviews =====

type ReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ProjectsHandler) CreateReview(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	var req ReviewReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fail(c, fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "not your project")
	}
	if p.Status != models.ProjectCompleted || p.AssignedFreelancerID == nil {
		return fail(c, fiber.StatusConflict, "project is not completed")
	}

	review := models.Review{
		ProjectID:    p.ID,
		ClientID:     userID,
		FreelancerID: *p.AssignedFreelancerID,
		Rating:       req.Rating,
		Comment:      req.Comment,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		if isUniqueViolation(err) {
			return fail(c, fiber.StatusConflict, "project already reviewed")
		}
		return fail(c, fiber.StatusInternalServerError, "failed to create review")
	}

	// recompute the freelancer's average
	var avg float64
	h.DB.Model(&models.Review{}).
		Where("freelancer_id = ?", *p.AssignedFreelancerID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg)
	h.DB.Model(&models.FreelancerProfile{}).
		Where("user_id = ?", *p.AssignedFreelancerID).
		Update("average_rating", avg)

	h.Notifier.Push(*p.AssignedFreelancerID, "new_review", "New review",
		"You received a review on \""+p.Title+"\"",
		map[string]interface{}{"project_id": p.ID.String(), "rating": req.Rating})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": review})
}

// ===== admin moderation =====

func (h *ProjectsHandler) AdminList(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	offset := (page - 1) * limit

	q := h.DB.Model(&models.Project{}).Preload("Client")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if search := c.Query("q"); search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	q.Session(&gorm.Session{}).Count(&total)

	var projects []models.Project
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&projects).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch projects")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    projects,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *ProjectsHandler) AdminCancel(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.Status == models.ProjectCompleted || p.Status == models.ProjectCancelled {
		return fail(c, fiber.StatusConflict, "project is already closed")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Project{}).
			Where("id = ?", p.ID).
			Update("status", models.ProjectCancelled).Error; err != nil {
			return err
		}
		return tx.Model(&models.Bid{}).
			Where("project_id = ? AND status = ?", p.ID, models.BidPending).
			Update("status", models.BidRejected).Error
	})
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to cancel project")
	}

	p.Status = models.ProjectCancelled
	h.Bridge.Publish(realtime.ProjectRoom(p.ID), "project_update", p)
	h.Notifier.Push(p.ClientID, "project_moderated", "Project cancelled",
		"\""+p.Title+"\" was cancelled by a moderator",
		map[string]interface{}{"project_id": p.ID.String()})

	return ok(c, p)
}

func (h *ProjectsHandler) AdminDelete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Bid{}, "project_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err == gorm.ErrRecordNotFound {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to delete project")
	}

	return c.JSON(fiber.Map{"success": true, "message": "project deleted"})
}
