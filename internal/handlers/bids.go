package handlers

import (
	"errors"
	"log"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/realtime"
	"github.com/skillswap/skillswap-backend/internal/services/notify"
)

var errProjectNotOpen = errors.New("project is not open")

type BidsHandler struct {
	DB       *gorm.DB
	Bridge   *realtime.Bridge
	Notifier *notify.Notifier
}

func NewBidsHandler(db *gorm.DB, bridge *realtime.Bridge, notifier *notify.Notifier) *BidsHandler {
	return &BidsHandler{DB: db, Bridge: bridge, Notifier: notifier}
}

type BidReq struct {
	Amount       int64  `json:"amount"`
	DeliveryTime int    `json:"delivery_time"` // days
	Proposal     string `json:"proposal"`
}

func (h *BidsHandler) Create(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	var req BidReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	errs := FieldErrors{}
	if req.Amount <= 0 {
		errs.Add("amount", "amount must be positive")
	}
	if req.DeliveryTime <= 0 {
		errs.Add("delivery_time", "delivery time must be positive")
	}
	if strings.TrimSpace(req.Proposal) == "" {
		errs.Add("proposal", "proposal is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", projectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.Status != models.ProjectOpen {
		return fail(c, fiber.StatusConflict, "project is not open for bidding")
	}
	if p.ClientID == userID {
		return fail(c, fiber.StatusForbidden, "cannot bid on your own project")
	}

	// one active bid per freelancer per project
	var existing models.Bid
	err = h.DB.
		Where("project_id = ? AND freelancer_id = ? AND status IN ?",
			projectID, userID, []models.BidStatus{models.BidPending, models.BidAccepted}).
		First(&existing).Error
	if err == nil {
		return fail(c, fiber.StatusConflict, "you already have an active bid on this project")
	}
	if err != gorm.ErrRecordNotFound {
		return fail(c, fiber.StatusInternalServerError, "failed to check existing bids")
	}

	bid := models.Bid{
		ProjectID:     projectID,
		FreelancerID:  userID,
		Amount:        req.Amount,
		DeliveryTime:  req.DeliveryTime,
		Proposal:      strings.TrimSpace(req.Proposal),
		Status:        models.BidPending,
		CounterStatus: models.CounterNone,
	}
	if err := h.DB.Create(&bid).Error; err != nil {
		log.Println("error creating bid:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to submit bid")
	}

	h.Bridge.Publish(realtime.ProjectRoom(projectID), "new_bid", bid)
	h.Bridge.Publish(realtime.DashboardRoom(p.ClientID), "dashboard_data_update", fiber.Map{"action": "refresh"})
	h.Notifier.Push(p.ClientID, "new_bid", "New bid received",
		"A freelancer placed a bid on \""+p.Title+"\"",
		map[string]interface{}{"project_id": projectID.String(), "bid_id": bid.ID.String()})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": bid})
}

// sortBids orders bids deterministically: the requested key, then the
// original server order as a stable tie-break.
func sortBids(bids []models.Bid, key string, desc bool) {
	rating := func(b models.Bid) float64 {
		if b.Freelancer != nil && b.Freelancer.FreelancerProfile != nil {
			return b.Freelancer.FreelancerProfile.AverageRating
		}
		return 0
	}
	experience := func(b models.Bid) int {
		if b.Freelancer != nil && b.Freelancer.FreelancerProfile != nil {
			return b.Freelancer.FreelancerProfile.CompletedProjects
		}
		return 0
	}

	less := func(i, j int) bool {
		a, b := bids[i], bids[j]
		switch key {
		case "amount":
			if a.Amount != b.Amount {
				return a.Amount < b.Amount
			}
		case "rating":
			if rating(a) != rating(b) {
				return rating(a) < rating(b)
			}
		case "experience":
			if experience(a) != experience(b) {
				return experience(a) < experience(b)
			}
		case "delivery":
			if a.DeliveryTime != b.DeliveryTime {
				return a.DeliveryTime < b.DeliveryTime
			}
		default: // date
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return false
	}

	if desc {
		sort.SliceStable(bids, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(bids, less)
}

// ListForProject returns a project's bids to the owning client.
func (h *BidsHandler) ListForProject(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", projectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "not your project")
	}

	var bids []models.Bid
	if err := h.DB.
		Preload("Freelancer").
		Preload("Freelancer.FreelancerProfile").
		Where("project_id = ? AND status != ?", projectID, models.BidWithdrawn).
		Order("created_at ASC").
		Find(&bids).Error; err != nil {
		log.Println("error fetching bids:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch bids")
	}

	sortBids(bids, c.Query("sort", "date"), c.Query("dir") == "desc")

	return ok(c, bids)
}

// MyBids returns the freelancer's bids across projects.
func (h *BidsHandler) MyBids(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	q := h.DB.Preload("Project").Preload("Project.Client").
		Where("freelancer_id = ?", userID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var bids []models.Bid
	if err := q.Order("created_at DESC").Find(&bids).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to fetch bids")
	}

	return ok(c, bids)
}

// Accept closes bidding: the project must still be open, exactly one bid
// ends up accepted, every other pending bid is rejected, and the project
// moves to in_progress with the freelancer assigned. All inside one
// transaction so a racing second accept gets a 409.
func (h *BidsHandler) Accept(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}
	bidID, err := paramUUID(c, "bidID")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid bid id")
	}

	var bid models.Bid
	if err := h.DB.First(&bid, "id = ? AND project_id = ?", bidID, projectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "bid not found")
	}
	if bid.Status != models.BidPending {
		return fail(c, fiber.StatusConflict, "bid is not pending")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", projectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "not your project")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		// the status guard in the WHERE clause is the single-accept arbiter
		res := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", projectID, models.ProjectOpen).
			Updates(map[string]interface{}{
				"status":                 models.ProjectInProgress,
				"assigned_freelancer_id": bid.FreelancerID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errProjectNotOpen
		}

		if err := tx.Model(&models.Bid{}).
			Where("id = ?", bid.ID).
			Update("status", models.BidAccepted).Error; err != nil {
			return err
		}
		return tx.Model(&models.Bid{}).
			Where("project_id = ? AND id != ? AND status = ?", projectID, bid.ID, models.BidPending).
			Update("status", models.BidRejected).Error
	})
	if err == errProjectNotOpen {
		return fail(c, fiber.StatusConflict, "a bid has already been accepted on this project")
	}
	if err != nil {
		log.Println("error accepting bid:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to accept bid")
	}

	bid.Status = models.BidAccepted

	h.Bridge.Publish(realtime.ProjectRoom(projectID), "bid_update", fiber.Map{
		"project_id": projectID,
		"bid_id":     bid.ID,
		"status":     bid.Status,
	})
	h.Bridge.Publish(realtime.DashboardRoom(bid.FreelancerID), "dashboard_data_update", fiber.Map{"action": "refresh"})
	h.Notifier.Push(bid.FreelancerID, "bid_accepted", "Bid accepted",
		"Your bid on \""+p.Title+"\" was accepted",
		map[string]interface{}{"project_id": projectID.String(), "bid_id": bid.ID.String()})

	return ok(c, bid)
}

func (h *BidsHandler) Reject(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}
	bidID, err := paramUUID(c, "bidID")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid bid id")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", projectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "not your project")
	}

	res := h.DB.Model(&models.Bid{}).
		Where("id = ? AND project_id = ? AND status = ?", bidID, projectID, models.BidPending).
		Update("status", models.BidRejected)
	if res.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to reject bid")
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusConflict, "bid is not pending")
	}

	h.Bridge.Publish(realtime.ProjectRoom(projectID), "bid_update", fiber.Map{
		"project_id": projectID,
		"bid_id":     bidID,
		"status":     models.BidRejected,
	})

	return c.JSON(fiber.Map{"success": true, "message": "bid rejected"})
}

// Withdraw lets the freelancer pull a still-pending bid.
func (h *BidsHandler) Withdraw(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	bidID, err := paramUUID(c, "bidID")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid bid id")
	}

	res := h.DB.Model(&models.Bid{}).
		Where("id = ? AND freelancer_id = ? AND status = ?", bidID, userID, models.BidPending).
		Update("status", models.BidWithdrawn)
	if res.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to withdraw bid")
	}
	if res.RowsAffected == 0 {
		return fail(c, fiber.StatusConflict, "bid is not pending")
	}

	return c.JSON(fiber.Map{"success": true, "message": "bid withdrawn"})
}

// ===== counter-offers =====

type CounterOfferReq struct {
	Amount       int64  `json:"amount"`
	DeliveryTime int    `json:"delivery_time"`
	Message      string `json:"message"`
}

// validateCounterOffer rejects a counter-offer missing any of its three
// fields before anything touches the database.
func validateCounterOffer(req CounterOfferReq) FieldErrors {
	errs := FieldErrors{}
	if req.Amount <= 0 {
		errs.Add("amount", "amount is required and must be positive")
	}
	if req.DeliveryTime <= 0 {
		errs.Add("delivery_time", "delivery time is required and must be positive")
	}
	if strings.TrimSpace(req.Message) == "" {
		errs.Add("message", "message is required")
	}
	return errs
}

// CounterOffer lets the client amend a pending bid's terms; the freelancer
// must accept before they take effect.
func (h *BidsHandler) CounterOffer(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}
	bidID, err := paramUUID(c, "bidID")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid bid id")
	}

	var req CounterOfferReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if errs := validateCounterOffer(req); len(errs) > 0 {
		return validationFail(c, errs)
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", projectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}
	if p.ClientID != userID {
		return fail(c, fiber.StatusForbidden, "not your project")
	}

	var bid models.Bid
	if err := h.DB.First(&bid, "id = ? AND project_id = ?", bidID, projectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "bid not found")
	}
	if bid.Status != models.BidPending {
		return fail(c, fiber.StatusConflict, "bid is not pending")
	}

	bid.CounterAmount = req.Amount
	bid.CounterDeliveryTime = req.DeliveryTime
	bid.CounterMessage = strings.TrimSpace(req.Message)
	bid.CounterStatus = models.CounterPending

	if err := h.DB.Save(&bid).Error; err != nil {
		log.Println("error saving counter-offer:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to send counter-offer")
	}

	h.Bridge.Publish(realtime.ProjectRoom(projectID), "new_bid", bid)
	h.Notifier.Push(bid.FreelancerID, "counter_offer", "Counter-offer received",
		"The client sent a counter-offer on your bid for \""+p.Title+"\"",
		map[string]interface{}{"project_id": projectID.String(), "bid_id": bid.ID.String()})

	return ok(c, bid)
}

type CounterRespondReq struct {
	Action string `json:"action"` // accept | reject
}

// applyCounterResponse folds the freelancer's answer into the bid: accepting
// rewrites the bid to the countered terms, rejecting leaves them untouched.
func applyCounterResponse(bid *models.Bid, action string) {
	if action == "accept" {
		bid.Amount = bid.CounterAmount
		bid.DeliveryTime = bid.CounterDeliveryTime
		bid.CounterStatus = models.CounterAccepted
		return
	}
	bid.CounterStatus = models.CounterRejected
}

// RespondCounterOffer is the freelancer's answer; accepting rewrites the bid
// to the countered terms.
func (h *BidsHandler) RespondCounterOffer(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	projectID, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid project id")
	}
	bidID, err := paramUUID(c, "bidID")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid bid id")
	}

	var req CounterRespondReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action != "accept" && action != "reject" {
		return fail(c, fiber.StatusBadRequest, "action must be accept or reject")
	}

	var p models.Project
	if err := h.DB.First(&p, "id = ?", projectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "project not found")
	}

	var bid models.Bid
	if err := h.DB.First(&bid, "id = ? AND project_id = ?", bidID, projectID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "bid not found")
	}
	if bid.FreelancerID != userID {
		return fail(c, fiber.StatusForbidden, "not your bid")
	}
	if bid.CounterStatus != models.CounterPending {
		return fail(c, fiber.StatusConflict, "no pending counter-offer on this bid")
	}

	applyCounterResponse(&bid, action)

	if err := h.DB.Save(&bid).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "failed to update counter-offer")
	}

	h.Bridge.Publish(realtime.ProjectRoom(projectID), "bid_update", bid)
	h.Notifier.Push(p.ClientID, "counter_offer_"+action+"ed", "Counter-offer "+action+"ed",
		"The freelancer "+action+"ed your counter-offer on \""+p.Title+"\"",
		map[string]interface{}{"project_id": projectID.String(), "bid_id": bid.ID.String()})

	return ok(c, bid)
}
