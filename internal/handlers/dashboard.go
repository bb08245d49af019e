package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
	"github.com/skillswap/skillswap-backend/internal/services/earnings"
)

type DashboardHandler struct {
	DB       *gorm.DB
	Earnings *earnings.EarningsService
}

func NewDashboardHandler(db *gorm.DB, e *earnings.EarningsService) *DashboardHandler {
	return &DashboardHandler{DB: db, Earnings: e}
}

// AdminStats powers the admin overview cards.
func (h *DashboardHandler) AdminStats(c *fiber.Ctx) error {
	var totalUsers, totalClients, totalFreelancers, suspendedUsers int64
	h.DB.Model(&models.User{}).Count(&totalUsers)
	h.DB.Model(&models.User{}).Where("role = ?", models.RoleClient).Count(&totalClients)
	h.DB.Model(&models.User{}).Where("role = ?", models.RoleFreelancer).Count(&totalFreelancers)
	h.DB.Model(&models.User{}).Where("account_status = ?", models.AccountSuspended).Count(&suspendedUsers)

	var totalProjects, openProjects, activeProjects, completedProjects int64
	h.DB.Model(&models.Project{}).Count(&totalProjects)
	h.DB.Model(&models.Project{}).Where("status = ?", models.ProjectOpen).Count(&openProjects)
	h.DB.Model(&models.Project{}).Where("status = ?", models.ProjectInProgress).Count(&activeProjects)
	h.DB.Model(&models.Project{}).Where("status = ?", models.ProjectCompleted).Count(&completedProjects)

	var totalBids, pendingVerifications int64
	h.DB.Model(&models.Bid{}).Count(&totalBids)
	h.DB.Model(&models.FreelancerProfile{}).
		Where("verification_status = ?", models.VerificationPending).
		Count(&pendingVerifications)

	var totalVolume int64
	h.DB.Model(&models.Project{}).
		Where("status = ?", models.ProjectCompleted).
		Select("COALESCE(SUM(budget), 0)").
		Scan(&totalVolume)

	return ok(c, fiber.Map{
		"users": fiber.Map{
			"total":       totalUsers,
			"clients":     totalClients,
			"freelancers": totalFreelancers,
			"suspended":   suspendedUsers,
		},
		"projects": fiber.Map{
			"total":       totalProjects,
			"open":        openProjects,
			"in_progress": activeProjects,
			"completed":   completedProjects,
		},
		"total_bids":            totalBids,
		"pending_verifications": pendingVerifications,
		"completed_volume":      totalVolume,
	})
}

type monthlyPoint struct {
	Month    string `json:"month"`
	Projects int64  `json:"projects"`
	Users    int64  `json:"users"`
	Volume   int64  `json:"volume"`
}

type categoryPoint struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// AdminAnalytics returns a 12-month activity series plus a project category
// breakdown for the charts page.
func (h *DashboardHandler) AdminAnalytics(c *fiber.Ctx) error {
	now := time.Now()
	series := make([]monthlyPoint, 0, 12)

	// walk backwards one calendar month at a time; AddDate on the month
	// start avoids end-of-month drift
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 11; i >= 0; i-- {
		from := start.AddDate(0, -i, 0)
		to := from.AddDate(0, 1, 0)

		var point monthlyPoint
		point.Month = from.Format("2006-01")

		h.DB.Model(&models.Project{}).
			Where("created_at >= ? AND created_at < ?", from, to).
			Count(&point.Projects)
		h.DB.Model(&models.User{}).
			Where("created_at >= ? AND created_at < ?", from, to).
			Count(&point.Users)
		h.DB.Model(&models.Project{}).
			Where("status = ? AND updated_at >= ? AND updated_at < ?", models.ProjectCompleted, from, to).
			Select("COALESCE(SUM(budget), 0)").
			Scan(&point.Volume)

		series = append(series, point)
	}

	var categories []categoryPoint
	if err := h.DB.Model(&models.Project{}).
		Select("category, COUNT(*) AS count").
		Where("category != ''").
		Group("category").
		Order("count DESC").
		Limit(10).
		Scan(&categories).Error; err != nil {
		log.Println("error fetching category breakdown:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch analytics")
	}

	return ok(c, fiber.Map{
		"monthly":    series,
		"categories": categories,
	})
}

// FreelancerAnalytics summarizes bid performance and earnings for the
// caller's own dashboard.
func (h *DashboardHandler) FreelancerAnalytics(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var totalBids, acceptedBids, pendingBids int64
	h.DB.Model(&models.Bid{}).Where("freelancer_id = ?", userID).Count(&totalBids)
	h.DB.Model(&models.Bid{}).
		Where("freelancer_id = ? AND status = ?", userID, models.BidAccepted).
		Count(&acceptedBids)
	h.DB.Model(&models.Bid{}).
		Where("freelancer_id = ? AND status = ?", userID, models.BidPending).
		Count(&pendingBids)

	winRate := 0.0
	if totalBids > 0 {
		winRate = float64(acceptedBids) / float64(totalBids) * 100
	}

	var activeProjects, completedProjects int64
	h.DB.Model(&models.Project{}).
		Where("assigned_freelancer_id = ? AND status = ?", userID, models.ProjectInProgress).
		Count(&activeProjects)
	h.DB.Model(&models.Project{}).
		Where("assigned_freelancer_id = ? AND status = ?", userID, models.ProjectCompleted).
		Count(&completedProjects)

	totalEarnings, err := h.Earnings.Total(userID)
	if err != nil {
		log.Println("error summing earnings:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch analytics")
	}
	history, err := h.Earnings.History(userID, 20)
	if err != nil {
		log.Println("error fetching earnings history:", err)
		return fail(c, fiber.StatusInternalServerError, "failed to fetch analytics")
	}

	var profile models.FreelancerProfile
	averageRating := 0.0
	if err := h.DB.First(&profile, "user_id = ?", userID).Error; err == nil {
		averageRating = profile.AverageRating
	}

	return ok(c, fiber.Map{
		"bids": fiber.Map{
			"total":    totalBids,
			"accepted": acceptedBids,
			"pending":  pendingBids,
			"win_rate": winRate,
		},
		"projects": fiber.Map{
			"active":    activeProjects,
			"completed": completedProjects,
		},
		"total_earnings":   totalEarnings,
		"earnings_history": history,
		"average_rating":   averageRating,
	})
}

// ClientStats summarizes the caller's posted projects and spend.
func (h *DashboardHandler) ClientStats(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var total, open, inProgress, completed int64
	h.DB.Model(&models.Project{}).Where("client_id = ?", userID).Count(&total)
	h.DB.Model(&models.Project{}).
		Where("client_id = ? AND status = ?", userID, models.ProjectOpen).Count(&open)
	h.DB.Model(&models.Project{}).
		Where("client_id = ? AND status = ?", userID, models.ProjectInProgress).Count(&inProgress)
	h.DB.Model(&models.Project{}).
		Where("client_id = ? AND status = ?", userID, models.ProjectCompleted).Count(&completed)

	var totalSpent int64
	h.DB.Model(&models.Project{}).
		Where("client_id = ? AND status = ?", userID, models.ProjectCompleted).
		Select("COALESCE(SUM(budget), 0)").
		Scan(&totalSpent)

	var pendingBids int64
	h.DB.Model(&models.Bid{}).
		Joins("JOIN projects ON bids.project_id = projects.id").
		Where("projects.client_id = ? AND bids.status = ?", userID, models.BidPending).
		Count(&pendingBids)

	return ok(c, fiber.Map{
		"projects": fiber.Map{
			"total":       total,
			"open":        open,
			"in_progress": inProgress,
			"completed":   completed,
		},
		"total_spent":  totalSpent,
		"pending_bids": pendingBids,
	})
}
