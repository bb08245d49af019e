package earnings

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillswap/skillswap-backend/internal/models"
)

type EarningsService struct {
	DB *gorm.DB
}

func NewEarningsService(db *gorm.DB) *EarningsService {
	return &EarningsService{DB: db}
}

// CreditFreelancer records a payout ledger entry and bumps the profile's
// completed-project counter. Call inside the completing transaction.
func (s *EarningsService) CreditFreelancer(tx *gorm.DB, userID uuid.UUID, amount int64, projectID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to credit must be greater than zero")
	}

	ledger := models.Earning{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.EarningCredit,
		Description: description,
		ProjectID:   &projectID,
	}
	if err := tx.Create(&ledger).Error; err != nil {
		return err
	}

	return tx.Model(&models.FreelancerProfile{}).
		Where("user_id = ?", userID).
		Update("completed_projects", gorm.Expr("completed_projects + 1")).Error
}

// Total sums credited earnings for a freelancer.
func (s *EarningsService) Total(userID uuid.UUID) (int64, error) {
	var total int64
	err := s.DB.Model(&models.Earning{}).
		Where("user_id = ? AND type = ?", userID, models.EarningCredit).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// History returns the most recent ledger entries.
func (s *EarningsService) History(userID uuid.UUID, limit int) ([]models.Earning, error) {
	if limit <= 0 {
		limit = 50
	}
	var history []models.Earning
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&history).Error
	return history, err
}
