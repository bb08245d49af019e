package handlers

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillswap/skillswap-backend/internal/models"
)

func bidWith(amount int64, delivery int, rating float64, completed int, created time.Time) models.Bid {
	return models.Bid{
		ID:           uuid.New(),
		Amount:       amount,
		DeliveryTime: delivery,
		CreatedAt:    created,
		Freelancer: &models.User{
			FreelancerProfile: &models.FreelancerProfile{
				AverageRating:     rating,
				CompletedProjects: completed,
			},
		},
	}
}

func TestSortBidsByAmount(t *testing.T) {
	base := time.Now()
	bids := []models.Bid{
		bidWith(300, 5, 4.0, 2, base),
		bidWith(100, 7, 3.5, 1, base.Add(time.Minute)),
		bidWith(200, 3, 5.0, 9, base.Add(2*time.Minute)),
	}

	sortBids(bids, "amount", false)

	if bids[0].Amount != 100 || bids[1].Amount != 200 || bids[2].Amount != 300 {
		t.Fatalf("expected ascending amounts, got %d %d %d", bids[0].Amount, bids[1].Amount, bids[2].Amount)
	}

	sortBids(bids, "amount", true)
	if bids[0].Amount != 300 {
		t.Fatalf("expected descending amounts, got %d first", bids[0].Amount)
	}
}

func TestSortBidsByRatingHandlesMissingProfile(t *testing.T) {
	base := time.Now()
	noProfile := models.Bid{ID: uuid.New(), Amount: 50, CreatedAt: base}
	bids := []models.Bid{
		bidWith(100, 5, 4.5, 3, base),
		noProfile,
		bidWith(200, 5, 2.0, 1, base),
	}

	sortBids(bids, "rating", true)

	if bids[0].Amount != 100 {
		t.Fatalf("expected highest rated bid first, got amount %d", bids[0].Amount)
	}
	if bids[2].Amount != 50 {
		t.Fatalf("expected profile-less bid treated as zero rating, got amount %d last", bids[2].Amount)
	}
}

func TestSortBidsByExperienceAndDelivery(t *testing.T) {
	base := time.Now()
	bids := []models.Bid{
		bidWith(1, 10, 0, 2, base),
		bidWith(2, 2, 0, 8, base),
		bidWith(3, 6, 0, 5, base),
	}

	sortBids(bids, "experience", true)
	if bids[0].Amount != 2 {
		t.Fatalf("expected most experienced first, got amount %d", bids[0].Amount)
	}

	sortBids(bids, "delivery", false)
	if bids[0].DeliveryTime != 2 || bids[2].DeliveryTime != 10 {
		t.Fatalf("expected fastest delivery first, got %d..%d", bids[0].DeliveryTime, bids[2].DeliveryTime)
	}
}

func TestSortBidsDateKeepsCreationOrder(t *testing.T) {
	base := time.Now()
	oldest := bidWith(1, 1, 0, 0, base)
	newest := bidWith(2, 1, 0, 0, base.Add(time.Hour))
	bids := []models.Bid{newest, oldest}

	// the default listing order is creation order, oldest first
	sortBids(bids, "date", false)
	if bids[0].Amount != 1 || bids[1].Amount != 2 {
		t.Fatalf("expected oldest bid first, got amounts %d, %d", bids[0].Amount, bids[1].Amount)
	}

	sortBids(bids, "date", true)
	if bids[0].Amount != 2 {
		t.Fatalf("expected newest bid first when descending, got amount %d", bids[0].Amount)
	}
}

func TestSortBidsStableOnTies(t *testing.T) {
	base := time.Now()
	first := bidWith(100, 5, 4.0, 3, base)
	second := bidWith(100, 5, 4.0, 3, base)
	bids := []models.Bid{first, second}

	sortBids(bids, "amount", false)

	if bids[0].ID != first.ID || bids[1].ID != second.ID {
		t.Fatal("equal bids should keep their original order")
	}
}

func TestApplyCounterResponseAcceptRewritesTerms(t *testing.T) {
	bid := models.Bid{
		Amount:              100,
		DeliveryTime:        10,
		CounterAmount:       80,
		CounterDeliveryTime: 7,
		CounterStatus:       models.CounterPending,
	}

	applyCounterResponse(&bid, "accept")

	if bid.Amount != 80 || bid.DeliveryTime != 7 {
		t.Fatalf("accepted counter should rewrite terms, got %d/%d", bid.Amount, bid.DeliveryTime)
	}
	if bid.CounterStatus != models.CounterAccepted {
		t.Fatalf("expected counter status accepted, got %s", bid.CounterStatus)
	}
}

func TestApplyCounterResponseRejectKeepsTerms(t *testing.T) {
	bid := models.Bid{
		Amount:              100,
		DeliveryTime:        10,
		CounterAmount:       80,
		CounterDeliveryTime: 7,
		CounterStatus:       models.CounterPending,
	}

	applyCounterResponse(&bid, "reject")

	if bid.Amount != 100 || bid.DeliveryTime != 10 {
		t.Fatalf("rejected counter must not touch terms, got %d/%d", bid.Amount, bid.DeliveryTime)
	}
	if bid.CounterStatus != models.CounterRejected {
		t.Fatalf("expected counter status rejected, got %s", bid.CounterStatus)
	}
}

func TestValidateCounterOffer(t *testing.T) {
	errs := validateCounterOffer(CounterOfferReq{})
	for _, field := range []string{"amount", "delivery_time", "message"} {
		if len(errs[field]) == 0 {
			t.Errorf("expected error for %s", field)
		}
	}

	errs = validateCounterOffer(CounterOfferReq{Amount: 500, DeliveryTime: 7, Message: "can you do it for this"})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}

	errs = validateCounterOffer(CounterOfferReq{Amount: -10, DeliveryTime: 7, Message: "x"})
	if len(errs["amount"]) == 0 {
		t.Fatal("negative amount should be rejected")
	}
}
