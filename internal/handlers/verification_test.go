package handlers

import (
	"testing"

	"github.com/google/uuid"

	"github.com/skillswap/skillswap-backend/internal/models"
)

func TestParseBulkVerificationRejectsEmptySelection(t *testing.T) {
	_, _, err := parseBulkVerification(BulkVerificationReq{Action: "approve"})
	if err == nil {
		t.Fatal("empty selection should be rejected")
	}
}

func TestParseBulkVerificationRejectsUnknownAction(t *testing.T) {
	_, _, err := parseBulkVerification(BulkVerificationReq{
		IDs:    []string{uuid.New().String()},
		Action: "promote",
	})
	if err == nil {
		t.Fatal("unknown action should be rejected")
	}
}

func TestParseBulkVerificationRejectsBadID(t *testing.T) {
	_, _, err := parseBulkVerification(BulkVerificationReq{
		IDs:    []string{"not-a-uuid"},
		Action: "approve",
	})
	if err == nil {
		t.Fatal("malformed id should be rejected")
	}
}

func TestParseBulkVerificationParsesValidRequest(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ids, status, err := parseBulkVerification(BulkVerificationReq{
		IDs:    []string{a.String(), b.String()},
		Action: "REJECT",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != models.VerificationRejected {
		t.Fatalf("expected rejected status, got %s", status)
	}
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Fatalf("ids not parsed in order: %v", ids)
	}
}

func TestDecisionToStatus(t *testing.T) {
	if s, ok := decisionToStatus(" Approve "); !ok || s != models.VerificationApproved {
		t.Fatalf("approve not recognized: %s %v", s, ok)
	}
	if _, ok := decisionToStatus("ban"); ok {
		t.Fatal("unknown action should not map to a status")
	}
}

func TestValidLevel(t *testing.T) {
	for _, lvl := range []string{"Basic", "Verified", "Premium"} {
		if !validLevel(lvl) {
			t.Errorf("%s should be a valid level", lvl)
		}
	}
	if validLevel("Platinum") {
		t.Fatal("unknown level accepted")
	}
}
