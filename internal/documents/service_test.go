package documents

import (
	"context"
	"testing"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
	"github.com/kivu-bank/kivu_kyc/internal/logging"
)

func newTestService() (*Service, Repository) {
	repo := NewMemoryRepository()
	return NewService(repo, logging.Discard()), repo
}

func completeInput(accountID string) SubmitInput {
	return SubmitInput{
		AccountID: accountID,
		FrontID:   "front-1",
		BackID:    "back-1",
		SelfieID:  "selfie-1",
		TaxID:     "tax-1",
	}
}

func TestSubmitRequiresAllSlots(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in := completeInput("acct-200")
	in.SelfieID = ""
	if _, err := svc.Submit(ctx, in); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	docs, err := svc.Submit(ctx, completeInput("acct-200"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if docs.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", docs.Status)
	}
}

func TestDecideRejectionRequiresReason(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Submit(ctx, completeInput("acct-201")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Decide(ctx, "acct-201", StatusRejected, ""); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.Decide(ctx, "acct-201", StatusRejected, "selfie too dark"); err != nil {
		t.Fatalf("reject: %v", err)
	}
}

func TestApprovalIsTerminal(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	if _, err := svc.Submit(ctx, completeInput("acct-202")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Decide(ctx, "acct-202", StatusApproved, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	docs, err := repo.FindByAccountID(ctx, "acct-202")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if docs.Status != StatusApproved {
		t.Fatalf("expected APPROVED, got %s", docs.Status)
	}

	if err := svc.Decide(ctx, "acct-202", StatusRejected, "late reason"); !apperror.IsKind(err, apperror.KindConflict) {
		t.Fatalf("expected conflict on decided record, got %v", err)
	}
	if _, err := svc.Submit(ctx, completeInput("acct-202")); !apperror.IsKind(err, apperror.KindConflict) {
		t.Fatalf("expected conflict on approved resubmission, got %v", err)
	}
}

func TestRejectionAllowsResubmission(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	if _, err := svc.Submit(ctx, completeInput("acct-203")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Decide(ctx, "acct-203", StatusRejected, "id expired"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	in := completeInput("acct-203")
	in.FrontID = "front-2"
	if _, err := svc.Submit(ctx, in); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	docs, err := repo.FindByAccountID(ctx, "acct-203")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if docs.Status != StatusPending || docs.FrontID != "front-2" {
		t.Fatalf("resubmission not recorded: %s %s", docs.Status, docs.FrontID)
	}
}

func TestDecideRejectsUnknownDecision(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.Decide(context.Background(), "acct-204", StatusPending, ""); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
