package documents

import (
	"context"
	"log/slog"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
)

// Service manages KYC document submission and the approval decision.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a documents service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SubmitInput carries the four document references for an account.
type SubmitInput struct {
	AccountID string
	FrontID   string
	BackID    string
	SelfieID  string
	TaxID     string
}

// Submit stores a complete document set as PENDING. All four slots must be
// present; there is no partial submission.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Documents, error) {
	if in.AccountID == "" {
		return Documents{}, apperror.Validation("account id cannot be empty")
	}

	docs := Documents{
		AccountID: in.AccountID,
		FrontID:   in.FrontID,
		BackID:    in.BackID,
		SelfieID:  in.SelfieID,
		TaxID:     in.TaxID,
		Status:    StatusPending,
	}
	if !docs.Complete() {
		return Documents{}, apperror.Validation("all four document references are required")
	}

	existing, err := s.repo.FindByAccountID(ctx, in.AccountID)
	if err == nil && existing.Status == StatusApproved {
		return Documents{}, apperror.New(apperror.KindConflict, "documents already approved")
	}

	if err := s.repo.Save(ctx, docs); err != nil {
		return Documents{}, apperror.Wrap(apperror.KindProcessing, "failed to save documents", err)
	}
	s.logger.Info("documents submitted", "account_id", in.AccountID)
	return docs, nil
}

// Decide applies a whole-record approval or rejection. The set must be
// complete, the transition legal, and a rejection must carry a reason.
func (s *Service) Decide(ctx context.Context, accountID string, decision Status, reason string) error {
	if decision != StatusApproved && decision != StatusRejected {
		return apperror.Newf(apperror.KindValidation, "invalid document decision %q", decision)
	}
	if decision == StatusRejected && reason == "" {
		return apperror.Validation("rejection reason is required when rejecting documents")
	}

	docs, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return apperror.NotFound("no documents found for the provided account id")
	}
	if !docs.Complete() {
		return apperror.Validation("documents are incomplete and cannot be decided")
	}
	if !docs.Status.CanTransition(decision) {
		return apperror.Newf(apperror.KindConflict, "cannot move documents from %s to %s", docs.Status, decision)
	}

	if err := s.repo.Transition(ctx, accountID, docs.Status, decision); err != nil {
		return apperror.Wrap(apperror.KindConflict, "document decision lost a concurrent update", err)
	}
	s.logger.Info("documents decided", "account_id", accountID, "decision", decision)
	return nil
}

// GetByAccount fetches the document set for an account.
func (s *Service) GetByAccount(ctx context.Context, accountID string) (Documents, error) {
	docs, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return Documents{}, apperror.NotFound("no documents found for the provided account id")
	}
	return docs, nil
}
