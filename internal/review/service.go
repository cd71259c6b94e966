package review

import (
	"context"
	"log/slog"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
	"github.com/kivu-bank/kivu_kyc/internal/documents"
	"github.com/kivu-bank/kivu_kyc/internal/kyc"
	"github.com/kivu-bank/kivu_kyc/internal/otp"
)

// Service implements reviewer-side operations: pending listings and the
// approval/rejection decisions.
type Service struct {
	infoRepo kyc.Repository
	docs     *documents.Service
	otpRepo  otp.Repository
	logger   *slog.Logger
}

// NewService creates a review service.
func NewService(infoRepo kyc.Repository, docs *documents.Service, otpRepo otp.Repository, logger *slog.Logger) *Service {
	return &Service{infoRepo: infoRepo, docs: docs, otpRepo: otpRepo, logger: logger}
}

// PendingRecord pairs a personal-info submission with its document set for
// the review queue.
type PendingRecord struct {
	AccountID        string             `json:"account_id"`
	DocumentUniqueID string             `json:"id_number"`
	ExpirationDate   string             `json:"expiry_date"`
	Location         string             `json:"location"`
	Email            string             `json:"email"`
	InfoStatus       kyc.Status         `json:"info_status"`
	FrontID          string             `json:"front_id"`
	BackID           string             `json:"back_id"`
	SelfieID         string             `json:"selfie_id"`
	TaxID            string             `json:"tax_id"`
	DocumentStatus   documents.Status   `json:"document_status"`
}

// PendingKYC returns submissions awaiting a decision: personal info in
// SUBMITTED or EMAIL_VERIFIED whose document set exists and is still PENDING.
func (s *Service) PendingKYC(ctx context.Context) ([]PendingRecord, error) {
	var infos []kyc.PersonalInfo
	for _, status := range []kyc.Status{kyc.StatusSubmitted, kyc.StatusEmailVerified} {
		batch, err := s.infoRepo.ListByStatus(ctx, status)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindProcessing, "failed to list pending personal info", err)
		}
		infos = append(infos, batch...)
	}

	var out []PendingRecord
	for _, info := range infos {
		docs, err := s.docs.GetByAccount(ctx, info.AccountID)
		if err != nil || docs.Status != documents.StatusPending {
			continue
		}
		out = append(out, PendingRecord{
			AccountID:        info.AccountID,
			DocumentUniqueID: info.DocumentUniqueID,
			ExpirationDate:   info.ExpirationDate,
			Location:         info.Location,
			Email:            info.Email,
			InfoStatus:       info.Status,
			FrontID:          docs.FrontID,
			BackID:           docs.BackID,
			SelfieID:         docs.SelfieID,
			TaxID:            docs.TaxID,
			DocumentStatus:   docs.Status,
		})
	}
	return out, nil
}

// PendingOTP is a review-queue view of an unresolved OTP request.
type PendingOTP struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"otp"`
	Status      string `json:"status"`
}

// PendingOTPs lists OTP requests still awaiting validation.
func (s *Service) PendingOTPs(ctx context.Context) ([]PendingOTP, error) {
	records, err := s.otpRepo.ListByStatus(ctx, otp.StatusPending)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProcessing, "failed to list pending otp requests", err)
	}
	if len(records) == 0 {
		return nil, apperror.NotFound("no pending otp entries found")
	}
	out := make([]PendingOTP, 0, len(records))
	for _, rec := range records {
		out = append(out, PendingOTP{PhoneNumber: rec.PhoneNumber, Code: rec.Code, Status: string(rec.Status)})
	}
	return out, nil
}

// UpdateKYCStatus applies a reviewer decision to a personal-info record after
// re-checking the document identity it was reviewed against. The document set
// moves with the decision.
func (s *Service) UpdateKYCStatus(ctx context.Context, accountID, newStatus, idNumber, expiryDate, rejectionReason string) error {
	for name, v := range map[string]string{
		"account id": accountID, "new status": newStatus, "document id": idNumber, "expiry date": expiryDate,
	} {
		if v == "" {
			return apperror.Newf(apperror.KindValidation, "%s cannot be empty", name)
		}
	}

	target, ok := kyc.ParseStatus(newStatus)
	if !ok {
		return apperror.Newf(apperror.KindValidation, "invalid kyc status %q", newStatus)
	}

	info, err := s.infoRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return apperror.Newf(apperror.KindNotFound, "no record found for account %s", accountID)
	}
	if info.DocumentUniqueID != idNumber {
		return apperror.Validation("document id mismatch")
	}
	if info.ExpirationDate != expiryDate {
		return apperror.Validation("document expiry date mismatch")
	}
	if !info.Status.CanTransition(target) {
		return apperror.Newf(apperror.KindConflict, "cannot move kyc record from %s to %s", info.Status, target)
	}

	reason := ""
	if target == kyc.StatusRejected {
		if rejectionReason == "" {
			return apperror.Validation("rejection reason is required when status is REJECTED")
		}
		reason = rejectionReason
	}

	// The documents set moves with an approval or rejection, so it is checked
	// up front: committing the personal-info transition first would strand the
	// record in a terminal state whenever the documents side refused.
	var docTarget documents.Status
	switch target {
	case kyc.StatusApproved:
		docTarget = documents.StatusApproved
	case kyc.StatusRejected:
		docTarget = documents.StatusRejected
	}
	if docTarget != "" {
		docs, err := s.docs.GetByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if !docs.Complete() {
			return apperror.Validation("documents are incomplete and cannot be decided")
		}
		if !docs.Status.CanTransition(docTarget) {
			return apperror.Newf(apperror.KindConflict, "cannot move documents from %s to %s", docs.Status, docTarget)
		}
	}

	if err := s.infoRepo.UpdateDecision(ctx, accountID, info.Status, target, reason); err != nil {
		return apperror.Wrap(apperror.KindConflict, "kyc decision lost a concurrent update", err)
	}
	if docTarget != "" {
		if err := s.docs.Decide(ctx, accountID, docTarget, reason); err != nil {
			return err
		}
	}

	s.logger.Info("kyc status updated", "account_id", accountID, "status", target)
	return nil
}

// UpdateOTPStatus applies a reviewer override to an OTP record, honoring the
// monotonic transition table.
func (s *Service) UpdateOTPStatus(ctx context.Context, phoneNumber, newStatus string) error {
	if phoneNumber == "" || newStatus == "" {
		return apperror.Validation("phone number and new status are required")
	}
	target, ok := otp.ParseStatus(newStatus)
	if !ok {
		return apperror.Newf(apperror.KindValidation, "invalid otp status %q", newStatus)
	}

	rec, err := s.otpRepo.FindByPhone(ctx, phoneNumber)
	if err != nil {
		return apperror.Newf(apperror.KindNotFound, "no otp record found for %s", phoneNumber)
	}
	if !rec.Status.CanTransition(target) {
		return apperror.Newf(apperror.KindConflict, "cannot move otp record from %s to %s", rec.Status, target)
	}
	if err := s.otpRepo.Transition(ctx, rec.PublicKeyHash, rec.Status, target); err != nil {
		return apperror.Wrap(apperror.KindConflict, "otp status update lost a concurrent update", err)
	}
	s.logger.Info("otp status updated", "phone", phoneNumber, "status", target)
	return nil
}
