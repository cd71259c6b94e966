package kyc

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
	"github.com/kivu-bank/kivu_kyc/internal/auth"
	"github.com/kivu-bank/kivu_kyc/internal/notification"
	"github.com/kivu-bank/kivu_kyc/internal/otp"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,}$`)

// Service manages the personal-info submission workflow, its email OTP
// verification step, and the certificates issued once a record is approved.
type Service struct {
	repo    Repository
	mailer  notification.MailSender
	signer  *auth.Signer
	otpTTL  time.Duration
	certTTL time.Duration
	logger  *slog.Logger
}

// NewService creates a personal-info service.
func NewService(repo Repository, mailer notification.MailSender, signer *auth.Signer, otpTTL, certTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, mailer: mailer, signer: signer, otpTTL: otpTTL, certTTL: certTTL, logger: logger}
}

// SubmitInfo records a document id and expiry for the account, starting (or
// restarting after rejection) a SUBMITTED cycle. An approved record is
// immutable through this path.
func (s *Service) SubmitInfo(ctx context.Context, accountID, documentID, expirationDate string) (PersonalInfo, error) {
	if accountID == "" {
		return PersonalInfo{}, apperror.Validation("account id cannot be empty")
	}
	if documentID == "" || expirationDate == "" {
		return PersonalInfo{}, apperror.Validation("document id and expiration date are required")
	}

	info := PersonalInfo{
		AccountID:        accountID,
		DocumentUniqueID: documentID,
		ExpirationDate:   expirationDate,
		Status:           StatusSubmitted,
	}

	existing, err := s.repo.FindByAccountID(ctx, accountID)
	if err == nil {
		if existing.Status == StatusApproved {
			return PersonalInfo{}, apperror.New(apperror.KindConflict, "personal info already approved")
		}
		// Resubmission keeps contact data and starts a fresh cycle.
		info.Location = existing.Location
		info.Email = existing.Email
	}

	if err := s.repo.Save(ctx, info); err != nil {
		return PersonalInfo{}, apperror.Wrap(apperror.KindProcessing, "failed to save personal info", err)
	}
	s.logger.Info("personal info submitted", "account_id", maskAccountID(accountID))
	return info, nil
}

// UpdateLocation sets the declared location on an existing record.
func (s *Service) UpdateLocation(ctx context.Context, accountID, location string) error {
	if location == "" {
		return apperror.Validation("location cannot be empty")
	}
	info, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return apperror.NotFound("no kyc record found for the provided account id")
	}
	info.Location = location
	if err := s.repo.Save(ctx, info); err != nil {
		return apperror.Wrap(apperror.KindProcessing, "failed to update location", err)
	}
	return nil
}

// UpdateEmail sets the contact email on an existing record.
func (s *Service) UpdateEmail(ctx context.Context, accountID, email string) error {
	if !emailPattern.MatchString(email) {
		return apperror.Validation("invalid email format")
	}
	info, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return apperror.NotFound("no kyc record found for the provided account id")
	}
	info.Email = email
	if err := s.repo.Save(ctx, info); err != nil {
		return apperror.Wrap(apperror.KindProcessing, "failed to update email", err)
	}
	return nil
}

// SendEmailOTP issues a 6-digit code to the given address and stores its
// bcrypt hash with an expiry timestamp.
func (s *Service) SendEmailOTP(ctx context.Context, accountID, email string) error {
	if accountID == "" {
		return apperror.Validation("account id cannot be empty")
	}
	if !emailPattern.MatchString(email) {
		return apperror.Validation("invalid email format")
	}

	info, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		info = PersonalInfo{AccountID: accountID, Status: StatusSubmitted}
	}

	code := generateEmailOTP()
	hash, err := hashEmailOTP(code, accountID)
	if err != nil {
		return apperror.Wrap(apperror.KindProcessing, "failed to hash email otp", err)
	}

	info.Email = email
	info.EmailOTPCode = code
	info.EmailOTPHash = hash
	info.OTPExpiresAt = time.Now().UTC().Add(s.otpTTL)
	if err := s.repo.Save(ctx, info); err != nil {
		return apperror.Wrap(apperror.KindProcessing, "failed to store email otp", err)
	}

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		s.logger.Error("email otp delivery failed", "account_id", maskAccountID(accountID), "error", err)
		return apperror.Wrap(apperror.KindDelivery, "failed to send email otp", err)
	}
	s.logger.Info("email otp sent", "account_id", maskAccountID(accountID))
	return nil
}

// VerifyEmailOTP checks the submitted code and, on success, moves the record
// from SUBMITTED to EMAIL_VERIFIED.
func (s *Service) VerifyEmailOTP(ctx context.Context, accountID, email, submitted string) error {
	if submitted == "" {
		return apperror.Validation("otp cannot be empty")
	}

	info, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return apperror.NotFound("user record not found")
	}
	if info.EmailOTPHash == "" {
		return apperror.Validation("no otp code found, request a new one")
	}
	if info.OTPExpiresAt.IsZero() {
		return apperror.Validation("otp expiration date missing")
	}
	if time.Now().UTC().After(info.OTPExpiresAt) {
		return apperror.Validation("otp has expired, request a new one")
	}

	payload, err := canonicalEmailOTP(submitted, accountID)
	if err != nil {
		return apperror.Wrap(apperror.KindProcessing, "failed to encode otp payload", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(info.EmailOTPHash), payload) != nil {
		return apperror.Validation("invalid otp")
	}

	if !info.Status.CanTransition(StatusEmailVerified) {
		return apperror.Newf(apperror.KindConflict, "cannot verify email from status %s", info.Status)
	}
	info.Email = email
	if err := s.repo.Save(ctx, info); err != nil {
		return apperror.Wrap(apperror.KindProcessing, "failed to persist verified email", err)
	}
	if err := s.repo.UpdateDecision(ctx, accountID, info.Status, StatusEmailVerified, ""); err != nil {
		return apperror.Wrap(apperror.KindConflict, "email verification lost a concurrent update", err)
	}
	s.logger.Info("email verified", "account_id", maskAccountID(accountID))
	return nil
}

// GetByAccount fetches the personal-info record for an account.
func (s *Service) GetByAccount(ctx context.Context, accountID string) (PersonalInfo, error) {
	info, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return PersonalInfo{}, apperror.NotFound("no kyc record found for the provided account id")
	}
	return info, nil
}

// FindByDocumentID returns all records sharing a document unique id.
func (s *Service) FindByDocumentID(ctx context.Context, documentID string) ([]PersonalInfo, error) {
	if documentID == "" {
		return nil, apperror.Validation("document id cannot be empty")
	}
	infos, err := s.repo.FindByDocumentUniqueID(ctx, documentID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindProcessing, "failed to query by document id", err)
	}
	return infos, nil
}

// Certificate issues a KYC certificate for an approved account, bound to the
// thumbprint of the device key presenting it. A rejected record surfaces its
// reason so the applicant knows what to fix.
func (s *Service) Certificate(ctx context.Context, accountID, deviceJWK string) (string, error) {
	if accountID == "" {
		return "", apperror.Validation("account id cannot be empty")
	}
	info, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		return "", apperror.NotFound("no kyc record found for the provided account id")
	}
	switch info.Status {
	case StatusApproved:
	case StatusRejected:
		return "", apperror.Newf(apperror.KindConflict, "kyc was rejected: %s", info.RejectionReason)
	default:
		return "", apperror.New(apperror.KindConflict, "kyc is not approved yet")
	}

	thumbprint, err := otp.Fingerprint(deviceJWK)
	if err != nil {
		return "", apperror.Wrap(apperror.KindProcessing, "malformed device public key", err)
	}
	cert, err := s.signer.IssueKYCCert(accountID, thumbprint, s.certTTL)
	if err != nil {
		return "", err
	}
	s.logger.Info("kyc certificate issued", "account_id", maskAccountID(accountID))
	return cert, nil
}

// Recover validates a recovery token and carries the approved KYC record of
// the old account over to its replacement, issuing a fresh certificate for
// the new device. Only an approved record can be recovered.
func (s *Service) Recover(ctx context.Context, token, deviceJWK string) (string, string, error) {
	oldAccountID, newAccountID, err := s.signer.VerifyRecoveryToken(token)
	if err != nil {
		return "", "", err
	}

	info, err := s.repo.FindByAccountID(ctx, oldAccountID)
	if err != nil {
		return "", "", apperror.NotFound("no kyc record found for the recovered account")
	}
	if info.Status != StatusApproved {
		return "", "", apperror.Newf(apperror.KindConflict, "cannot recover a record in status %s", info.Status)
	}

	moved := info
	moved.AccountID = newAccountID
	moved.EmailOTPCode = ""
	moved.EmailOTPHash = ""
	moved.OTPExpiresAt = time.Time{}
	if err := s.repo.Save(ctx, moved); err != nil {
		return "", "", apperror.Wrap(apperror.KindProcessing, "failed to transfer kyc record", err)
	}

	cert, err := s.Certificate(ctx, newAccountID, deviceJWK)
	if err != nil {
		return "", "", err
	}
	s.logger.Info("kyc record recovered",
		"old_account_id", maskAccountID(oldAccountID),
		"new_account_id", maskAccountID(newAccountID))
	return newAccountID, cert, nil
}

// generateEmailOTP returns a 6-digit code in [100000, 999999].
func generateEmailOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		panic(fmt.Sprintf("kyc: entropy source unavailable: %v", err))
	}
	return fmt.Sprintf("%d", 100000+n.Int64())
}

func canonicalEmailOTP(code, accountID string) ([]byte, error) {
	return json.Marshal(struct {
		OTP       string `json:"otp"`
		AccountID string `json:"accountId"`
	}{code, accountID})
}

func hashEmailOTP(code, accountID string) (string, error) {
	payload, err := canonicalEmailOTP(code, accountID)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword(payload, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func maskAccountID(accountID string) string {
	if len(accountID) < 5 {
		return "********"
	}
	return accountID[:2] + "****" + accountID[len(accountID)-2:]
}
