package otp

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/jwk"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
	"github.com/kivu-bank/kivu_kyc/internal/notification"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// Service implements the phone OTP lifecycle: issue, deliver, validate.
type Service struct {
	repo        Repository
	sender      notification.SMSSender
	salt        string
	ttl         time.Duration
	maxAttempts int
	logger      *slog.Logger
}

// NewService creates an OTP service.
func NewService(repo Repository, sender notification.SMSSender, salt string, ttl time.Duration, maxAttempts int, logger *slog.Logger) *Service {
	return &Service{repo: repo, sender: sender, salt: salt, ttl: ttl, maxAttempts: maxAttempts, logger: logger}
}

// GenerateOTP returns a uniformly distributed 4-digit code in [1000, 9999].
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic(fmt.Sprintf("otp: entropy source unavailable: %v", err))
	}
	return fmt.Sprintf("%d", 1000+n.Int64())
}

// Issue generates a code for the phone/device pair, persists the hashed form
// and hands the plaintext to the SMS gateway. The returned Data carries the
// plaintext only for the duration of delivery.
func (s *Service) Issue(ctx context.Context, phoneNumber, deviceJWK string) (Data, error) {
	if !phonePattern.MatchString(phoneNumber) {
		return Data{}, apperror.Validation("invalid phone number format")
	}

	fingerprint, err := Fingerprint(deviceJWK)
	if err != nil {
		return Data{}, apperror.Wrap(apperror.KindProcessing, "malformed device public key", err)
	}

	existing, findErr := s.repo.FindByPublicKeyHash(ctx, fingerprint)
	if findErr == nil && existing.Status == StatusValidated {
		return Data{}, apperror.New(apperror.KindConflict, "device key already validated")
	}

	code := GenerateOTP()
	hash, err := s.computeOTPHash(code, fingerprint, phoneNumber)
	if err != nil {
		return Data{}, apperror.Wrap(apperror.KindProcessing, "failed to compute otp hash", err)
	}

	now := time.Now().UTC()
	rec := Record{
		ID:            uuid.NewString(),
		PhoneNumber:   phoneNumber,
		PublicKeyHash: fingerprint,
		OTPHash:       hash,
		Code:          code,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if findErr == nil {
		rec.ID = existing.ID
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return Data{}, apperror.Wrap(apperror.KindProcessing, "failed to store otp record", err)
	}

	if err := s.sender.SendOTP(ctx, phoneNumber, code); err != nil {
		s.logger.Error("otp delivery failed", "phone", maskPhone(phoneNumber), "error", err)
		return Data{}, apperror.Wrap(apperror.KindDelivery, "failed to send otp", err)
	}

	s.logger.Info("otp issued", "phone", maskPhone(phoneNumber))
	return Data{Code: code, Hash: hash, Salt: s.salt, PhoneNumber: phoneNumber}, nil
}

// Validate recomputes the hash for the submitted code and compares it in
// constant time against the stored hash. Expiry and terminal statuses are
// checked before any comparison.
func (s *Service) Validate(ctx context.Context, phoneNumber, submitted, deviceJWK string) error {
	fingerprint, err := Fingerprint(deviceJWK)
	if err != nil {
		return apperror.Wrap(apperror.KindProcessing, "malformed device public key", err)
	}

	rec, err := s.repo.FindByPublicKeyHash(ctx, fingerprint)
	if err != nil {
		return apperror.NotFound("no otp request found for this device key")
	}
	if rec.Status != StatusPending {
		return apperror.Newf(apperror.KindValidation, "otp request is %s", rec.Status)
	}
	if time.Now().UTC().After(rec.CreatedAt.Add(s.ttl)) {
		if err := s.repo.Transition(ctx, fingerprint, StatusPending, StatusExpired); err != nil {
			return apperror.Wrap(apperror.KindProcessing, "failed to expire otp", err)
		}
		return apperror.Validation("otp expired, request a new one")
	}

	hash, err := s.computeOTPHash(submitted, fingerprint, phoneNumber)
	if err != nil {
		return apperror.Wrap(apperror.KindProcessing, "failed to compute otp hash", err)
	}
	if subtle.ConstantTimeCompare([]byte(hash), []byte(rec.OTPHash)) == 1 {
		if err := s.repo.Transition(ctx, fingerprint, StatusPending, StatusValidated); err != nil {
			return apperror.Wrap(apperror.KindProcessing, "failed to mark otp validated", err)
		}
		s.logger.Info("otp validated", "phone", maskPhone(phoneNumber))
		return nil
	}

	attempts, err := s.repo.IncrementAttempts(ctx, fingerprint)
	if err != nil {
		return apperror.Wrap(apperror.KindProcessing, "failed to record otp attempt", err)
	}
	if attempts >= s.maxAttempts {
		if err := s.repo.Transition(ctx, fingerprint, StatusPending, StatusFailed); err != nil {
			return apperror.Wrap(apperror.KindProcessing, "failed to mark otp failed", err)
		}
		return apperror.Validation("too many invalid attempts, request a new otp")
	}
	return apperror.Validation("invalid otp")
}

// Fingerprint parses a JWK and returns its base64 SHA-256 thumbprint. The
// thumbprint is the stable identifier for a device public key.
func Fingerprint(deviceJWK string) (string, error) {
	key, err := jwk.ParseKey([]byte(deviceJWK))
	if err != nil {
		return "", fmt.Errorf("parse device jwk: %w", err)
	}
	tp, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("compute jwk thumbprint: %w", err)
	}
	return base64.StdEncoding.EncodeToString(tp), nil
}

// computeOTPHash hashes the canonical JSON of code, device fingerprint,
// phone number and server salt.
func (s *Service) computeOTPHash(code, fingerprint, phoneNumber string) (string, error) {
	payload := struct {
		OTP         string `json:"otp"`
		DevicePub   string `json:"devicePub"`
		PhoneNumber string `json:"phoneNumber"`
		Salt        string `json:"salt"`
	}{code, fingerprint, phoneNumber, s.salt}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func maskPhone(phone string) string {
	if len(phone) < 5 {
		return "*****"
	}
	return phone[:3] + "****" + phone[len(phone)-2:]
}
