package device

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
	"github.com/kivu-bank/kivu_kyc/internal/auth"
	"github.com/kivu-bank/kivu_kyc/internal/otp"
)

// Service registers devices whose phone number passed OTP verification and
// issues them signed device certificates.
type Service struct {
	otpRepo    otp.Repository
	signer     *auth.Signer
	salt       string
	difficulty int
	certTTL    time.Duration
	logger     *slog.Logger
}

// NewService creates a device registration service.
func NewService(otpRepo otp.Repository, signer *auth.Signer, salt string, difficulty int, certTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{otpRepo: otpRepo, signer: signer, salt: salt, difficulty: difficulty, certTTL: certTTL, logger: logger}
}

// Register validates the proof of work for the device key, requires a
// validated OTP for it, and returns a signed device certificate.
func (s *Service) Register(ctx context.Context, phoneNumber, deviceJWK, nonce, powHash string) (string, error) {
	fingerprint, err := otp.Fingerprint(deviceJWK)
	if err != nil {
		return "", apperror.Wrap(apperror.KindProcessing, "malformed device public key", err)
	}

	rec, err := s.otpRepo.FindByPublicKeyHash(ctx, fingerprint)
	if err != nil {
		return "", apperror.NotFound("no otp request found for this device key")
	}
	if rec.Status != otp.StatusValidated {
		return "", apperror.New(apperror.KindAuthentication, "phone number is not verified for this device")
	}
	if rec.PhoneNumber != phoneNumber {
		return "", apperror.New(apperror.KindAuthentication, "phone number does not match the verified device")
	}

	computed, err := s.computePoW(fingerprint, phoneNumber, nonce)
	if err != nil {
		return "", apperror.Wrap(apperror.KindProcessing, "failed to compute proof of work", err)
	}
	if computed != powHash {
		return "", apperror.Validation("proof of work does not match")
	}
	if !strings.HasPrefix(computed, strings.Repeat("0", s.difficulty)) {
		return "", apperror.Newf(apperror.KindValidation, "proof of work below difficulty %d", s.difficulty)
	}

	cert, err := s.signer.IssueDeviceCert(fingerprint, []string{auth.RoleApplicant.String()}, s.certTTL)
	if err != nil {
		return "", err
	}
	s.logger.Info("device registered", "thumbprint", fingerprint)
	return cert, nil
}

// computePoW hashes the canonical JSON of fingerprint, phone, salt and nonce
// and returns the lowercase hex digest the client must reproduce.
func (s *Service) computePoW(fingerprint, phoneNumber, nonce string) (string, error) {
	payload := struct {
		DevicePub   string `json:"devicePub"`
		PhoneNumber string `json:"phoneNumber"`
		Salt        string `json:"salt"`
		Nonce       string `json:"nonce"`
	}{fingerprint, phoneNumber, s.salt, nonce}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
