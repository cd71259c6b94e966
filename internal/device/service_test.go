package device

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/jwk"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
	"github.com/kivu-bank/kivu_kyc/internal/auth"
	"github.com/kivu-bank/kivu_kyc/internal/logging"
	"github.com/kivu-bank/kivu_kyc/internal/otp"
)

func testJWK(t *testing.T) string {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := jwk.New(&priv.PublicKey)
	if err != nil {
		t.Fatalf("build jwk: %v", err)
	}
	raw, err := json.Marshal(key)
	if err != nil {
		t.Fatalf("marshal jwk: %v", err)
	}
	return string(raw)
}

func newTestService(t *testing.T, difficulty int) (*Service, otp.Repository, *auth.Signer) {
	t.Helper()
	signer, err := auth.NewSigner("", "kivu-kyc-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	repo := otp.NewMemoryRepository()
	svc := NewService(repo, signer, "pepper", difficulty, time.Hour, logging.Discard())
	return svc, repo, signer
}

func seedValidatedOTP(t *testing.T, repo otp.Repository, phone, deviceKey string) string {
	t.Helper()
	fingerprint, err := otp.Fingerprint(deviceKey)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	now := time.Now().UTC()
	rec := otp.Record{
		ID:            "seed",
		PhoneNumber:   phone,
		PublicKeyHash: fingerprint,
		Status:        otp.StatusValidated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.Save(context.Background(), rec); err != nil {
		t.Fatalf("save record: %v", err)
	}
	return fingerprint
}

func TestRegisterIssuesDeviceCert(t *testing.T) {
	// Difficulty zero keeps the test from mining for a matching nonce.
	svc, repo, signer := newTestService(t, 0)
	ctx := context.Background()
	deviceKey := testJWK(t)

	fingerprint := seedValidatedOTP(t, repo, "+243900000010", deviceKey)

	pow, err := svc.computePoW(fingerprint, "+243900000010", "nonce-1")
	if err != nil {
		t.Fatalf("compute pow: %v", err)
	}

	cert, err := svc.Register(ctx, "+243900000010", deviceKey, "nonce-1", pow)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	principal, err := signer.Verify(cert)
	if err != nil {
		t.Fatalf("verify cert: %v", err)
	}
	if principal.Subject != fingerprint {
		t.Fatalf("cert subject %q, want %q", principal.Subject, fingerprint)
	}
	if !principal.HasAuthority(auth.RoleApplicant.String()) {
		t.Fatalf("expected applicant authority, got %v", principal.Authorities)
	}
}

func TestRegisterRequiresValidatedOTP(t *testing.T) {
	svc, repo, _ := newTestService(t, 0)
	ctx := context.Background()
	deviceKey := testJWK(t)

	fingerprint, err := otp.Fingerprint(deviceKey)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	rec := otp.Record{ID: "seed", PhoneNumber: "+243900000011", PublicKeyHash: fingerprint, Status: otp.StatusPending}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("save record: %v", err)
	}

	pow, err := svc.computePoW(fingerprint, "+243900000011", "n")
	if err != nil {
		t.Fatalf("compute pow: %v", err)
	}
	if _, err := svc.Register(ctx, "+243900000011", deviceKey, "n", pow); !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestRegisterRejectsPhoneMismatch(t *testing.T) {
	svc, repo, _ := newTestService(t, 0)
	ctx := context.Background()
	deviceKey := testJWK(t)

	fingerprint := seedValidatedOTP(t, repo, "+243900000012", deviceKey)
	pow, err := svc.computePoW(fingerprint, "+243900000099", "n")
	if err != nil {
		t.Fatalf("compute pow: %v", err)
	}

	if _, err := svc.Register(ctx, "+243900000099", deviceKey, "n", pow); !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestRegisterRejectsBadProofOfWork(t *testing.T) {
	svc, repo, _ := newTestService(t, 0)
	ctx := context.Background()
	deviceKey := testJWK(t)

	seedValidatedOTP(t, repo, "+243900000013", deviceKey)

	if _, err := svc.Register(ctx, "+243900000013", deviceKey, "n", "deadbeef"); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterEnforcesDifficulty(t *testing.T) {
	svc, repo, _ := newTestService(t, 64)
	ctx := context.Background()
	deviceKey := testJWK(t)

	fingerprint := seedValidatedOTP(t, repo, "+243900000014", deviceKey)
	pow, err := svc.computePoW(fingerprint, "+243900000014", "n")
	if err != nil {
		t.Fatalf("compute pow: %v", err)
	}

	// A 64-zero prefix cannot occur in a 64-hex-char digest of real input.
	if _, err := svc.Register(ctx, "+243900000014", deviceKey, "n", pow); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected difficulty rejection, got %v", err)
	}
}

func TestRegisterUnknownDevice(t *testing.T) {
	svc, _, _ := newTestService(t, 0)

	if _, err := svc.Register(context.Background(), "+243900000015", testJWK(t), "n", "00"); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
