package auth

import (
	"testing"
	"time"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
)

func TestVerifyDeviceCert(t *testing.T) {
	signer, err := NewSigner("", "kivu-kyc-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	cert, err := signer.IssueDeviceCert("thumbprint-1", []string{RoleApplicant.String()}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	principal, err := signer.Verify(cert)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.Subject != "thumbprint-1" {
		t.Fatalf("expected thumbprint subject, got %q", principal.Subject)
	}
	if !principal.HasAuthority(RoleApplicant.String()) {
		t.Fatalf("expected %s authority, got %v", RoleApplicant, principal.Authorities)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer, err := NewSigner("", "kivu-kyc-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	cert, err := signer.IssueDeviceCert("thumbprint-2", nil, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := signer.Verify(cert); !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	signer, err := NewSigner("", "kivu-kyc-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	other, err := NewSigner("", "kivu-kyc-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	cert, err := other.IssueDeviceCert("thumbprint-3", nil, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := signer.Verify(cert); !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestVerifyRecoveryTokenRoundTrip(t *testing.T) {
	signer, err := NewSigner("", "kivu-kyc-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, err := signer.IssueRecoveryToken("acct-old", "acct-new", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	oldID, newID, err := signer.VerifyRecoveryToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if oldID != "acct-old" || newID != "acct-new" {
		t.Fatalf("unexpected account pair %q -> %q", oldID, newID)
	}
}

func TestVerifyRecoveryTokenRejectsOtherSubjects(t *testing.T) {
	signer, err := NewSigner("", "kivu-kyc-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	cert, err := signer.IssueDeviceCert("thumbprint-4", nil, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := signer.VerifyRecoveryToken(cert); !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}

	expired, err := signer.IssueRecoveryToken("acct-old", "acct-new", -time.Minute)
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if _, _, err := signer.VerifyRecoveryToken(expired); !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Fatalf("expected authentication error for expired token, got %v", err)
	}
}

func TestIssueKYCCertBindsAccountAndDevice(t *testing.T) {
	signer, err := NewSigner("", "kivu-kyc-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	cert, err := signer.IssueKYCCert("acct-1", "thumbprint-5", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	principal, err := signer.Verify(cert)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if principal.Subject != "acct-1" {
		t.Fatalf("expected account subject, got %q", principal.Subject)
	}

	if _, err := signer.IssueKYCCert("", "thumbprint-5", time.Minute); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := signer.IssueKYCCert("acct-1", "", time.Minute); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIssueRecoveryTokenRequiresBothIDs(t *testing.T) {
	signer, err := NewSigner("", "kivu-kyc-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	if _, err := signer.IssueRecoveryToken("", "acct-new", time.Minute); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := signer.IssueRecoveryToken("acct-old", "", time.Minute); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
