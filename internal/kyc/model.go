package kyc

import "time"

// Status is the personal-info verification lifecycle.
type Status string

const (
	StatusSubmitted     Status = "SUBMITTED"
	StatusEmailVerified Status = "EMAIL_VERIFIED"
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
)

// ParseStatus maps a wire value onto a known status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusSubmitted, StatusEmailVerified, StatusApproved, StatusRejected:
		return Status(s), true
	}
	return "", false
}

// CanTransition encodes the workflow: email verification follows submission,
// a reviewer approves or rejects, and a rejected record may be resubmitted.
// Approved is terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusSubmitted:
		return next == StatusEmailVerified || next == StatusRejected
	case StatusEmailVerified:
		return next == StatusApproved || next == StatusRejected
	case StatusRejected:
		return next == StatusSubmitted
	default:
		return false
	}
}

// PersonalInfo is a per-account identity submission. EmailOTPCode is a
// transient delivery copy; verification always goes through EmailOTPHash.
type PersonalInfo struct {
	AccountID        string
	DocumentUniqueID string
	ExpirationDate   string
	Location         string
	Email            string
	EmailOTPHash     string
	EmailOTPCode     string
	OTPExpiresAt     time.Time
	Status           Status
	RejectionReason  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
