package otp

import "time"

// Status is the lifecycle state of an OTP record. Transitions are monotonic:
// once a record leaves Pending it never returns.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusValidated Status = "VALIDATED"
	StatusExpired   Status = "EXPIRED"
	StatusFailed    Status = "FAILED"
)

// ParseStatus maps a wire value onto a known status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusValidated, StatusExpired, StatusFailed:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusValidated || s == StatusExpired || s == StatusFailed
}

// CanTransition reports whether moving to next is legal from s.
func (s Status) CanTransition(next Status) bool {
	return s == StatusPending && next != StatusPending
}

// Record is a stored OTP request bound to a phone number and a device key.
// Code is a transient delivery copy; validation always goes through OTPHash.
type Record struct {
	ID            string
	PhoneNumber   string
	PublicKeyHash string
	OTPHash       string
	Code          string
	Status        Status
	Attempts      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Data carries freshly issued OTP state between generation and delivery.
// The code also lands on the stored record so the review queue can surface
// it; validation only ever compares against the hash.
type Data struct {
	Code        string
	Hash        string
	Salt        string
	PhoneNumber string
}
