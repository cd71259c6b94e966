package documents

import "time"

// Status is the document approval lifecycle.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus maps a wire value onto a known status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), true
	}
	return "", false
}

// CanTransition reports whether moving to next is legal from s. A rejected
// set may be resubmitted as a fresh pending cycle.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusRejected:
		return next == StatusPending
	default:
		return false
	}
}

// Documents is a per-account set of KYC image references. Approval is a
// whole-record decision: no slot is approved on its own.
type Documents struct {
	AccountID string
	FrontID   string
	BackID    string
	SelfieID  string
	TaxID     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Complete reports whether all four document slots hold a reference.
func (d Documents) Complete() bool {
	return d.FrontID != "" && d.BackID != "" && d.SelfieID != "" && d.TaxID != ""
}
