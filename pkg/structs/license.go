package structs

import (
	"strings"
)

// PricingModel is how a license meters use of an application.
type PricingModel string

const (
	// PricingQuota grants a fixed number of task-start units.
	PricingQuota PricingModel = "QUOTA"

	// PricingConcurrent is reserved; checks against it report the model
	// as not implemented rather than guessing semantics.
	PricingConcurrent PricingModel = "CONCURRENT"
)

func ToPricingModel(s string) PricingModel {
	switch strings.ToUpper(s) {
	case "QUOTA":
		return PricingQuota
	case "CONCURRENT":
		return PricingConcurrent
	default:
		return ""
	}
}

// License is a quota or time-bounded entitlement to run an application's
// integration.
type License struct {
	// ID is a unique identifier for this license.
	ID string `json:"id"`

	// ExpiresAt is when the license lapses, unix time in seconds.
	ExpiresAt int64 `json:"expires_at"`

	// Model is the pricing model metering this license.
	Model PricingModel `json:"model"`

	// Limit / Used track quota consumption (QUOTA model only).
	// Used never exceeds Limit.
	Limit int64 `json:"limit"`
	Used  int64 `json:"used"`
}

// Remaining is the quota headroom left on the license.
func (l *License) Remaining() int64 {
	return l.Limit - l.Used
}
