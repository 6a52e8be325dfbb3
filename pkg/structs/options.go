package structs

import (
	"time"
)

// Options passed to the Launchpad API on creation.
type Options struct {
	// PortalURL is the customer portal base. Origins are checked against
	// it and customer access URLs are built from it.
	PortalURL string

	// DefaultValidForMinutes applies when a create-job request doesn't
	// say how long the job stays runnable.
	DefaultValidForMinutes int64

	// DefaultSessionExpiryMinutes applies when a workflow doesn't set a
	// session lifetime.
	DefaultSessionExpiryMinutes int64

	// CallTimeout bounds each record-store / notifier call so a slow
	// collaborator surfaces as an error rather than a hung request.
	CallTimeout time.Duration
}
