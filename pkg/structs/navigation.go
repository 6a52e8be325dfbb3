package structs

import "time"

// NavKind tags a Navigation decision.
type NavKind string

const (
	// NavRedirect sends the caller to Target.
	NavRedirect NavKind = "REDIRECT"

	// NavDone means the job finished; the caller goes to the done page.
	NavDone NavKind = "DONE"

	// NavError sends the caller to the error page with Detail.
	NavError NavKind = "ERROR"
)

// Navigation is the outcome of a guarded job action. Controllers return
// these values; only the HTTP boundary translates them into actual
// redirects / responses and cookie writes.
type Navigation struct {
	Kind   NavKind `json:"kind"`
	Target string  `json:"target,omitempty"`
	Detail string  `json:"detail,omitempty"`

	// SetToken, when non empty, is a fresh session token the boundary
	// should store in the job's cookie. TokenTTL carries the token's
	// lifetime so the cookie expires with it.
	SetToken string        `json:"-"`
	TokenTTL time.Duration `json:"-"`

	// ClearCookie tells the boundary to drop the job's cookie.
	ClearCookie bool `json:"-"`
}

// Redirect builds a redirect decision.
func Redirect(target string) *Navigation {
	return &Navigation{Kind: NavRedirect, Target: target}
}

// Done builds a job-finished decision.
func Done() *Navigation {
	return &Navigation{Kind: NavDone, Target: "/done"}
}

// ErrorNav builds an error decision with a reason for the error page.
func ErrorNav(detail string) *Navigation {
	return &Navigation{Kind: NavError, Target: "/error", Detail: detail}
}
