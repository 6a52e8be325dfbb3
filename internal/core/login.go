package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/session"
	"github.com/guidepost/launchpad/pkg/structs"
)

// validOrigin checks the visit arrived from the customer portal.
// No configured portal URL disables the check.
func (s *Service) validOrigin(origin string) bool {
	if s.opts.PortalURL == "" {
		return true
	}
	return strings.Contains(origin, s.opts.PortalURL)
}

// appOrigin checks a task visit arrived from its application's site.
func appOrigin(origin string, app *structs.Application) bool {
	if app.AccessURL == "" {
		return true
	}
	return strings.Contains(origin, app.AccessURL)
}

// authenticate establishes who is knocking. A valid session cookie wins;
// otherwise the visit must carry the job's access key. Returns whether
// the session (if any) has passed the login challenge already.
func (s *Service) authenticate(job *structs.Job, visit *structs.JobVisit) (loggedIn bool, err error) {
	claims, ok := session.Verify(visit.SessionToken, job.Secret, job.JobKey, time.Unix(timeNow(), 0))
	if ok {
		return claims.LoggedIn, nil
	}
	if visit.AccessKey == "" {
		return false, fmt.Errorf("%w no session and no access key for job %s", errors.ErrForbidden, job.JobKey)
	}
	if !session.VerifyAccessKey(job.Secret, job.JobKey, visit.AccessKey) {
		return false, fmt.Errorf("%w bad access key for job %s", errors.ErrForbidden, job.JobKey)
	}
	return false, nil
}

// runLogin enforces the job's login policy. It returns either a
// Navigation (the customer must go answer / wait out a challenge) or a
// fresh session token proving the challenge is passed. Both nil with a
// nil error means the existing session is already logged in.
func (s *Service) runLogin(ctx context.Context, job *structs.Job, loggedIn bool, submitted string) (*structs.Navigation, string, error) {
	if !job.Login.RequiresLogin {
		token, err := session.Mint(job.Secret, job.JobKey, structs.LoginNone, s.sessionExpiry(job), time.Unix(timeNow(), 0))
		if err != nil {
			return nil, "", fmt.Errorf("%w minting session: %v", errors.ErrInternal, err)
		}
		return nil, token, nil
	}
	if loggedIn {
		return nil, "", nil
	}

	now := timeNow()

	// lockout window
	if job.Login.MaxTrials > 0 && job.FailedLoginTrials >= job.Login.MaxTrials {
		lockoutEnd := job.LastFailedLogin + job.Login.LockTimeoutMinutes*60
		if now < lockoutEnd {
			nav := structs.Redirect(fmt.Sprintf("/loginLocked?till=%d", (lockoutEnd-now)*1000))
			nav.ClearCookie = true
			return nav, "", nil
		}

		// window elapsed, counters reset; an OTP job also gets a fresh
		// code so the locked-out one is useless
		job.FailedLoginTrials = 0
		job.LastFailedLogin = 0
		if job.Login.Type == structs.LoginOTP {
			job.LoginCode = session.NewLoginCode()
			if err := s.store.UpdateJob(ctx, job); err != nil {
				return nil, "", fmt.Errorf("%w resetting lockout of job %s: %v", errors.ErrInternal, job.ID, err)
			}
			s.dispatchLoginCode(ctx, job)
			return s.challengeNav(job, ""), "", nil
		}
		if err := s.store.UpdateJob(ctx, job); err != nil {
			return nil, "", fmt.Errorf("%w resetting lockout of job %s: %v", errors.ErrInternal, job.ID, err)
		}
	}

	switch job.Login.Type {
	case structs.LoginPIN:
		if submitted == "" {
			return s.challengeNav(job, ""), "", nil
		}
	case structs.LoginOTP:
		if job.LoginCode == "" {
			job.LoginCode = session.NewLoginCode()
			if err := s.store.UpdateJob(ctx, job); err != nil {
				return nil, "", fmt.Errorf("%w storing login code of job %s: %v", errors.ErrInternal, job.ID, err)
			}
			s.dispatchLoginCode(ctx, job)
			return s.challengeNav(job, ""), "", nil
		}
		if submitted == "" {
			return s.challengeNav(job, ""), "", nil
		}
	case structs.LoginGoogle:
		nav := structs.Redirect("/login?type=GOOGLE&error=notAvailable")
		nav.ClearCookie = true
		return nav, "", nil
	default:
		return nil, "", fmt.Errorf("%w unknown login type %q on job %s", errors.ErrValidation, job.Login.Type, job.ID)
	}

	if submitted != job.LoginCode {
		job.FailedLoginTrials++
		job.LastFailedLogin = now
		if err := s.store.UpdateJob(ctx, job); err != nil {
			return nil, "", fmt.Errorf("%w recording failed login of job %s: %v", errors.ErrInternal, job.ID, err)
		}
		s.audit(ctx, job.ID, "Login Failed", fmt.Sprintf("failed trial %d of %d", job.FailedLoginTrials, job.Login.MaxTrials), "")
		return s.challengeNav(job, "invalidCode"), "", nil
	}

	// challenge passed
	job.FailedLoginTrials = 0
	job.LastFailedLogin = 0
	job.LastSuccessfulLogin = now
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, "", fmt.Errorf("%w recording login of job %s: %v", errors.ErrInternal, job.ID, err)
	}
	s.audit(ctx, job.ID, "Login Succeeded", fmt.Sprintf("login type %s", job.Login.Type), "")

	token, err := session.Mint(job.Secret, job.JobKey, job.Login.Type, s.sessionExpiry(job), time.Unix(now, 0))
	if err != nil {
		return nil, "", fmt.Errorf("%w minting session: %v", errors.ErrInternal, err)
	}
	return nil, token, nil
}

// challengeNav points the customer at the login page for their job's
// challenge type.
func (s *Service) challengeNav(job *structs.Job, reason string) *structs.Navigation {
	target := fmt.Sprintf("/login?type=%s", job.Login.Type)
	if reason != "" {
		target += "&error=" + reason
	}
	nav := structs.Redirect(target)
	nav.ClearCookie = true
	return nav
}

// dispatchLoginCode sends the job's current code over the workflow's
// login-code channels and records per-channel outcomes on the job.
// Delivery trouble is bookkeeping, not an error.
func (s *Service) dispatchLoginCode(ctx context.Context, job *structs.Job) {
	wf, err := s.store.Workflow(ctx, job.WorkflowID)
	if err != nil {
		s.log.Warn("login code dispatch skipped", "job", job.ID, "err", err)
		return
	}
	msgs := loginCodeMessages(job, &wf.Notify)
	if len(msgs) == 0 {
		return
	}
	job.LoginCodeNotificationStatus = mergeDelivery(job.LoginCodeNotificationStatus, s.send(ctx, msgs))
	if err := s.store.UpdateJob(ctx, job); err != nil {
		s.log.Warn("login code delivery bookkeeping failed", "job", job.ID, "err", err)
	}
	s.audit(ctx, job.ID, "Login Code Sent", deliverySummary(job.LoginCodeNotificationStatus), "")
}
