package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/session"
	"github.com/guidepost/launchpad/pkg/store"
	"github.com/guidepost/launchpad/pkg/structs"
)

func seedLoginJob(t *testing.T, m *store.Memory, login structs.LoginPolicy, code string) *structs.Job {
	t.Helper()
	m.SetWorkflow(&structs.Workflow{
		ID:     "wf-1",
		Active: true,
		Notify: structs.NotifyPolicy{LoginCode: []structs.Channel{structs.ChannelEmail}},
	})
	job := &structs.Job{
		JobSpec: structs.JobSpec{
			WorkflowID: "wf-1",
			Customer:   structs.Customer{Name: "Sam", Email: "sam@example.com"},
		},
		ID:         "job-1",
		JobKey:     "jobkey-1",
		Secret:     "secret-1",
		Status:     structs.NEW,
		Login:      login,
		LoginCode:  code,
		ValidUntil: 2000000,
	}
	assert.Nil(t, m.CreateJob(context.Background(), job))
	return job
}

func TestRunLoginNotRequired(t *testing.T) {
	m := store.NewMemory()
	job := seedLoginJob(t, m, structs.LoginPolicy{RequiresLogin: false}, "")
	svc := newTestService(t, m)

	nav, token, err := svc.runLogin(context.Background(), job, false, "")

	assert.Nil(t, err)
	assert.Nil(t, nav)
	claims, ok := session.Verify(token, job.Secret, job.JobKey, time.Unix(timeNow(), 0))
	assert.True(t, ok)
	assert.True(t, claims.LoggedIn)
}

func TestRunLoginAlreadyLoggedIn(t *testing.T) {
	m := store.NewMemory()
	job := seedLoginJob(t, m, structs.LoginPolicy{RequiresLogin: true, Type: structs.LoginPIN, MaxTrials: 3, LockTimeoutMinutes: 5}, "1234")
	svc := newTestService(t, m)

	nav, token, err := svc.runLogin(context.Background(), job, true, "")

	assert.Nil(t, err)
	assert.Nil(t, nav)
	assert.Equal(t, "", token)
}

func TestRunLoginPINChallenge(t *testing.T) {
	m := store.NewMemory()
	job := seedLoginJob(t, m, structs.LoginPolicy{RequiresLogin: true, Type: structs.LoginPIN, MaxTrials: 3, LockTimeoutMinutes: 5}, "1234")
	svc := newTestService(t, m)
	ctx := context.Background()

	// no answer yet
	nav, token, err := svc.runLogin(ctx, job, false, "")
	assert.Nil(t, err)
	assert.Equal(t, "", token)
	assert.Equal(t, "/login?type=PIN", nav.Target)
	assert.True(t, nav.ClearCookie)

	// wrong answer
	nav, token, err = svc.runLogin(ctx, job, false, "9999")
	assert.Nil(t, err)
	assert.Equal(t, "", token)
	assert.Equal(t, "/login?type=PIN&error=invalidCode", nav.Target)
	stored, _ := m.Job(ctx, job.ID)
	assert.Equal(t, int64(1), stored.FailedLoginTrials)
	assert.True(t, hasAudit(m, job.ID, "Login Failed"))

	// right answer resets counters & mints a logged-in session
	nav, token, err = svc.runLogin(ctx, job, false, "1234")
	assert.Nil(t, err)
	assert.Nil(t, nav)
	claims, ok := session.Verify(token, job.Secret, job.JobKey, time.Unix(timeNow(), 0))
	assert.True(t, ok)
	assert.True(t, claims.LoggedIn)
	assert.Equal(t, structs.LoginPIN, claims.LoginType)
	stored, _ = m.Job(ctx, job.ID)
	assert.Equal(t, int64(0), stored.FailedLoginTrials)
	assert.Equal(t, timeNow(), stored.LastSuccessfulLogin)
	assert.True(t, hasAudit(m, job.ID, "Login Succeeded"))
}

func TestRunLoginLockout(t *testing.T) {
	m := store.NewMemory()
	job := seedLoginJob(t, m, structs.LoginPolicy{RequiresLogin: true, Type: structs.LoginPIN, MaxTrials: 2, LockTimeoutMinutes: 5}, "1234")
	svc := newTestService(t, m)
	ctx := context.Background()
	setNow(t, 1000000)

	for i := 0; i < 2; i++ {
		nav, _, err := svc.runLogin(ctx, job, false, "0000")
		assert.Nil(t, err)
		assert.Equal(t, "/login?type=PIN&error=invalidCode", nav.Target)
	}

	// trials exhausted; even the right answer bounces while locked
	nav, token, err := svc.runLogin(ctx, job, false, "1234")
	assert.Nil(t, err)
	assert.Equal(t, "", token)
	assert.Equal(t, "/loginLocked?till=300000", nav.Target)
	assert.True(t, nav.ClearCookie)

	// still locked one second before the window closes
	setNow(t, 1000299)
	nav, _, err = svc.runLogin(ctx, job, false, "1234")
	assert.Nil(t, err)
	assert.Equal(t, "/loginLocked?till=1000", nav.Target)

	// window elapsed; counters reset & the PIN works again
	setNow(t, 1000300)
	nav, token, err = svc.runLogin(ctx, job, false, "1234")
	assert.Nil(t, err)
	assert.Nil(t, nav)
	assert.NotEqual(t, "", token)
	stored, _ := m.Job(ctx, job.ID)
	assert.Equal(t, int64(0), stored.FailedLoginTrials)
}

func TestRunLoginOTP(t *testing.T) {
	m := store.NewMemory()
	job := seedLoginJob(t, m, structs.LoginPolicy{RequiresLogin: true, Type: structs.LoginOTP, MaxTrials: 3, LockTimeoutMinutes: 5}, "")
	svc := newTestService(t, m)
	ctx := context.Background()

	// first visit generates & dispatches a code
	nav, token, err := svc.runLogin(ctx, job, false, "")
	assert.Nil(t, err)
	assert.Equal(t, "", token)
	assert.Equal(t, "/login?type=OTP", nav.Target)

	stored, _ := m.Job(ctx, job.ID)
	assert.Len(t, stored.LoginCode, 4)
	assert.Equal(t, structs.DeliveryOff, stored.LoginCodeNotificationStatus[structs.ChannelEmail])
	assert.True(t, hasAudit(m, job.ID, "Login Code Sent"))

	// the generated code logs in
	nav, token, err = svc.runLogin(ctx, stored, false, stored.LoginCode)
	assert.Nil(t, err)
	assert.Nil(t, nav)
	assert.NotEqual(t, "", token)
}

func TestRunLoginOTPRegeneratedAfterLockout(t *testing.T) {
	m := store.NewMemory()
	job := seedLoginJob(t, m, structs.LoginPolicy{RequiresLogin: true, Type: structs.LoginOTP, MaxTrials: 1, LockTimeoutMinutes: 5}, "1234")
	job.FailedLoginTrials = 1
	job.LastFailedLogin = 1000000
	assert.Nil(t, m.UpdateJob(context.Background(), job))
	svc := newTestService(t, m)
	setNow(t, 1000300)

	nav, _, err := svc.runLogin(context.Background(), job, false, "")

	assert.Nil(t, err)
	assert.Equal(t, "/login?type=OTP", nav.Target)
	stored, _ := m.Job(context.Background(), job.ID)
	assert.Equal(t, int64(0), stored.FailedLoginTrials)
	assert.NotEqual(t, "1234", stored.LoginCode)
	assert.Len(t, stored.LoginCode, 4)
}

func TestRunLoginGoogleNotAvailable(t *testing.T) {
	m := store.NewMemory()
	job := seedLoginJob(t, m, structs.LoginPolicy{RequiresLogin: true, Type: structs.LoginGoogle}, "")
	svc := newTestService(t, m)

	nav, token, err := svc.runLogin(context.Background(), job, false, "")

	assert.Nil(t, err)
	assert.Equal(t, "", token)
	assert.Equal(t, "/login?type=GOOGLE&error=notAvailable", nav.Target)
}

func TestRunLoginUnknownType(t *testing.T) {
	m := store.NewMemory()
	job := seedLoginJob(t, m, structs.LoginPolicy{RequiresLogin: true, Type: "FACE"}, "")
	svc := newTestService(t, m)

	_, _, err := svc.runLogin(context.Background(), job, false, "")

	assert.ErrorIs(t, err, errors.ErrValidation)
}
