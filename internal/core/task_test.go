package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/store"
	"github.com/guidepost/launchpad/pkg/structs"
)

// enterJob creates a job on the seeded workflow and walks the customer in,
// returning the job key, the first task's key and a logged-in session token.
func enterJob(t *testing.T, svc *Service) (jobKey, taskKey, token string) {
	t.Helper()
	ctx := context.Background()

	resp, err := svc.CreateJob(ctx, &structs.CreateJobRequest{
		JobSpec: structs.JobSpec{WorkflowID: "wf-1"},
	})
	assert.Nil(t, err)

	nav, err := svc.StartJob(ctx, &structs.JobVisit{
		JobKey: resp.JobKey, Origin: testPortal, AccessKey: accessKeyOf(resp),
	})
	assert.Nil(t, err)
	assert.Equal(t, structs.NavRedirect, nav.Kind)

	return resp.JobKey, strings.TrimPrefix(nav.Target, testAppURL+"/"), nav.SetToken
}

func TestStartTaskUnknownKey(t *testing.T) {
	svc := newTestService(t, store.NewMemory())

	_, _, err := svc.StartTask(context.Background(), &structs.TaskVisit{TaskKey: "nope"})

	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestStartTaskBadOrigin(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	svc := newTestService(t, m)
	_, taskKey, token := enterJob(t, svc)

	_, _, err := svc.StartTask(context.Background(), &structs.TaskVisit{
		TaskKey: taskKey, Origin: "http://evil.test", SessionToken: token,
	})

	assert.ErrorIs(t, err, errors.ErrForbidden)
}

func TestStartTaskWithoutSessionBouncesToPortal(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	svc := newTestService(t, m)
	jobKey, taskKey, _ := enterJob(t, svc)

	resp, nav, err := svc.StartTask(context.Background(), &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL,
	})

	assert.Nil(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, testPortal+"/"+jobKey, nav.Target)
	assert.True(t, nav.ClearCookie)
}

func TestStartTaskQuotaExhausted(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	svc := newTestService(t, m)
	_, taskKey, token := enterJob(t, svc)

	// quota dries up between task creation & start
	m.SetLicense(&structs.License{ID: "lic-1", Model: structs.PricingQuota, Limit: 1, Used: 1})

	resp, nav, err := svc.StartTask(context.Background(), &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
	})

	assert.Nil(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, structs.NavError, nav.Kind)
	assert.Equal(t, "insufficientLicense", nav.Detail)
}

func TestStartTaskConcurrentModelRefused(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	svc := newTestService(t, m)
	_, taskKey, token := enterJob(t, svc)

	m.SetLicense(&structs.License{ID: "lic-1", Model: structs.PricingConcurrent, Limit: 5})

	_, nav, err := svc.StartTask(context.Background(), &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
	})

	assert.Nil(t, err)
	assert.Equal(t, "licenseModelNotImplemented", nav.Detail)
}

func TestSubmitTaskBeforeStartRefused(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	svc := newTestService(t, m)
	_, taskKey, token := enterJob(t, svc)

	_, err := svc.SubmitTask(context.Background(), &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
		Output: []structs.KV{{Key: "x", Value: "y"}},
	})

	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestStartTaskAfterDoneRefused(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	svc := newTestService(t, m)
	_, taskKey, token := enterJob(t, svc)
	ctx := context.Background()

	_, _, err := svc.StartTask(ctx, &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
	})
	assert.Nil(t, err)
	_, err = svc.SubmitTask(ctx, &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
	})
	assert.Nil(t, err)

	_, _, err = svc.StartTask(ctx, &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
	})

	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestRejectTaskCascades(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	svc := newTestService(t, m)
	jobKey, taskKey, token := enterJob(t, svc)
	ctx := context.Background()

	_, _, err := svc.StartTask(ctx, &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
	})
	assert.Nil(t, err)

	nav, err := svc.RejectTask(ctx, &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
		Reason: "document unreadable",
	})

	assert.Nil(t, err)
	assert.Equal(t, "/rejected", nav.Target)

	task, _ := m.TaskByKey(ctx, taskKey)
	assert.Equal(t, structs.REJECTED, task.Status)
	assert.Equal(t, "document unreadable", task.RejectionReason)

	job, _ := m.JobByKey(ctx, jobKey)
	assert.Equal(t, structs.REJECTED, job.Status)
	assert.NotEqual(t, int64(0), job.RejectedOn)
	assert.True(t, hasAudit(m, job.ID, "Task Rejected"))
	assert.True(t, hasAudit(m, job.ID, "Job Rejected"))

	// the customer coming back lands on the rejected page
	nav, err = svc.StartJob(ctx, &structs.JobVisit{
		JobKey: jobKey, Origin: testPortal, SessionToken: token,
	})
	assert.Nil(t, err)
	assert.Equal(t, "/rejected", nav.Target)
}

// lateCancelStore cancels the job as a flagged Job read goes through,
// standing in for a caller's CancelJob landing between a task guard's
// read and the job lock.
type lateCancelStore struct {
	store.Store
	cancelNext bool
}

func (s *lateCancelStore) Job(ctx context.Context, id string) (*structs.Job, error) {
	if s.cancelNext {
		s.cancelNext = false
		job, err := s.Store.Job(ctx, id)
		if err != nil {
			return nil, err
		}
		job.Status = structs.CANCELED
		if err := s.Store.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
	}
	return s.Store.Job(ctx, id)
}

func TestRejectTaskCanceledUnderfoot(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	st := &lateCancelStore{Store: m}
	svc := newTestService(t, st)
	jobKey, taskKey, token := enterJob(t, svc)
	ctx := context.Background()

	_, _, err := svc.StartTask(ctx, &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
	})
	assert.Nil(t, err)

	st.cancelNext = true
	nav, err := svc.RejectTask(ctx, &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token, Reason: "too late",
	})

	// the reject loses the race and the customer lands on the canceled
	// page; the settled job must not be dragged back out of CANCELED
	assert.Nil(t, err)
	assert.Equal(t, "/canceled", nav.Target)
	assert.True(t, nav.ClearCookie)

	job, _ := m.JobByKey(ctx, jobKey)
	assert.Equal(t, structs.CANCELED, job.Status)
	task, _ := m.TaskByKey(ctx, taskKey)
	assert.Equal(t, structs.STARTED, task.Status)
}

func TestStartTaskCanceledUnderfootConsumesNothing(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	st := &lateCancelStore{Store: m}
	svc := newTestService(t, st)
	_, taskKey, token := enterJob(t, svc)
	ctx := context.Background()

	st.cancelNext = true
	resp, nav, err := svc.StartTask(ctx, &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token,
	})

	assert.Nil(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, "/canceled", nav.Target)

	lic, _ := m.License(ctx, "lic-1")
	assert.Equal(t, int64(0), lic.Used)
}

func TestRejectTaskNotStartedRefused(t *testing.T) {
	m := store.NewMemory()
	seedWorkflow(m, structs.LoginPolicy{})
	svc := newTestService(t, m)
	_, taskKey, token := enterJob(t, svc)

	_, err := svc.RejectTask(context.Background(), &structs.TaskVisit{
		TaskKey: taskKey, Origin: testAppURL, SessionToken: token, Reason: "nope",
	})

	assert.ErrorIs(t, err, errors.ErrConflict)
}
