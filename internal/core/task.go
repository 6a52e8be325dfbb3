package core

import (
	"context"
	"fmt"
	"time"

	"github.com/guidepost/launchpad/internal/utils"
	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/session"
	"github.com/guidepost/launchpad/pkg/structs"
)

// transitionTask moves a task to the given status, refusing moves the
// lifecycle doesn't allow.
func transitionTask(t *structs.Task, to structs.Status) error {
	if !structs.CanTransitionTask(t.Status, to) {
		return fmt.Errorf("%w task %s cannot move %s -> %s", errors.ErrConflict, t.ID, t.Status, to)
	}
	t.Status = to
	t.UpdatedAt = timeNow()
	return nil
}

// createTask materializes one step of a job against an application.
func (s *Service) createTask(ctx context.Context, job *structs.Job, app *structs.Application, input []structs.KV) (*structs.Task, error) {
	now := timeNow()
	task := &structs.Task{
		TaskSpec: structs.TaskSpec{
			JobID:         job.ID,
			ApplicationID: app.ID,
			Input:         input,
			Config:        app.Config,
		},
		ID:        utils.NewRandomID(),
		TaskKey:   utils.NewKey(),
		Status:    structs.NEW,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("%w creating task for job %s: %v", errors.ErrInternal, job.ID, err)
	}
	return task, nil
}

// taskGuard runs the lock-free checks common to every task operation:
// the task exists, the visit came from the task's application, and the
// session is logged in. Returns a Navigation when the customer must go
// elsewhere instead. Job state gates run under the job lock, see
// recheckJob.
func (s *Service) taskGuard(ctx context.Context, visit *structs.TaskVisit) (*structs.Task, *structs.Application, *structs.Job, *structs.Navigation, error) {
	if visit == nil || visit.TaskKey == "" {
		return nil, nil, nil, nil, fmt.Errorf("%w a task key is required", errors.ErrValidation)
	}

	task, err := s.store.TaskByKey(ctx, visit.TaskKey)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	app, err := s.store.Application(ctx, task.ApplicationID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if !appOrigin(visit.Origin, app) {
		return nil, nil, nil, nil, fmt.Errorf("%w visit origin %q not allowed for task %s", errors.ErrForbidden, visit.Origin, task.TaskKey)
	}

	job, err := s.store.Job(ctx, task.JobID)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	// task work rides the launchpad session; a missing or logged-out one
	// sends the customer back to the portal to (re)enter the job
	claims, ok := session.Verify(visit.SessionToken, job.Secret, job.JobKey, time.Unix(timeNow(), 0))
	if !ok || (job.Login.RequiresLogin && !claims.LoggedIn) {
		nav := structs.Redirect(fmt.Sprintf("%s/%s", s.opts.PortalURL, job.JobKey))
		nav.ClearCookie = true
		return nil, nil, nil, nav, nil
	}
	return task, app, job, nil, nil
}

// recheckJob re-reads a job once its lock is held and runs the status &
// expiry gates on the fresh copy. The guard's read happens before the
// lock, so another visit may have moved the job in between; mutating on
// the stale copy could drag a settled job out of its terminal state.
func (s *Service) recheckJob(ctx context.Context, jobID string) (*structs.Job, *structs.Navigation, error) {
	job, err := s.store.Job(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if nav := navForStatus(job.Status); nav != nil {
		return nil, nav, nil
	}
	if nav, err := s.expireIfDue(ctx, job); nav != nil || err != nil {
		return nil, nav, err
	}
	return job, nil, nil
}

// StartTask hands the external worker a task's config & input, consuming
// one license unit the first time. Re-starting an already running task is
// idempotent and consumes nothing.
func (s *Service) StartTask(ctx context.Context, visit *structs.TaskVisit) (*structs.StartTaskResponse, *structs.Navigation, error) {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	task, app, job, nav, err := s.taskGuard(ctx, visit)
	if nav != nil || err != nil {
		return nil, nav, err
	}

	unlock := s.jobLocks.Lock(job.ID)
	defer unlock()
	job, nav, err = s.recheckJob(ctx, job.ID)
	if nav != nil || err != nil {
		return nil, nav, err
	}
	task, err = s.store.Task(ctx, task.ID)
	if err != nil {
		return nil, nil, err
	}

	switch task.Status {
	case structs.NEW:
		if err := s.consumeLicense(ctx, app.LicenseID); err != nil {
			s.audit(ctx, job.ID, "Task Error", err.Error(), "")
			if errors.Is(err, errors.ErrNotImplemented) {
				return nil, structs.ErrorNav("licenseModelNotImplemented"), nil
			}
			if errors.Is(err, errors.ErrForbidden) {
				return nil, structs.ErrorNav("insufficientLicense"), nil
			}
			return nil, nil, err
		}
		if err := transitionTask(task, structs.STARTED); err != nil {
			return nil, nil, err
		}
		task.StartedOn = timeNow()
		if err := s.store.UpdateTask(ctx, task); err != nil {
			return nil, nil, fmt.Errorf("%w starting task %s: %v", errors.ErrInternal, task.ID, err)
		}
		s.audit(ctx, job.ID, "Task Started", fmt.Sprintf("task %s", task.ID), visit.Metadata)
	case structs.STARTED:
		// retry after a dropped response; already paid for
	default:
		return nil, nil, fmt.Errorf("%w task %s has invalid status %s", errors.ErrConflict, task.ID, task.Status)
	}

	return &structs.StartTaskResponse{Config: task.Config, Input: task.Input}, nil, nil
}

// SubmitTask records a running task's output and marks it done. The
// customer is sent back to the portal to pick up the next step.
func (s *Service) SubmitTask(ctx context.Context, visit *structs.TaskVisit) (*structs.Navigation, error) {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	task, _, job, nav, err := s.taskGuard(ctx, visit)
	if nav != nil || err != nil {
		return nav, err
	}

	unlock := s.jobLocks.Lock(job.ID)
	defer unlock()
	job, nav, err = s.recheckJob(ctx, job.ID)
	if nav != nil || err != nil {
		return nav, err
	}
	task, err = s.store.Task(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	if task.Status != structs.STARTED {
		return nil, fmt.Errorf("%w task %s has invalid status %s", errors.ErrConflict, task.ID, task.Status)
	}
	if err := transitionTask(task, structs.DONE); err != nil {
		return nil, err
	}
	task.Output = visit.Output
	task.CompletedOn = timeNow()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("%w submitting task %s: %v", errors.ErrInternal, task.ID, err)
	}
	s.audit(ctx, job.ID, "Task Done", fmt.Sprintf("task %s", task.ID), visit.Metadata)

	return structs.Redirect(fmt.Sprintf("%s/%s", s.opts.PortalURL, job.JobKey)), nil
}

// RejectTask marks a running task rejected and cascades the rejection to
// its job.
func (s *Service) RejectTask(ctx context.Context, visit *structs.TaskVisit) (*structs.Navigation, error) {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	task, _, job, nav, err := s.taskGuard(ctx, visit)
	if nav != nil || err != nil {
		return nav, err
	}

	unlock := s.jobLocks.Lock(job.ID)
	defer unlock()
	job, nav, err = s.recheckJob(ctx, job.ID)
	if nav != nil || err != nil {
		return nav, err
	}
	task, err = s.store.Task(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	if task.Status != structs.STARTED {
		return nil, fmt.Errorf("%w task %s has invalid status %s", errors.ErrConflict, task.ID, task.Status)
	}
	if err := transitionTask(task, structs.REJECTED); err != nil {
		return nil, err
	}
	task.RejectionReason = visit.Reason
	task.RejectedOn = timeNow()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("%w rejecting task %s: %v", errors.ErrInternal, task.ID, err)
	}
	s.audit(ctx, job.ID, "Task Rejected", fmt.Sprintf("task %s: %s", task.ID, visit.Reason), visit.Metadata)

	return s.rejectJob(ctx, job, visit.Reason)
}
