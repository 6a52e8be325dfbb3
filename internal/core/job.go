package core

import (
	"context"
	"fmt"

	"github.com/guidepost/launchpad/internal/utils"
	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/session"
	"github.com/guidepost/launchpad/pkg/structs"
)

// transitionJob moves a job to the given status, refusing moves the
// lifecycle doesn't allow.
func transitionJob(j *structs.Job, to structs.Status) error {
	if !structs.CanTransitionJob(j.Status, to) {
		return fmt.Errorf("%w job %s cannot move %s -> %s", errors.ErrConflict, j.ID, j.Status, to)
	}
	j.Status = to
	j.UpdatedAt = timeNow()
	return nil
}

// CreateJob builds a job from a workflow, notifies the customer and
// returns the handles the caller needs.
func (s *Service) CreateJob(ctx context.Context, req *structs.CreateJobRequest) (*structs.CreateJobResponse, error) {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	if req == nil || req.WorkflowID == "" {
		return nil, fmt.Errorf("%w a workflow id is required", errors.ErrValidation)
	}

	wf, err := s.store.Workflow(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}
	if err := s.precheck(ctx, wf, &req.Customer); err != nil {
		return nil, err
	}

	now := timeNow()
	validFor := req.ValidForMinutes
	if validFor <= 0 {
		validFor = s.opts.DefaultValidForMinutes
	}

	todos := make([]structs.TaskTodo, len(wf.TasksTodo))
	copy(todos, wf.TasksTodo)
	for i := range todos {
		todos[i].TaskID = ""
	}

	job := &structs.Job{
		JobSpec:    req.JobSpec,
		ID:         utils.NewRandomID(),
		JobKey:     utils.NewKey(),
		Secret:     utils.NewKey(),
		Status:     structs.NEW,
		TasksTodo:  todos,
		Login:      wf.Login,
		ValidUntil: now + validFor*60,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if job.Login.RequiresLogin && job.Login.Type == structs.LoginPIN {
		job.LoginCode = session.NewLoginCode()
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("%w creating job: %v", errors.ErrInternal, err)
	}
	s.audit(ctx, job.ID, "Job Created", fmt.Sprintf("workflow %s", wf.ID), req.Metadata)

	accessKey := session.AccessKey(job.Secret, job.JobKey)
	accessURL := fmt.Sprintf("%s/%s/%s", s.opts.PortalURL, job.JobKey, accessKey)

	if msgs := connectMessages(job, &wf.Notify, accessURL); len(msgs) > 0 {
		job.NotificationStatus = s.send(ctx, msgs)
		s.audit(ctx, job.ID, "Connect Message Sent", deliverySummary(job.NotificationStatus), "")
	}
	if loginCodeWanted(wf) {
		if msgs := loginCodeMessages(job, &wf.Notify); len(msgs) > 0 {
			job.LoginCodeNotificationStatus = s.send(ctx, msgs)
			s.audit(ctx, job.ID, "Login Code Sent", deliverySummary(job.LoginCodeNotificationStatus), "")
		}
	}
	if job.NotificationStatus != nil || job.LoginCodeNotificationStatus != nil {
		if err := s.store.UpdateJob(ctx, job); err != nil {
			s.log.Warn("delivery bookkeeping failed", "job", job.ID, "err", err)
		}
	}

	resp := &structs.CreateJobResponse{
		JobKey:                      job.JobKey,
		CustomerAccessURL:           accessURL,
		NotificationStatus:          job.NotificationStatus,
		LoginCodeNotificationStatus: job.LoginCodeNotificationStatus,
	}
	if job.Login.Type == structs.LoginPIN {
		resp.AccessPINCode = job.LoginCode
	}
	return resp, nil
}

func loginCodeWanted(wf *structs.Workflow) bool {
	return wf.Login.RequiresLogin && wf.Login.Type == structs.LoginPIN && len(wf.Notify.LoginCode) > 0
}

// precheck refuses job creation when the workflow cannot possibly be
// walked to completion: inactive or empty workflows, inactive or broken
// applications, dead licenses, missing customer contacts.
func (s *Service) precheck(ctx context.Context, wf *structs.Workflow, cust *structs.Customer) error {
	if !wf.Active {
		return fmt.Errorf("%w workflow %s is not active", errors.ErrPrecondition, wf.ID)
	}
	if len(wf.TasksTodo) == 0 {
		return fmt.Errorf("%w workflow %s has no tasks", errors.ErrPrecondition, wf.ID)
	}
	if wf.Login.RequiresLogin && structs.ToLoginType(string(wf.Login.Type)) == "" {
		return fmt.Errorf("%w workflow %s has unknown login type %q", errors.ErrPrecondition, wf.ID, wf.Login.Type)
	}
	for _, todo := range wf.TasksTodo {
		app, err := s.store.Application(ctx, todo.ApplicationID)
		if err != nil {
			return err
		}
		if !app.Active {
			return fmt.Errorf("%w application %s is not active", errors.ErrPrecondition, app.ID)
		}
		if app.AccessURL == "" {
			return fmt.Errorf("%w application %s has no access url", errors.ErrPrecondition, app.ID)
		}
		lic, err := s.store.License(ctx, app.LicenseID)
		if err != nil {
			return err
		}
		if err := s.checkLicense(lic); err != nil && !errors.Is(err, errors.ErrNotImplemented) {
			return err
		}
	}
	for _, ch := range []structs.Channel{structs.ChannelEmail, structs.ChannelSMS, structs.ChannelWhatsApp} {
		if !wf.Notify.WantsConnect(ch) && !wf.Notify.WantsLoginCode(ch) {
			continue
		}
		if recipient(cust, ch) == "" {
			return fmt.Errorf("%w customer has no contact for channel %s", errors.ErrPrecondition, ch)
		}
	}
	return nil
}

// CancelJob cancels a job on behalf of the calling system.
func (s *Service) CancelJob(ctx context.Context, jobID, metadata string) error {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	unlock := s.jobLocks.Lock(jobID)
	defer unlock()

	job, err := s.store.Job(ctx, jobID)
	if err != nil {
		return err
	}
	switch job.Status {
	case structs.DONE:
		return fmt.Errorf("%w job %s is already done", errors.ErrConflict, jobID)
	case structs.REJECTED:
		return fmt.Errorf("%w job %s is already rejected", errors.ErrConflict, jobID)
	case structs.EXPIRED:
		return fmt.Errorf("%w job %s is already expired", errors.ErrConflict, jobID)
	case structs.CANCELED:
		return fmt.Errorf("%w job %s is already canceled", errors.ErrConflict, jobID)
	}
	if err := transitionJob(job, structs.CANCELED); err != nil {
		return err
	}
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("%w canceling job %s: %v", errors.ErrInternal, jobID, err)
	}
	s.audit(ctx, job.ID, "Job Canceled", "canceled by caller", metadata)
	return nil
}

// StartJob is the customer's entry into a job: origin & session checks,
// the login challenge, resume-or-advance sequencing. It always answers
// with a Navigation unless the visit itself is invalid.
func (s *Service) StartJob(ctx context.Context, visit *structs.JobVisit) (*structs.Navigation, error) {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	if visit == nil || visit.JobKey == "" {
		return nil, fmt.Errorf("%w a job key is required", errors.ErrValidation)
	}
	if !s.validOrigin(visit.Origin) {
		return nil, fmt.Errorf("%w visit origin %q not allowed", errors.ErrForbidden, visit.Origin)
	}

	job, err := s.store.JobByKey(ctx, visit.JobKey)
	if err != nil {
		return nil, err
	}

	// serialize on the job id & re-read, in case another visit moved the
	// job between the lookup and the lock
	unlock := s.jobLocks.Lock(job.ID)
	defer unlock()
	job, err = s.store.Job(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	if nav := navForStatus(job.Status); nav != nil {
		return nav, nil
	}
	if nav, err := s.expireIfDue(ctx, job); nav != nil || err != nil {
		return nav, err
	}

	loggedIn, err := s.authenticate(job, visit)
	if err != nil {
		return nil, err
	}
	nav, token, err := s.runLogin(ctx, job, loggedIn, visit.LoginCode)
	if err != nil {
		return nil, err
	}
	if nav != nil {
		return nav, nil
	}

	nav, err = s.resumeOrAdvance(ctx, job, visit.Metadata)
	if err != nil {
		return nil, err
	}
	if token != "" {
		nav.SetToken = token
		nav.TokenTTL = s.sessionExpiry(job)
	}
	return nav, nil
}

// navForStatus maps a finished job onto its landing page. Running jobs
// return nil.
func navForStatus(st structs.Status) *structs.Navigation {
	var nav *structs.Navigation
	switch st {
	case structs.DONE:
		nav = structs.Done()
	case structs.REJECTED:
		nav = structs.Redirect("/rejected")
	case structs.CANCELED:
		nav = structs.Redirect("/canceled")
	case structs.EXPIRED:
		nav = structs.Redirect("/expired")
	default:
		return nil
	}
	nav.ClearCookie = true
	return nav
}

// expireIfDue lapses a job whose valid-until has passed. Returns the
// expired landing page when it fires.
func (s *Service) expireIfDue(ctx context.Context, job *structs.Job) (*structs.Navigation, error) {
	if job.ValidUntil <= 0 || timeNow() <= job.ValidUntil {
		return nil, nil
	}
	if err := transitionJob(job, structs.EXPIRED); err != nil {
		return nil, err
	}
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("%w expiring job %s: %v", errors.ErrInternal, job.ID, err)
	}
	s.audit(ctx, job.ID, "Job Expired", fmt.Sprintf("valid until %d", job.ValidUntil), "")
	return navForStatus(structs.EXPIRED), nil
}

// resumeOrAdvance sends the customer back to an unfinished current task,
// cascades a rejected one, or advances the sequence.
func (s *Service) resumeOrAdvance(ctx context.Context, job *structs.Job, metadata string) (*structs.Navigation, error) {
	if job.CurrentTaskID != "" {
		task, err := s.store.Task(ctx, job.CurrentTaskID)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case structs.NEW, structs.STARTED:
			app, err := s.store.Application(ctx, task.ApplicationID)
			if err != nil {
				return nil, err
			}
			return structs.Redirect(taskURL(app, task)), nil
		case structs.REJECTED:
			return s.rejectJob(ctx, job, task.RejectionReason)
		}
		// DONE falls through to the next step
	}
	return s.advance(ctx, job, metadata)
}

// rejectJob cascades a task rejection up to its job.
func (s *Service) rejectJob(ctx context.Context, job *structs.Job, reason string) (*structs.Navigation, error) {
	if job.Status == structs.REJECTED {
		return navForStatus(structs.REJECTED), nil
	}
	if err := transitionJob(job, structs.REJECTED); err != nil {
		return nil, err
	}
	job.RejectedOn = timeNow()
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("%w rejecting job %s: %v", errors.ErrInternal, job.ID, err)
	}
	s.audit(ctx, job.ID, "Job Rejected", reason, "")
	return navForStatus(structs.REJECTED), nil
}

// advance moves the job forward one step: starts it if fresh, completes
// it when nothing is left, otherwise materializes the next task and
// points the customer at its application.
func (s *Service) advance(ctx context.Context, job *structs.Job, metadata string) (*structs.Navigation, error) {
	now := timeNow()
	if job.Status == structs.NEW {
		if err := transitionJob(job, structs.STARTED); err != nil {
			return nil, err
		}
		job.StartedOn = now
		if err := s.store.UpdateJob(ctx, job); err != nil {
			return nil, fmt.Errorf("%w starting job %s: %v", errors.ErrInternal, job.ID, err)
		}
		s.audit(ctx, job.ID, "Job Started", "", metadata)
	}

	next := nextTodo(job.TasksTodo, job.CurrentTaskOrder)
	if next == nil {
		return s.completeJob(ctx, job)
	}

	app, err := s.store.Application(ctx, next.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !app.Active {
		s.audit(ctx, job.ID, "Job Error", fmt.Sprintf("application %s is not active", app.ID), "")
		return structs.ErrorNav("applicationNotActive"), nil
	}
	if app.AccessURL == "" {
		s.audit(ctx, job.ID, "Job Error", fmt.Sprintf("application %s has no access url", app.ID), "")
		return structs.ErrorNav("invalidApplicationURL"), nil
	}

	lic, err := s.store.License(ctx, app.LicenseID)
	if err != nil {
		return nil, err
	}
	if err := s.checkLicense(lic); err != nil {
		s.audit(ctx, job.ID, "Job Error", err.Error(), "")
		if errors.Is(err, errors.ErrNotImplemented) {
			return structs.ErrorNav("licenseModelNotImplemented"), nil
		}
		return structs.ErrorNav("insufficientLicense"), nil
	}

	input, err := s.nextInput(ctx, job)
	if err != nil {
		return nil, err
	}
	task, err := s.createTask(ctx, job, app, input)
	if err != nil {
		return nil, err
	}

	if todo := job.Todo(next.TaskOrder); todo != nil {
		todo.TaskID = task.ID
	}
	job.CurrentTaskID = task.ID
	job.CurrentTaskOrder = next.TaskOrder
	job.UpdatedAt = now
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("%w advancing job %s: %v", errors.ErrInternal, job.ID, err)
	}
	s.audit(ctx, job.ID, "Task Created", fmt.Sprintf("task %s for application %s", task.ID, app.ID), metadata)

	return structs.Redirect(taskURL(app, task)), nil
}

// nextInput resolves what the job's next task receives: the job's own
// input when nothing ran yet, otherwise the previous task's output.
func (s *Service) nextInput(ctx context.Context, job *structs.Job) ([]structs.KV, error) {
	if job.CurrentTaskID == "" {
		return job.Input, nil
	}
	prev, err := s.store.Task(ctx, job.CurrentTaskID)
	if err != nil {
		return nil, err
	}
	return prev.Output, nil
}

// completeJob finishes a job whose last task is done, aggregating that
// task's output onto the job.
func (s *Service) completeJob(ctx context.Context, job *structs.Job) (*structs.Navigation, error) {
	if job.CurrentTaskID != "" {
		last, err := s.store.Task(ctx, job.CurrentTaskID)
		if err != nil {
			return nil, err
		}
		job.Output = last.Output
	}
	if err := transitionJob(job, structs.DONE); err != nil {
		return nil, err
	}
	job.CompletedOn = timeNow()
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("%w completing job %s: %v", errors.ErrInternal, job.ID, err)
	}
	s.audit(ctx, job.ID, "Job Done", "", "")
	return navForStatus(structs.DONE), nil
}

func taskURL(app *structs.Application, task *structs.Task) string {
	return fmt.Sprintf("%s/%s", app.AccessURL, task.TaskKey)
}
