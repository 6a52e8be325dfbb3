package structs

import (
	"strings"
)

// LoginType is the kind of challenge a customer must pass before they may
// work through a job's tasks.
type LoginType string

const (
	// LoginNone requires no challenge; a session is minted on first entry.
	LoginNone LoginType = "NONE"

	// LoginPIN compares against a code fixed at job creation and handed
	// to the caller out of band.
	LoginPIN LoginType = "PIN"

	// LoginOTP generates a fresh code on demand and dispatches it to the
	// customer over the workflow's login-code channels.
	LoginOTP LoginType = "OTP"

	// LoginGoogle is reserved; attempts redirect to a "not available" page.
	LoginGoogle LoginType = "GOOGLE"
)

func ToLoginType(s string) LoginType {
	switch strings.ToUpper(s) {
	case "NONE":
		return LoginNone
	case "PIN":
		return LoginPIN
	case "OTP":
		return LoginOTP
	case "GOOGLE":
		return LoginGoogle
	default:
		return ""
	}
}

// LoginPolicy is the per-job login & session configuration, copied from the
// workflow when the job is created.
type LoginPolicy struct {
	// RequiresLogin gates the challenge; when false a logged-in session
	// is minted immediately.
	RequiresLogin bool `json:"requires_login"`

	// Type of the challenge run when RequiresLogin is set.
	Type LoginType `json:"type"`

	// MaxTrials is the number of failed attempts before the job locks.
	MaxTrials int64 `json:"max_trials"`

	// LockTimeoutMinutes is how long a locked job rejects all attempts.
	LockTimeoutMinutes int64 `json:"lock_timeout_minutes"`

	// SessionExpiryMinutes bounds the lifetime of a minted session token.
	SessionExpiryMinutes int64 `json:"session_expiry_minutes"`
}

// Customer is the contact block notifications are delivered to.
type Customer struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
	Ref    string `json:"ref"`
}

// KV is a single input / output item passed between tasks.
type KV struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// TaskTodo is one step of a job's ordered task list. Jobs hold these flat
// {order, application, task} triples, never embedded Task objects.
type TaskTodo struct {
	// TaskOrder is the position of this step; steps run ascending.
	TaskOrder int64 `json:"task_order"`

	// ApplicationID is the integration this step invokes.
	ApplicationID string `json:"application_id"`

	// TaskID is set once the step has been materialized into a Task.
	TaskID string `json:"task_id,omitempty"`
}

// JobSpec are fields that can be set when a job is created.
type JobSpec struct {
	// WorkflowID names the template the job is built from.
	//
	// Required.
	WorkflowID string `json:"workflow_id"`

	// ValidForMinutes sets how long the job stays runnable.
	ValidForMinutes int64 `json:"valid_for_minutes"`

	// Customer the job is run for (notification recipient).
	Customer Customer `json:"customer"`

	// Language for customer facing messages ("en" or "ar").
	Language string `json:"language,omitempty"`

	// ExternalRef is an optional caller-side reference number.
	ExternalRef string `json:"external_ref,omitempty"`

	// Metadata is free-form caller data echoed into audit entries.
	Metadata string `json:"metadata,omitempty"`

	// Input handed to the job's first task.
	Input []KV `json:"input,omitempty"`
}

// Job is one customer's run through an ordered sequence of tasks.
type Job struct {
	JobSpec `json:",inline"`

	// ID is a unique identifier for this job.
	ID string `json:"id"`

	// JobKey is the opaque external-facing handle for this job.
	JobKey string `json:"job_key"`

	// Secret is the per-job signing key for sessions & access keys.
	// Never serialized outwards.
	Secret string `json:"-"`

	// Status is the current status of this job.
	Status Status `json:"status"`

	// TasksTodo is the ordered list of steps making up this job.
	TasksTodo []TaskTodo `json:"tasks_todo"`

	// CurrentTaskID / CurrentTaskOrder form the sequencing cursor.
	// CurrentTaskOrder is non-decreasing over the life of the job.
	CurrentTaskID    string `json:"current_task_id,omitempty"`
	CurrentTaskOrder int64  `json:"current_task_order"`

	// Login is the challenge & session policy for this job.
	Login LoginPolicy `json:"login"`

	// LoginCode is the current challenge value (PIN or latest OTP).
	LoginCode string `json:"-"`

	// Lockout bookkeeping. Times are unix seconds, 0 meaning unset.
	FailedLoginTrials   int64 `json:"failed_login_trials"`
	LastFailedLogin     int64 `json:"last_failed_login,omitempty"`
	LastSuccessfulLogin int64 `json:"last_successful_login,omitempty"`

	// Output aggregated from the last task when the job completes.
	Output []KV `json:"output,omitempty"`

	// Delivery bookkeeping per channel for the connect message and the
	// login-code message.
	NotificationStatus          map[Channel]DeliveryStatus `json:"notification_status,omitempty"`
	LoginCodeNotificationStatus map[Channel]DeliveryStatus `json:"login_code_notification_status,omitempty"`

	// ValidUntil is when the job expires, unix time in seconds.
	ValidUntil int64 `json:"valid_until"`

	// Lifecycle timestamps, unix time in seconds.
	CreatedAt   int64 `json:"created_at"`
	UpdatedAt   int64 `json:"updated_at"`
	StartedOn   int64 `json:"started_on,omitempty"`
	CompletedOn int64 `json:"completed_on,omitempty"`
	RejectedOn  int64 `json:"rejected_on,omitempty"`
}

// Todo returns the step with the given order, or nil.
func (j *Job) Todo(order int64) *TaskTodo {
	for i := range j.TasksTodo {
		if j.TasksTodo[i].TaskOrder == order {
			return &j.TasksTodo[i]
		}
	}
	return nil
}
