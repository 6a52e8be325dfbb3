package structs

// ConfigEntry is one resolved configuration item handed to the external
// worker that runs a task.
type ConfigEntry struct {
	Key         string `json:"key"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// TaskSpec are fields that can be set when a task is created.
type TaskSpec struct {
	// JobID is the job this task belongs to.
	//
	// Required.
	JobID string `json:"job_id"`

	// ApplicationID is the integration this task invokes.
	//
	// Required.
	ApplicationID string `json:"application_id"`

	// Input for the task; the first task of a job takes the job's input,
	// each later task takes the previous task's output.
	Input []KV `json:"input,omitempty"`

	// Config resolved from the application at create time.
	Config []ConfigEntry `json:"config,omitempty"`
}

// Task represents a single step of a job, bound to one application.
type Task struct {
	TaskSpec `json:",inline"`

	// ID is a unique identifier for this task.
	ID string `json:"id"`

	// TaskKey is the opaque external-facing handle for this task.
	TaskKey string `json:"task_key"`

	// Status is the current status of this task.
	Status Status `json:"status"`

	// Output submitted by the external worker on completion.
	Output []KV `json:"output,omitempty"`

	// RejectionReason is set when the task is rejected.
	RejectionReason string `json:"rejection_reason,omitempty"`

	// Lifecycle timestamps, unix time in seconds.
	CreatedAt   int64 `json:"created_at"`
	UpdatedAt   int64 `json:"updated_at"`
	StartedOn   int64 `json:"started_on,omitempty"`
	CompletedOn int64 `json:"completed_on,omitempty"`
	RejectedOn  int64 `json:"rejected_on,omitempty"`
}
