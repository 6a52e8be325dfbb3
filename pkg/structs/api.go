package structs

// CreateJobRequest asks for a new job to be built from a workflow.
type CreateJobRequest struct {
	JobSpec `json:",inline"`
}

// CreateJobResponse is returned to the caller that created the job.
type CreateJobResponse struct {
	// JobKey is the external handle for the new job.
	JobKey string `json:"job_key"`

	// AccessPINCode is set only when the workflow login type is PIN;
	// the caller hands it to the customer out of band.
	AccessPINCode string `json:"access_pin_code,omitempty"`

	// CustomerAccessURL is the link the customer follows into the job.
	CustomerAccessURL string `json:"customer_access_url"`

	// NotificationStatus is the per-channel outcome of the connect message.
	NotificationStatus map[Channel]DeliveryStatus `json:"notification_status,omitempty"`

	// LoginCodeNotificationStatus is the per-channel outcome of the
	// login-code message, when one was dispatched.
	LoginCodeNotificationStatus map[Channel]DeliveryStatus `json:"login_code_notification_status,omitempty"`
}

// CancelJobRequest carries optional caller metadata for the audit trail.
type CancelJobRequest struct {
	Metadata string `json:"metadata,omitempty"`
}

// StartJobRequest is the body of a customer's entry into a job. LoginCode
// is the submitted challenge answer, when the customer is answering one.
type StartJobRequest struct {
	LoginCode string `json:"login_code,omitempty"`
	Metadata  string `json:"metadata,omitempty"`
}

// StartTaskResponse hands the external worker what it needs to run a task.
type StartTaskResponse struct {
	Config []ConfigEntry `json:"config"`
	Input  []KV          `json:"input"`
}

// SubmitTaskRequest carries a finished task's output.
type SubmitTaskRequest struct {
	Output   []KV   `json:"output"`
	Metadata string `json:"metadata,omitempty"`
}

// RejectTaskRequest carries the reason a task could not be completed.
type RejectTaskRequest struct {
	Reason   string `json:"reason,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}
