package structs

// AuditLog is one bookkeeping entry recorded against a job. Entries are
// best-effort; a failure to write one never fails the action it describes.
type AuditLog struct {
	// ID is a unique identifier for this entry.
	ID string `json:"id"`

	// JobID the entry relates to.
	JobID string `json:"job_id"`

	// Action is a short label, eg. "Job Created", "Task Rejected".
	Action string `json:"action"`

	// Description is a human readable account of what happened.
	Description string `json:"description,omitempty"`

	// Metadata echoed from the caller's request, if any.
	Metadata string `json:"metadata,omitempty"`

	// CreatedAt is when the entry was written, unix time in seconds.
	CreatedAt int64 `json:"created_at"`
}
