package common

const (
	// API_JOBS is used by calling systems to create jobs
	API_JOBS = "/api/v1/jobs"

	// API_JOB_CANCEL is used by calling systems to cancel a job
	API_JOB_CANCEL = "/api/v1/jobs/{jobId}/cancel"

	// PAD_START is the customer's entry into a job (session cookie only)
	PAD_START = "/launchpad/{jobKey}/start"

	// PAD_START_KEYED is the customer's first entry, carrying the access
	// key from their link
	PAD_START_KEYED = "/launchpad/{jobKey}/{accessKey}/start"

	// TASK_START hands an application a task's config & input
	TASK_START = "/tasks/{taskKey}/start"

	// TASK_SUBMIT records a task's output
	TASK_SUBMIT = "/tasks/{taskKey}/submit"

	// TASK_REJECT records that a task cannot be completed
	TASK_REJECT = "/tasks/{taskKey}/reject"
)
