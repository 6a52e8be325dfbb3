package structs

// JobVisit bundles everything a customer's browser presents when it
// hits the launchpad entry for a job.
type JobVisit struct {
	JobKey       string
	AccessKey    string
	Origin       string
	SessionToken string
	LoginCode    string
	Metadata     string
}

// TaskVisit bundles everything a remote application presents when it
// drives a task through its lifecycle.
type TaskVisit struct {
	TaskKey      string
	Origin       string
	SessionToken string
	Metadata     string

	// set on submit
	Output []KV

	// set on reject
	Reason string
}
