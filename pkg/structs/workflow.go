package structs

// NotifyPolicy names the channels a workflow sends messages on.
type NotifyPolicy struct {
	// Connect channels carry the customer access URL when a job is created.
	Connect []Channel `json:"connect,omitempty"`

	// LoginCode channels carry PIN / OTP codes.
	LoginCode []Channel `json:"login_code,omitempty"`
}

// WantsConnect says whether the channel is enabled for connect messages.
func (n *NotifyPolicy) WantsConnect(c Channel) bool {
	return containsChannel(n.Connect, c)
}

// WantsLoginCode says whether the channel is enabled for login-code messages.
func (n *NotifyPolicy) WantsLoginCode(c Channel) bool {
	return containsChannel(n.LoginCode, c)
}

func containsChannel(in []Channel, c Channel) bool {
	for _, x := range in {
		if x == c {
			return true
		}
	}
	return false
}

// Workflow is the template a job is created from: its ordered task list
// plus login & notification policy.
type Workflow struct {
	// ID is a unique identifier for this workflow.
	ID string `json:"id"`

	// Name is an optional human readable name.
	Name string `json:"name,omitempty"`

	// Active gates job creation; inactive workflows refuse new jobs.
	Active bool `json:"active"`

	// TasksTodo is the ordered step list jobs copy on creation
	// (TaskID left blank until materialized).
	TasksTodo []TaskTodo `json:"tasks_todo"`

	// Login policy copied onto created jobs.
	Login LoginPolicy `json:"login"`

	// Notify policy for connect & login-code messages.
	Notify NotifyPolicy `json:"notify"`
}

// Application is an external integration invoked by a task, gated by a
// license.
type Application struct {
	// ID is a unique identifier for this application.
	ID string `json:"id"`

	// Name is an optional human readable name.
	Name string `json:"name,omitempty"`

	// Active gates use; tasks cannot be created for inactive applications.
	Active bool `json:"active"`

	// AccessURL is the base of the external entry point tasks redirect to
	// (the task key is appended as a path segment).
	AccessURL string `json:"access_url"`

	// LicenseID is the license metering this application.
	LicenseID string `json:"license_id"`

	// Config handed to tasks created for this application.
	Config []ConfigEntry `json:"config,omitempty"`
}
