package structs

import (
	"strings"
)

type Status string

const (
	// transient states
	NEW     Status = "NEW"
	STARTED Status = "STARTED"

	// end states
	DONE     Status = "DONE"
	REJECTED Status = "REJECTED"
	CANCELED Status = "CANCELED"
	EXPIRED  Status = "EXPIRED"
)

func IsFinalStatus(status Status) bool {
	switch status {
	case DONE, REJECTED, CANCELED, EXPIRED:
		return true
	default:
		return false
	}
}

// CanTransitionJob says whether a job may move from one status to another.
// Jobs walk NEW -> STARTED -> {DONE, REJECTED, CANCELED, EXPIRED}; a job
// still in NEW may also be canceled or expire before it ever starts.
func CanTransitionJob(from, to Status) bool {
	switch from {
	case NEW:
		return to == STARTED || to == CANCELED || to == EXPIRED
	case STARTED:
		return to == DONE || to == REJECTED || to == CANCELED || to == EXPIRED
	default:
		// end states never move again
		return false
	}
}

// CanTransitionTask says whether a task may move from one status to another.
// Tasks walk NEW -> STARTED -> {DONE, REJECTED}.
func CanTransitionTask(from, to Status) bool {
	switch from {
	case NEW:
		return to == STARTED
	case STARTED:
		return to == DONE || to == REJECTED
	default:
		return false
	}
}

func ToStatus(s string) Status {
	switch strings.ToUpper(s) {
	case "NEW":
		return NEW
	case "STARTED":
		return STARTED
	case "DONE":
		return DONE
	case "REJECTED":
		return REJECTED
	case "CANCELED":
		return CANCELED
	case "EXPIRED":
		return EXPIRED
	default:
		return ""
	}
}
