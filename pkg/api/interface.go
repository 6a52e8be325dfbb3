package api

import (
	"context"

	"github.com/guidepost/launchpad/pkg/structs"
)

// API represents the functions launchpad servers should expose.
type API interface {
	// Implemented in launchpad/internal/core.Service

	// caller-facing
	CreateJob(ctx context.Context, req *structs.CreateJobRequest) (*structs.CreateJobResponse, error)
	CancelJob(ctx context.Context, jobID, metadata string) error

	// customer-facing
	StartJob(ctx context.Context, visit *structs.JobVisit) (*structs.Navigation, error)

	// application-facing
	StartTask(ctx context.Context, visit *structs.TaskVisit) (*structs.StartTaskResponse, *structs.Navigation, error)
	SubmitTask(ctx context.Context, visit *structs.TaskVisit) (*structs.Navigation, error)
	RejectTask(ctx context.Context, visit *structs.TaskVisit) (*structs.Navigation, error)

	Close() error
}

type Server interface {
	ServeForever(api API) error
	Close() error
}
