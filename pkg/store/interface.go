// Package store is the record-store collaborator: durable storage of
// Job / Task / Workflow / Application / License entities, reached by id or
// by external key.
package store

import (
	"context"

	"github.com/guidepost/launchpad/pkg/structs"
)

// Store is the record store the orchestration core reads & writes through.
//
// Lookups that find nothing return an error wrapping errors.ErrNotFound.
// All calls honour the deadline on the given context; the core passes
// bounded contexts so a slow store surfaces as an error, not a hang.
type Store interface {
	CreateJob(ctx context.Context, j *structs.Job) error
	UpdateJob(ctx context.Context, j *structs.Job) error
	Job(ctx context.Context, id string) (*structs.Job, error)
	JobByKey(ctx context.Context, key string) (*structs.Job, error)

	CreateTask(ctx context.Context, t *structs.Task) error
	UpdateTask(ctx context.Context, t *structs.Task) error
	Task(ctx context.Context, id string) (*structs.Task, error)
	TaskByKey(ctx context.Context, key string) (*structs.Task, error)

	Workflow(ctx context.Context, id string) (*structs.Workflow, error)
	Application(ctx context.Context, id string) (*structs.Application, error)
	License(ctx context.Context, id string) (*structs.License, error)

	// ConsumeLicenseUnit commits one quota unit on the license iff
	// headroom remains; the check & increment are a single atomic
	// operation so two concurrent consumers can never both win the
	// last unit. Returns false (and no error) when quota is exhausted.
	ConsumeLicenseUnit(ctx context.Context, id string) (bool, error)

	// CreateAuditLog records a bookkeeping entry. Best effort.
	CreateAuditLog(ctx context.Context, a *structs.AuditLog) error

	Close() error
}
