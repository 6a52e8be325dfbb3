package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guidepost/launchpad/internal/utils"
	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/notify"
	"github.com/guidepost/launchpad/pkg/store"
	"github.com/guidepost/launchpad/pkg/structs"
)

const (
	defValidForMinutes      = 60 * 24
	defSessionExpiryMinutes = 60
	defCallTimeout          = 10 * time.Second
)

// timeNow is swapped out in tests.
var timeNow = func() int64 { return time.Now().Unix() }

// Service walks customers through the tasks of their jobs. It owns the
// job & task state machines and the guards in front of them; everything
// transport shaped lives a layer up.
type Service struct {
	store    store.Store
	notifier notify.Notifier
	log      *slog.Logger
	opts     *structs.Options

	// serializes mutations per job & per license
	jobLocks     *utils.KeyedMutex
	licenseLocks *utils.KeyedMutex
}

func NewService(st store.Store, no notify.Notifier, log *slog.Logger, opts *structs.Options) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("%w a record store is required", errors.ErrValidation)
	}
	if opts == nil {
		opts = &structs.Options{}
	}
	if opts.DefaultValidForMinutes <= 0 {
		opts.DefaultValidForMinutes = defValidForMinutes
	}
	if opts.DefaultSessionExpiryMinutes <= 0 {
		opts.DefaultSessionExpiryMinutes = defSessionExpiryMinutes
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defCallTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	if no == nil {
		no = notify.NewLog(log)
	}
	return &Service{
		store:        st,
		notifier:     no,
		log:          log,
		opts:         opts,
		jobLocks:     utils.NewKeyedMutex(),
		licenseLocks: utils.NewKeyedMutex(),
	}, nil
}

func (s *Service) Close() error {
	if s.notifier != nil {
		s.notifier.Close()
	}
	s.store.Close()
	return nil
}

// boundCtx caps how long a single operation may spend on collaborators.
func (s *Service) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.CallTimeout)
}

// audit records a job history entry. Failures are logged, never fatal;
// losing a history line must not fail the transition it describes.
func (s *Service) audit(ctx context.Context, jobID, action, description, metadata string) {
	err := s.store.CreateAuditLog(ctx, &structs.AuditLog{
		ID:          utils.NewRandomID(),
		JobID:       jobID,
		Action:      action,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   timeNow(),
	})
	if err != nil {
		s.log.Warn("audit write failed", "job", jobID, "action", action, "err", err)
	}
}

func (s *Service) sessionExpiry(job *structs.Job) time.Duration {
	mins := job.Login.SessionExpiryMinutes
	if mins <= 0 {
		mins = s.opts.DefaultSessionExpiryMinutes
	}
	return time.Duration(mins) * time.Minute
}
