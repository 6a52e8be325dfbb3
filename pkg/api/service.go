package api

import (
	"log/slog"

	"github.com/guidepost/launchpad/internal/core"
	"github.com/guidepost/launchpad/pkg/notify"
	"github.com/guidepost/launchpad/pkg/store"
	"github.com/guidepost/launchpad/pkg/structs"
)

func NewAPI(st store.Store, no notify.Notifier, log *slog.Logger, opts *structs.Options) (API, error) {
	return core.NewService(st, no, log, opts)
}
