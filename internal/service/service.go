package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/audit"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/events"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/persistence"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/policy"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
	"github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

// Core bundles collaborators shared by every service.
type Core struct {
	Tx         persistence.TxManager
	Policy     *policy.Policy
	Ledger     *audit.Ledger
	Calendar   temporal.Calendar
	Now        func() time.Time
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

func (c Core) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Core) publish(ctx context.Context, event events.Event) {
	if c.Dispatcher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	c.Dispatcher.Publish(ctx, event)
}

func (c Core) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// mapRepoErr translates repository sentinels into domain errors.
func mapRepoErr(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return errorutil.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrConflict):
		return errorutil.NewConflict(resource+" already exists", nil)
	}
	var de *errorutil.DomainError
	if errors.As(err, &de) {
		return de
	}
	return errorutil.NewInternalError(err)
}

func strPtr(s string) *string { return &s }
