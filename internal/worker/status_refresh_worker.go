package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/events"
)

// Refresher recomputes persisted derived status and reports how many rows changed.
type Refresher interface {
	RefreshStatuses(ctx context.Context) (int, error)
}

// StatusRefreshWorker periodically rewrites contract and document status so that
// database filters agree with the dates.
type StatusRefreshWorker struct {
	staff      Refresher
	documents  Refresher
	interval   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewStatusRefreshWorker builds the worker. A non-positive interval defaults to one hour.
func NewStatusRefreshWorker(staff, documents Refresher, interval time.Duration, dispatcher events.Dispatcher, logger *zap.Logger) *StatusRefreshWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if dispatcher == nil {
		dispatcher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusRefreshWorker{
		staff:      staff,
		documents:  documents,
		interval:   interval,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RunOnce refreshes staff then documents. A failure in one does not skip the other.
func (w *StatusRefreshWorker) RunOnce(ctx context.Context) (events.StatusesRefreshedPayload, error) {
	var result events.StatusesRefreshedPayload
	staffChanged, staffErr := w.staff.RefreshStatuses(ctx)
	result.StaffChanged = staffChanged
	docsChanged, docsErr := w.documents.RefreshStatuses(ctx)
	result.DocumentsChanged = docsChanged

	w.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventStatusesRefreshed,
		Timestamp: time.Now(),
		Payload:   result,
	})
	return result, errors.Join(staffErr, docsErr)
}

// Start runs a refresh immediately and then on every tick until ctx is cancelled.
func (w *StatusRefreshWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("status refresh worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *StatusRefreshWorker) tick(ctx context.Context) {
	result, err := w.RunOnce(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Warn("status refresh failed", zap.Error(err))
	}
	w.logger.Info("status refresh complete",
		zap.Int("staff_changed", result.StaffChanged),
		zap.Int("documents_changed", result.DocumentsChanged))
}
