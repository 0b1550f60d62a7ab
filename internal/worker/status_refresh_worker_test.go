package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/events"
)

type fakeRefresher struct {
	changed int
	err     error
	calls   int
}

func (f *fakeRefresher) RefreshStatuses(context.Context) (int, error) {
	f.calls++
	return f.changed, f.err
}

func TestRunOncePublishesCounts(t *testing.T) {
	staff := &fakeRefresher{changed: 2}
	docs := &fakeRefresher{changed: 5}
	dispatcher := events.NewInMemoryDispatcher(nil)

	var got []events.Event
	dispatcher.Subscribe(events.EventStatusesRefreshed, func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})

	w := NewStatusRefreshWorker(staff, docs, time.Minute, dispatcher, nil)
	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, events.StatusesRefreshedPayload{StaffChanged: 2, DocumentsChanged: 5}, result)
	require.Len(t, got, 1)
	assert.Equal(t, result, got[0].Payload)
}

func TestRunOnceContinuesAfterStaffFailure(t *testing.T) {
	boom := errors.New("boom")
	staff := &fakeRefresher{err: boom}
	docs := &fakeRefresher{changed: 1}

	w := NewStatusRefreshWorker(staff, docs, 0, nil, nil)
	result, err := w.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, docs.calls)
	assert.Equal(t, 1, result.DocumentsChanged)
}

func TestStartStopsOnCancel(t *testing.T) {
	staff := &fakeRefresher{}
	docs := &fakeRefresher{}
	w := NewStatusRefreshWorker(staff, docs, time.Hour, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 1, staff.calls)
}
