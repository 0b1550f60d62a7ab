// Package memory provides in-process repositories that share one Store. They back tests
// and deployments without a Postgres DSN.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
)

type lockedKey struct{}

// Store holds every table. Transactions run under a single mutex and restore a
// snapshot when the callback fails.
type Store struct {
	mu  sync.Mutex
	now func() time.Time
	seq int64

	staff    map[string]staffRow
	docs     map[string]docRow
	versions map[string]versionRow
	audit    []auditRow
	users    map[string]domain.User
}

type staffRow struct {
	seq int64
	domain.Staff
}

type docRow struct {
	seq int64
	domain.Document
}

type versionRow struct {
	seq int64
	domain.DocumentVersion
}

type auditRow struct {
	seq int64
	domain.AuditLogEntry
}

// NewStore returns an empty store stamping rows with time.Now.
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		staff:    map[string]staffRow{},
		docs:     map[string]docRow{},
		versions: map[string]versionRow{},
		users:    map[string]domain.User{},
	}
}

// WithClock overrides the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// RunInTx implements persistence.TxManager.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if held(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, lockedKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// lock acquires the store mutex unless the context already runs inside RunInTx.
func (s *Store) lock(ctx context.Context) func() {
	if held(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func held(ctx context.Context) bool {
	_, ok := ctx.Value(lockedKey{}).(*Store)
	return ok
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

type snapshot struct {
	seq      int64
	staff    map[string]staffRow
	docs     map[string]docRow
	versions map[string]versionRow
	audit    []auditRow
	users    map[string]domain.User
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		seq:      s.seq,
		staff:    maps.Clone(s.staff),
		docs:     maps.Clone(s.docs),
		versions: maps.Clone(s.versions),
		audit:    append([]auditRow(nil), s.audit...),
		users:    maps.Clone(s.users),
	}
}

func (s *Store) restore(snap snapshot) {
	s.seq = snap.seq
	s.staff = snap.staff
	s.docs = snap.docs
	s.versions = snap.versions
	s.audit = snap.audit
	s.users = snap.users
}
