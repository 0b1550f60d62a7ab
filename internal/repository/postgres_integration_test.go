package repository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/persistence"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
)

// These tests need a disposable database: ICU_TEST_POSTGRES_DSN=postgres://... go test ./internal/repository
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("ICU_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ICU_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE audit_logs, document_versions, documents, users, staff CASCADE`)
	require.NoError(t, err)
	return pool
}

type pgFixture struct {
	pool  *pgxpool.Pool
	tx    persistence.TxManager
	staff StaffRepository
	docs  DocumentRepository
	users UserRepository
	audit AuditRepository

	staffRow *domain.Staff
	user     *domain.User
	doc      *domain.Document
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	pool := testPool(t)
	f := &pgFixture{
		pool:  pool,
		tx:    persistence.NewTxManager(pool),
		staff: NewStaffRepository(pool),
		docs:  NewDocumentRepository(pool),
		users: NewUserRepository(pool),
		audit: NewAuditRepository(pool),
	}
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	f.staffRow = &domain.Staff{
		IDNo: "ICU-9001", StaffName: "Nurse Pg", CurrentArea: "ICU A", CurrentPost: "RN",
		Gender: domain.GenderFemale, Birthday: day.AddDate(-30, 0, 0), Nationality: "Saudi",
		JoiningDate: day.AddDate(-2, 0, 0), ContractExpire: day.AddDate(1, 0, 0),
		ContractType: "Full-time", ContractStatus: status.ContractActive,
		MobileNo: "+966500000009", PersonalEmail: "pg@example.com", CareEmail: "pg@hospital.local",
	}
	require.NoError(t, f.staff.Create(ctx, f.staffRow))
	f.user = &domain.User{Email: "pg-admin@icu.local", PasswordHash: "x", Role: domain.RoleAdmin, IsActive: true}
	require.NoError(t, f.users.Create(ctx, f.user))
	f.doc = &domain.Document{StaffID: f.staffRow.ID, DocType: domain.DocTypeDataFlow, VerificationStatus: domain.VerificationPending}
	require.NoError(t, f.docs.Create(ctx, f.doc))
	return f
}

func TestPostgresMalformedIDsAreNotFound(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	_, err := f.staff.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.docs.GetForUpdate(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.users.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	var id string
	err = f.pool.QueryRow(ctx, `SELECT id FROM staff WHERE id = 'abc'::uuid`).Scan(&id)
	assert.ErrorIs(t, mapNoRows(err), ErrNotFound)
}

func TestPostgresVersionsAscendingAndCurrentPointer(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	var last string
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		err := f.tx.RunInTx(ctx, func(ctx context.Context) error {
			doc, err := f.docs.GetForUpdate(ctx, f.doc.ID)
			if err != nil {
				return err
			}
			v := &domain.DocumentVersion{
				FileKey: "staff/" + f.staffRow.ID + "/docs/" + doc.ID + "/" + name, FileName: name,
				MimeType: "application/pdf", SizeBytes: 10, UploadedByID: f.user.ID,
			}
			if err := f.docs.AttachVersion(ctx, doc, v); err != nil {
				return err
			}
			last = v.ID
			return nil
		})
		require.NoError(t, err)
	}

	versions, err := f.docs.ListVersions(ctx, f.doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "a.pdf", versions[0].FileName)
	assert.Equal(t, "c.pdf", versions[2].FileName)

	doc, err := f.docs.GetByID(ctx, f.doc.ID)
	require.NoError(t, err)
	require.NotNil(t, doc.CurrentVersionID)
	assert.Equal(t, last, *doc.CurrentVersionID)
}

func TestPostgresRowLockSerializesWriters(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	locked := make(chan struct{})
	var released atomic.Bool
	var sawRelease atomic.Bool
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_ = f.tx.RunInTx(ctx, func(ctx context.Context) error {
			if _, err := f.docs.GetForUpdate(ctx, f.doc.ID); err != nil {
				close(locked)
				return err
			}
			close(locked)
			time.Sleep(200 * time.Millisecond)
			released.Store(true)
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		<-locked
		_ = f.tx.RunInTx(ctx, func(ctx context.Context) error {
			if _, err := f.docs.GetForUpdate(ctx, f.doc.ID); err != nil {
				return err
			}
			sawRelease.Store(released.Load())
			return nil
		})
	}()
	wg.Wait()
	assert.True(t, sawRelease.Load(), "second locker must wait for the first to commit")
}

func TestPostgresAuditNewestFirst(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	for _, v := range []string{"1", "2", "3"} {
		value := v
		require.NoError(t, f.audit.Append(ctx, &domain.AuditLogEntry{
			ActorUserID: f.user.ID, StaffID: &f.staffRow.ID, Action: domain.ActionStaffUpdateField, NewValue: &value,
		}))
	}
	entries, err := f.audit.Query(ctx, domain.AuditFilter{StaffID: &f.staffRow.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "3", *entries[0].NewValue)
	assert.Equal(t, "2", *entries[1].NewValue)
}

func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("ICU_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ICU_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	store := NewRedisSessionStore(client)

	require.NoError(t, store.Save(ctx, "tok-1", "user-1", time.Minute))
	userID, err := store.Lookup(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	require.NoError(t, store.Delete(ctx, "tok-1"))
	_, err = store.Lookup(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
