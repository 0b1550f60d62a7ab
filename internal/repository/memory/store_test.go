package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
)

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
	staff repository.StaffRepository
	docs  repository.DocumentRepository
	audit repository.AuditRepository
	users repository.UserRepository
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewStore()
	s.staff = NewStaffRepository(s.store)
	s.docs = NewDocumentRepository(s.store)
	s.audit = NewAuditRepository(s.store)
	s.users = NewUserRepository(s.store)
}

func (s *StoreSuite) newStaff(idNo, name string) *domain.Staff {
	st := &domain.Staff{IDNo: idNo, StaffName: name, CurrentArea: "ICU-A", ContractStatus: status.ContractActive}
	s.Require().NoError(s.staff.Create(s.ctx, st))
	return st
}

func (s *StoreSuite) TestStaffUniqueIDNo() {
	s.newStaff("100", "Amal")
	err := s.staff.Create(s.ctx, &domain.Staff{IDNo: "100", StaffName: "Dup"})
	s.ErrorIs(err, repository.ErrConflict)
}

func (s *StoreSuite) TestStaffListFiltersAndOrder() {
	a := s.newStaff("1", "Amal")
	s.newStaff("2", "Badr")
	c := s.newStaff("3", "Carla")
	c.CurrentArea = "ICU-B"
	s.Require().NoError(s.staff.Update(s.ctx, c))

	all, total, err := s.staff.List(s.ctx, repository.StaffFilter{})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Equal(c.ID, all[0].ID, "most recently updated first")

	byArea, total, err := s.staff.List(s.ctx, repository.StaffFilter{Area: "ICU-A"})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(byArea, 2)

	byName, _, err := s.staff.List(s.ctx, repository.StaffFilter{Query: "ama"})
	s.Require().NoError(err)
	s.Require().Len(byName, 1)
	s.Equal(a.ID, byName[0].ID)

	page, total, err := s.staff.List(s.ctx, repository.StaffFilter{Limit: 1, Offset: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(page, 1)

	sorted, err := s.staff.ListAllByName(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Amal", "Badr", "Carla"}, []string{sorted[0].StaffName, sorted[1].StaffName, sorted[2].StaffName})
}

func (s *StoreSuite) TestRunInTxRollsBackOnError() {
	st := s.newStaff("9", "Dana")
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		st.StaffName = "Changed"
		s.Require().NoError(s.staff.Update(ctx, st))
		s.Require().NoError(s.audit.Append(ctx, &domain.AuditLogEntry{ActorUserID: "u", Action: domain.ActionStaffUpdateField}))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.staff.GetByID(s.ctx, st.ID)
	s.Require().NoError(err)
	s.Equal("Dana", got.StaffName)

	entries, err := s.audit.Query(s.ctx, domain.AuditFilter{Limit: 200})
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *StoreSuite) TestAttachVersionMovesPointer() {
	st := s.newStaff("5", "Eman")
	doc := &domain.Document{StaffID: st.ID, DocType: domain.DocTypeBLS, VerificationStatus: domain.VerificationApproved}
	s.Require().NoError(s.docs.Create(s.ctx, doc))

	v1 := &domain.DocumentVersion{FileKey: "k1", FileName: "a.pdf", MimeType: "application/pdf", SizeBytes: 3, UploadedByID: "u"}
	s.Require().NoError(s.docs.AttachVersion(s.ctx, doc, v1))
	v2 := &domain.DocumentVersion{FileKey: "k2", FileName: "b.pdf", MimeType: "application/pdf", SizeBytes: 4, UploadedByID: "u"}
	s.Require().NoError(s.docs.AttachVersion(s.ctx, doc, v2))

	s.ErrorIs(s.docs.AttachVersion(s.ctx, doc, &domain.DocumentVersion{FileKey: "k1"}), repository.ErrConflict)

	got, err := s.docs.GetByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.CurrentVersionID)
	s.Equal(v2.ID, *got.CurrentVersionID)

	versions, err := s.docs.ListVersions(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(versions, 2)
	s.Equal("k1", versions[0].FileKey)
	s.Equal("k2", versions[1].FileKey)

	exists, err := s.docs.FileKeyExists(s.ctx, "k2")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StoreSuite) TestAuditQueryNewestFirstWithFilters() {
	staffA, staffB := "a", "b"
	for i := 0; i < 5; i++ {
		sid := staffA
		if i%2 == 1 {
			sid = staffB
		}
		field := string(rune('a' + i))
		s.Require().NoError(s.audit.Append(s.ctx, &domain.AuditLogEntry{
			ActorUserID: "u", StaffID: &sid, Action: domain.ActionStaffUpdateField, Field: &field,
		}))
	}

	all, err := s.audit.Query(s.ctx, domain.AuditFilter{Limit: 200})
	s.Require().NoError(err)
	s.Require().Len(all, 5)
	s.Equal("e", *all[0].Field)
	s.Equal("a", *all[4].Field)

	onlyA, err := s.audit.Query(s.ctx, domain.AuditFilter{StaffID: &staffA, Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(onlyA, 2)
	s.Equal("e", *onlyA[0].Field)
	s.Equal("c", *onlyA[1].Field)
}

func (s *StoreSuite) TestUserEmailUniqueCaseInsensitive() {
	s.Require().NoError(s.users.Create(s.ctx, &domain.User{Email: "Nurse@icu.test", Role: domain.RoleStaff}))
	s.ErrorIs(s.users.Create(s.ctx, &domain.User{Email: "nurse@ICU.test"}), repository.ErrConflict)

	got, err := s.users.GetByEmail(s.ctx, "NURSE@icu.test")
	s.Require().NoError(err)
	s.Equal("nurse@icu.test", got.Email)
}

func TestSessionStoreExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewSessionStore(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti", "user-1", time.Hour))
	got, err := store.Lookup(ctx, "jti")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got)

	now = now.Add(2 * time.Hour)
	_, err = store.Lookup(ctx, "jti")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "jti"))
}
