package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryProviderSuite struct {
	suite.Suite
	store *MemoryProvider
	ctx   context.Context
}

func TestMemoryProviderSuite(t *testing.T) {
	suite.Run(t, new(MemoryProviderSuite))
}

func (s *MemoryProviderSuite) SetupTest() {
	s.store = NewMemoryProvider()
	s.ctx = context.Background()
}

func (s *MemoryProviderSuite) seedTablet(id, name string, active bool) {
	s.Require().NoError(s.store.CreateTablet(s.ctx, Tablet{ID: id, Name: name, IsActive: active}))
}

func (s *MemoryProviderSuite) seedMember(id, name, empID string, active bool) {
	now := time.Now().UTC()
	s.Require().NoError(s.store.CreateMember(s.ctx, Member{
		ID: id, Name: name, EmpID: empID, Pin: "1234",
		IsActive: active, CreatedAt: now, UpdatedAt: now,
	}))
}

// Claim and release

func (s *MemoryProviderSuite) TestClaimFreeTablet() {
	s.seedTablet("t1", "Tablet 1", true)

	at := time.Now()
	s.Require().NoError(s.store.ClaimTablet(s.ctx, "t1", "m1", at))

	tablet, err := s.store.GetTablet(s.ctx, "t1")
	s.Require().NoError(err)
	s.Require().NotNil(tablet.TakenBy)
	s.Equal("m1", *tablet.TakenBy)
	s.Require().NotNil(tablet.TakenAt)
	s.True(tablet.TakenAt.Equal(at.UTC()))
}

func (s *MemoryProviderSuite) TestClaimTakenTablet() {
	s.seedTablet("t1", "Tablet 1", true)
	s.Require().NoError(s.store.ClaimTablet(s.ctx, "t1", "m1", time.Now()))

	err := s.store.ClaimTablet(s.ctx, "t1", "m2", time.Now())
	s.ErrorIs(err, ErrHolderChanged)

	// Holder untouched by the losing claim
	tablet, err := s.store.GetTablet(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal("m1", *tablet.TakenBy)
}

func (s *MemoryProviderSuite) TestClaimInactiveTablet() {
	s.seedTablet("t1", "Tablet 1", false)
	s.ErrorIs(s.store.ClaimTablet(s.ctx, "t1", "m1", time.Now()), ErrHolderChanged)
}

func (s *MemoryProviderSuite) TestReleaseByHolder() {
	s.seedTablet("t1", "Tablet 1", true)
	s.Require().NoError(s.store.ClaimTablet(s.ctx, "t1", "m1", time.Now()))

	s.Require().NoError(s.store.ReleaseTablet(s.ctx, "t1", "m1"))

	tablet, err := s.store.GetTablet(s.ctx, "t1")
	s.Require().NoError(err)
	s.Nil(tablet.TakenBy)
	s.Nil(tablet.TakenAt)
}

func (s *MemoryProviderSuite) TestReleaseWithStaleHolder() {
	s.seedTablet("t1", "Tablet 1", true)
	s.Require().NoError(s.store.ClaimTablet(s.ctx, "t1", "m1", time.Now()))

	s.ErrorIs(s.store.ReleaseTablet(s.ctx, "t1", "m2"), ErrHolderChanged)
}

func (s *MemoryProviderSuite) TestReleaseFreeTablet() {
	s.seedTablet("t1", "Tablet 1", true)
	s.ErrorIs(s.store.ReleaseTablet(s.ctx, "t1", "m1"), ErrHolderChanged)
}

// Listing

func (s *MemoryProviderSuite) TestListTabletsJoinsHolder() {
	s.seedTablet("t1", "Tablet 1", true)
	s.seedTablet("t2", "Tablet 2", true)
	s.seedTablet("t3", "Retired", false)
	s.seedMember("m1", "Alice", "E001", true)
	s.Require().NoError(s.store.ClaimTablet(s.ctx, "t1", "m1", time.Now()))

	tablets, err := s.store.ListTablets(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tablets, 2, "inactive tablets are excluded")

	s.Equal("t1", tablets[0].ID)
	s.Require().NotNil(tablets[0].Holder)
	s.Equal("Alice", tablets[0].Holder.Name)
	s.Nil(tablets[1].Holder)
}

// Member uniqueness

func (s *MemoryProviderSuite) TestDuplicateEmpID() {
	s.seedMember("m1", "Alice", "E001", true)

	err := s.store.CreateMember(s.ctx, Member{ID: "m2", Name: "Bob", EmpID: "E001", Pin: "5678"})
	s.ErrorIs(err, ErrDuplicateEmpID)
}

func (s *MemoryProviderSuite) TestUpdateReleasesOldEmpID() {
	s.seedMember("m1", "Alice", "E001", true)

	member, err := s.store.GetMember(s.ctx, "m1")
	s.Require().NoError(err)
	member.EmpID = "E099"
	s.Require().NoError(s.store.UpdateMember(s.ctx, *member))

	// The old emp id is free again
	s.NoError(s.store.CreateMember(s.ctx, Member{ID: "m2", Name: "Bob", EmpID: "E001", Pin: "5678"}))

	found, err := s.store.GetMemberByEmpID(s.ctx, "E099")
	s.Require().NoError(err)
	s.Equal("m1", found.ID)
}

// Activity log

func (s *MemoryProviderSuite) appendEntry(id, tabletID, memberID, action string, at time.Time) {
	s.Require().NoError(s.store.AppendActivity(s.ctx, ActivityLogEntry{
		ID: id, TabletID: tabletID, MemberID: memberID, Action: action,
		MemberName: "Member " + memberID, TabletName: "Tablet " + tabletID,
		CreatedAt: at,
	}))
}

func (s *MemoryProviderSuite) TestActivityNewestFirst() {
	base := time.Now().UTC()
	s.appendEntry("a1", "t1", "m1", ActionTake, base)
	s.appendEntry("a2", "t1", "m1", ActionReturn, base.Add(time.Minute))
	s.appendEntry("a3", "t2", "m2", ActionTake, base.Add(2*time.Minute))

	entries, err := s.store.ListActivity(s.ctx, ActivityFilter{})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("a3", entries[0].ID)
	s.Equal("a2", entries[1].ID)
	s.Equal("a1", entries[2].ID)
}

func (s *MemoryProviderSuite) TestActivityTieBreakOnTimestamp() {
	at := time.Now().UTC()
	s.appendEntry("a1", "t1", "m1", ActionTake, at)
	s.appendEntry("a2", "t1", "m1", ActionReturn, at)

	entries, err := s.store.ListActivity(s.ctx, ActivityFilter{})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("a2", entries[0].ID)
}

func (s *MemoryProviderSuite) TestActivityFilters() {
	base := time.Now().UTC()
	s.appendEntry("a1", "t1", "m1", ActionTake, base)
	s.appendEntry("a2", "t2", "m1", ActionTake, base.Add(time.Second))
	s.appendEntry("a3", "t1", "m2", ActionTake, base.Add(2*time.Second))

	byTablet, err := s.store.ListActivity(s.ctx, ActivityFilter{TabletID: "t1"})
	s.Require().NoError(err)
	s.Require().Len(byTablet, 2)

	byMember, err := s.store.ListActivity(s.ctx, ActivityFilter{MemberID: "m1"})
	s.Require().NoError(err)
	s.Require().Len(byMember, 2)

	both, err := s.store.ListActivity(s.ctx, ActivityFilter{TabletID: "t1", MemberID: "m2"})
	s.Require().NoError(err)
	s.Require().Len(both, 1)
	s.Equal("a3", both[0].ID)
}

func (s *MemoryProviderSuite) TestActivityLimit() {
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		s.appendEntry(fmt.Sprintf("a%d", i), "t1", "m1", ActionTake, base.Add(time.Duration(i)*time.Second))
	}

	entries, err := s.store.ListActivity(s.ctx, ActivityFilter{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("a4", entries[0].ID)
}
