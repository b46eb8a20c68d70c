package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryProvider is an in-memory Provider used by tests. The mutex gives the
// conditional holder updates the same atomicity the SQL statements provide.
type MemoryProvider struct {
	mu sync.RWMutex

	tablets    map[string]*Tablet
	members    map[string]*Member
	empIDIndex map[string]string // emp_id -> member id
	activity   []ActivityLogEntry
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		tablets:    make(map[string]*Tablet),
		members:    make(map[string]*Member),
		empIDIndex: make(map[string]string),
	}
}

var _ Provider = (*MemoryProvider)(nil)

func (m *MemoryProvider) Close() error { return nil }

func (m *MemoryProvider) GetSchemaVersion(ctx context.Context) (int, error) { return 1, nil }

// Tablet methods

func (m *MemoryProvider) GetTablet(ctx context.Context, id string) (*Tablet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tablet, ok := m.tablets[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tablet
	return &copied, nil
}

func (m *MemoryProvider) ListTablets(ctx context.Context) ([]TabletWithHolder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tablets []TabletWithHolder
	for _, tablet := range m.tablets {
		if !tablet.IsActive {
			continue
		}
		t := TabletWithHolder{Tablet: *tablet}
		if tablet.TakenBy != nil {
			if member, ok := m.members[*tablet.TakenBy]; ok {
				t.Holder = &MemberIdentity{ID: member.ID, Name: member.Name, EmpID: member.EmpID}
			}
		}
		tablets = append(tablets, t)
	}
	sort.Slice(tablets, func(i, j int) bool { return tablets[i].ID < tablets[j].ID })
	return tablets, nil
}

func (m *MemoryProvider) CreateTablet(ctx context.Context, tablet Tablet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := tablet
	m.tablets[tablet.ID] = &copied
	return nil
}

func (m *MemoryProvider) ClaimTablet(ctx context.Context, tabletID, memberID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tablet, ok := m.tablets[tabletID]
	if !ok || !tablet.IsActive || tablet.TakenBy != nil {
		return ErrHolderChanged
	}
	takenAt := at.UTC()
	tablet.TakenBy = &memberID
	tablet.TakenAt = &takenAt
	return nil
}

func (m *MemoryProvider) ReleaseTablet(ctx context.Context, tabletID, expectedHolder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tablet, ok := m.tablets[tabletID]
	if !ok || tablet.TakenBy == nil || *tablet.TakenBy != expectedHolder {
		return ErrHolderChanged
	}
	tablet.TakenBy = nil
	tablet.TakenAt = nil
	return nil
}

// Member methods

func (m *MemoryProvider) GetMember(ctx context.Context, id string) (*Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *member
	return &copied, nil
}

func (m *MemoryProvider) GetMemberByEmpID(ctx context.Context, empID string) (*Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.empIDIndex[empID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *m.members[id]
	return &copied, nil
}

func (m *MemoryProvider) ListMembers(ctx context.Context) ([]Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var members []Member
	for _, member := range m.members {
		members = append(members, *member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

func (m *MemoryProvider) ListActiveMembers(ctx context.Context) ([]MemberIdentity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var members []MemberIdentity
	for _, member := range m.members {
		if !member.IsActive {
			continue
		}
		members = append(members, MemberIdentity{ID: member.ID, Name: member.Name, EmpID: member.EmpID})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

func (m *MemoryProvider) CreateMember(ctx context.Context, member Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.empIDIndex[member.EmpID]; exists {
		return ErrDuplicateEmpID
	}
	copied := member
	m.members[member.ID] = &copied
	m.empIDIndex[member.EmpID] = member.ID
	return nil
}

func (m *MemoryProvider) UpdateMember(ctx context.Context, member Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.members[member.ID]
	if !ok {
		return ErrNotFound
	}
	if other, exists := m.empIDIndex[member.EmpID]; exists && other != member.ID {
		return ErrDuplicateEmpID
	}
	delete(m.empIDIndex, existing.EmpID)
	copied := member
	m.members[member.ID] = &copied
	m.empIDIndex[member.EmpID] = member.ID
	return nil
}

func (m *MemoryProvider) DeleteMember(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	member, ok := m.members[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.empIDIndex, member.EmpID)
	delete(m.members, id)
	return nil
}

func (m *MemoryProvider) ListTabletsHeldBy(ctx context.Context, memberID string) ([]Tablet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tablets []Tablet
	for _, tablet := range m.tablets {
		if tablet.TakenBy != nil && *tablet.TakenBy == memberID {
			tablets = append(tablets, *tablet)
		}
	}
	sort.Slice(tablets, func(i, j int) bool { return tablets[i].ID < tablets[j].ID })
	return tablets, nil
}

// Activity log methods

func (m *MemoryProvider) AppendActivity(ctx context.Context, entry ActivityLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = append(m.activity, entry)
	return nil
}

func (m *MemoryProvider) ListActivity(ctx context.Context, filter ActivityFilter) ([]ActivityLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []ActivityLogEntry
	for _, entry := range m.activity {
		if filter.TabletID != "" && entry.TabletID != filter.TabletID {
			continue
		}
		if filter.MemberID != "" && entry.MemberID != filter.MemberID {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
