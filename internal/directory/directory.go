// Package directory manages the employee roster: PIN-based identity
// verification for device registration, and the admin-side member CRUD with
// its uniqueness and referential guards.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tablet-checkout/internal/storage"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrDeactivated    = errors.New("account is deactivated, contact admin")
	ErrWrongPin       = errors.New("incorrect PIN")
	ErrPinTooShort    = errors.New("PIN must be at least 4 digits")
	ErrEmpIDTaken     = errors.New("employee id already exists")
	ErrMissingFields  = errors.New("name, employee id, and PIN are required")
)

// HeldTabletError blocks member deletion while a tablet still references the
// member as holder.
type HeldTabletError struct {
	TabletName string
}

func (e *HeldTabletError) Error() string {
	return fmt.Sprintf("cannot delete: member has %s checked out, return it first", e.TabletName)
}

type Directory struct {
	store  storage.Provider
	now    func() time.Time
	logger *slog.Logger
}

func New(store storage.Provider) *Directory {
	return &Directory{
		store:  store,
		now:    time.Now,
		logger: slog.With("component", "directory"),
	}
}

// VerifyIdentity checks a member's PIN for device registration and returns
// the identity projection the device caches. The PIN comparison is plain
// equality against the stored value; PINs are not hashed (deliberate, see
// DESIGN.md), and the projection never includes the PIN.
func (d *Directory) VerifyIdentity(ctx context.Context, memberID, pin string) (*storage.MemberIdentity, error) {
	member, err := d.store.GetMember(ctx, memberID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMemberNotFound
	} else if err != nil {
		return nil, err
	}

	if !member.IsActive {
		return nil, ErrDeactivated
	}

	if member.Pin != pin {
		d.logger.Warn("PIN verification failed", "member", memberID)
		return nil, ErrWrongPin
	}

	return &storage.MemberIdentity{ID: member.ID, Name: member.Name, EmpID: member.EmpID}, nil
}

func (d *Directory) CreateMember(ctx context.Context, name, empID, pin string) (*storage.Member, error) {
	if name == "" || empID == "" || pin == "" {
		return nil, ErrMissingFields
	}
	if len(pin) < 4 {
		return nil, ErrPinTooShort
	}

	now := d.now().UTC()
	member := storage.Member{
		ID:        uuid.NewString(),
		Name:      name,
		EmpID:     empID,
		Pin:       pin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := d.store.CreateMember(ctx, member)
	if errors.Is(err, storage.ErrDuplicateEmpID) {
		return nil, ErrEmpIDTaken
	} else if err != nil {
		return nil, err
	}

	d.logger.Info("Member created", "member", member.ID, "emp_id", empID)
	return &member, nil
}

// MemberUpdate carries optional field changes; nil means leave unchanged.
type MemberUpdate struct {
	Name     *string
	EmpID    *string
	Pin      *string
	IsActive *bool
}

func (d *Directory) UpdateMember(ctx context.Context, id string, update MemberUpdate) (*storage.Member, error) {
	member, err := d.store.GetMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMemberNotFound
	} else if err != nil {
		return nil, err
	}

	if update.Name != nil {
		member.Name = *update.Name
	}
	if update.EmpID != nil {
		member.EmpID = *update.EmpID
	}
	if update.Pin != nil {
		if len(*update.Pin) < 4 {
			return nil, ErrPinTooShort
		}
		member.Pin = *update.Pin
	}
	if update.IsActive != nil {
		member.IsActive = *update.IsActive
	}
	member.UpdatedAt = d.now().UTC()

	err = d.store.UpdateMember(ctx, *member)
	if errors.Is(err, storage.ErrDuplicateEmpID) {
		return nil, ErrEmpIDTaken
	} else if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMemberNotFound
	} else if err != nil {
		return nil, err
	}

	return member, nil
}

// DeleteMember removes a member unless a tablet still points at them as
// holder. The guard keeps the tablet invariant intact: an identity a tablet
// references cannot disappear.
func (d *Directory) DeleteMember(ctx context.Context, id string) error {
	held, err := d.store.ListTabletsHeldBy(ctx, id)
	if err != nil {
		return err
	}
	if len(held) > 0 {
		return &HeldTabletError{TabletName: held[0].Name}
	}

	err = d.store.DeleteMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrMemberNotFound
	} else if err != nil {
		return err
	}

	d.logger.Info("Member deleted", "member", id)
	return nil
}

func (d *Directory) ListMembers(ctx context.Context) ([]storage.Member, error) {
	return d.store.ListMembers(ctx)
}

// ListActiveMembers returns the public projection used by the kiosk
// member dropdown.
func (d *Directory) ListActiveMembers(ctx context.Context) ([]storage.MemberIdentity, error) {
	return d.store.ListActiveMembers(ctx)
}
