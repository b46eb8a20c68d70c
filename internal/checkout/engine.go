// Package checkout owns the state-transition rules for a tablet: who may
// move it between available and taken, and how concurrent requests against
// the same tablet are serialized.
//
// The only synchronization primitive is the storage layer's conditional
// holder update (ClaimTablet / ReleaseTablet). There is no in-process
// locking; two racing TAKEs both pass the precondition read and the
// compare-and-swap decides the winner.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tablet-checkout/internal/storage"
)

type Engine struct {
	store  storage.Provider
	now    func() time.Time
	logger *slog.Logger
}

func NewEngine(store storage.Provider) *Engine {
	return &Engine{
		store:  store,
		now:    time.Now,
		logger: slog.With("component", "checkout"),
	}
}

// Result of a successful (or partially successful, see ErrAuditAppend)
// state transition.
type Result struct {
	TabletID   string
	TabletName string
	Action     string
}

// PerformAction applies a TAKE or RETURN transition to the tablet.
//
// claimedMemberID is trusted as asserted by the device for TAKE; the PIN was
// proven at device registration time, not here. For RETURN any caller may
// return the tablet on the holder's behalf, so claimedMemberID is ignored.
//
// When the transition commits but the log append fails, the Result is
// returned together with an error wrapping ErrAuditAppend.
func (e *Engine) PerformAction(ctx context.Context, tabletID, action, claimedMemberID string) (*Result, error) {
	tablet, err := e.store.GetTablet(ctx, tabletID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTabletNotFound
	} else if err != nil {
		return nil, err
	}
	if !tablet.IsActive {
		// Soft-deleted tablets are excluded from all flows.
		return nil, ErrTabletNotFound
	}

	switch action {
	case storage.ActionTake:
		return e.take(ctx, tablet, claimedMemberID)
	case storage.ActionReturn:
		return e.returnTablet(ctx, tablet)
	default:
		return nil, ErrInvalidAction
	}
}

func (e *Engine) take(ctx context.Context, tablet *storage.Tablet, memberID string) (*Result, error) {
	if memberID == "" {
		return nil, ErrMissingIdentity
	}

	member, err := e.store.GetMember(ctx, memberID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMemberNotFound
	} else if err != nil {
		return nil, err
	}

	if tablet.TakenBy != nil {
		return nil, ErrAlreadyTaken
	}

	// Conditional write keyed on taken_by IS NULL. Zero rows means another
	// request won the race since our read.
	err = e.store.ClaimTablet(ctx, tablet.ID, member.ID, e.now())
	if errors.Is(err, storage.ErrHolderChanged) {
		e.logger.Debug("Lost TAKE race", "tablet", tablet.ID, "member", member.ID)
		return nil, ErrAlreadyTaken
	} else if err != nil {
		return nil, err
	}

	result := &Result{TabletID: tablet.ID, TabletName: tablet.Name, Action: storage.ActionTake}
	return e.appendLog(ctx, result, member.ID, member.Name, tablet.Name)
}

func (e *Engine) returnTablet(ctx context.Context, tablet *storage.Tablet) (*Result, error) {
	if tablet.TakenBy == nil {
		return nil, ErrNotCheckedOut
	}
	holderID := *tablet.TakenBy

	// The log records the holder, not the caller: anyone may walk up and
	// return a colleague's tablet.
	holderName := "Unknown"
	if member, err := e.store.GetMember(ctx, holderID); err == nil {
		holderName = member.Name
	}

	// Conditional on the holder still being the one we read.
	err := e.store.ReleaseTablet(ctx, tablet.ID, holderID)
	if errors.Is(err, storage.ErrHolderChanged) {
		e.logger.Debug("Lost RETURN race", "tablet", tablet.ID, "holder", holderID)
		return nil, ErrNotCheckedOut
	} else if err != nil {
		return nil, err
	}

	result := &Result{TabletID: tablet.ID, TabletName: tablet.Name, Action: storage.ActionReturn}
	return e.appendLog(ctx, result, holderID, holderName, tablet.Name)
}

func (e *Engine) appendLog(ctx context.Context, result *Result, memberID, memberName, tabletName string) (*Result, error) {
	entry := storage.ActivityLogEntry{
		ID:         uuid.NewString(),
		TabletID:   result.TabletID,
		MemberID:   memberID,
		Action:     result.Action,
		MemberName: memberName,
		TabletName: tabletName,
		CreatedAt:  e.now().UTC(),
	}

	if err := e.store.AppendActivity(ctx, entry); err != nil {
		// The transition already committed; losing the exclusivity guarantee
		// would be worse than a gap in the audit trail, so no rollback.
		e.logger.Error("Audit log append failed after committed transition",
			"tablet", result.TabletID, "action", result.Action, "error", err)
		return result, fmt.Errorf("%w: %v", ErrAuditAppend, err)
	}
	return result, nil
}
