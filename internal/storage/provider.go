package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tablet-checkout/internal/config"
)

var (
	// No matching row.
	ErrNotFound = errors.New("not found")
	// Conditional holder update matched zero rows: the tablet's holder
	// changed between read and write, or the tablet is gone/inactive.
	ErrHolderChanged = errors.New("tablet holder changed")
	// emp_id uniqueness violation on member create/update.
	ErrDuplicateEmpID = errors.New("employee id already exists")
)

type Provider interface {
	Close() error
	GetSchemaVersion(ctx context.Context) (int, error)

	// Tablet methods. ClaimTablet and ReleaseTablet are the only writes to
	// taken_by/taken_at and must be single atomic conditional statements:
	// they are the sole synchronization primitive against double-checkout.
	GetTablet(ctx context.Context, id string) (*Tablet, error)
	ListTablets(ctx context.Context) ([]TabletWithHolder, error)
	CreateTablet(ctx context.Context, tablet Tablet) error
	ClaimTablet(ctx context.Context, tabletID, memberID string, at time.Time) error
	ReleaseTablet(ctx context.Context, tabletID, expectedHolder string) error

	// Member methods
	GetMember(ctx context.Context, id string) (*Member, error)
	GetMemberByEmpID(ctx context.Context, empID string) (*Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
	ListActiveMembers(ctx context.Context) ([]MemberIdentity, error)
	CreateMember(ctx context.Context, member Member) error
	UpdateMember(ctx context.Context, member Member) error
	DeleteMember(ctx context.Context, id string) error
	ListTabletsHeldBy(ctx context.Context, memberID string) ([]Tablet, error)

	// Activity log methods. Entries are never updated or deleted.
	AppendActivity(ctx context.Context, entry ActivityLogEntry) error
	ListActivity(ctx context.Context, filter ActivityFilter) ([]ActivityLogEntry, error)
}

func NewProvider(config *config.Storage) Provider {
	switch {
	case config.SQLite != nil:
		provider := NewSQLiteProvider(config)
		if provider == nil {
			return nil
		}
		if err := provider.runMigrations("sqlite3"); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			return nil
		}
		return provider

	default:
		slog.Error("Unsupported storage configuration", "config", config)
	}

	return nil
}
