package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"tablet-checkout/internal/config"
)

type SQLProvider struct {
	db *sqlx.DB

	config *config.Storage

	logger *slog.Logger
}

func NewSQLProvider(config *config.Storage, driverName string, dataSource string) (provider *SQLProvider) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		slog.Error("Failed to open database", "driver", driverName, "error", err)
		return nil
	}

	logger := slog.With("component", "storage")

	return &SQLProvider{
		db:     db,
		config: config,
		logger: logger,
	}
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *SQLProvider) GetSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := p.db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Tablet methods

func (p *SQLProvider) GetTablet(ctx context.Context, id string) (*Tablet, error) {
	var tablet Tablet
	err := p.db.GetContext(ctx, &tablet,
		`SELECT id, name, has_pen, is_active, taken_by, taken_at FROM tablets WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &tablet, nil
}

func (p *SQLProvider) ListTablets(ctx context.Context) ([]TabletWithHolder, error) {
	rows, err := p.db.QueryxContext(ctx, `
		SELECT t.id, t.name, t.has_pen, t.is_active, t.taken_by, t.taken_at,
		       m.id AS member_id, m.name AS member_name, m.emp_id AS member_emp_id
		FROM tablets t
		LEFT JOIN members m ON m.id = t.taken_by
		WHERE t.is_active = 1
		ORDER BY t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tablets []TabletWithHolder
	for rows.Next() {
		var t TabletWithHolder
		var memberID, memberName, memberEmpID sql.NullString
		err := rows.Scan(&t.ID, &t.Name, &t.HasPen, &t.IsActive, &t.TakenBy, &t.TakenAt,
			&memberID, &memberName, &memberEmpID)
		if err != nil {
			return nil, err
		}
		if memberID.Valid {
			t.Holder = &MemberIdentity{
				ID:    memberID.String,
				Name:  memberName.String,
				EmpID: memberEmpID.String,
			}
		}
		tablets = append(tablets, t)
	}
	return tablets, rows.Err()
}

func (p *SQLProvider) CreateTablet(ctx context.Context, tablet Tablet) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO tablets (id, name, has_pen, is_active) VALUES (?, ?, ?, ?)`,
		tablet.ID, tablet.Name, tablet.HasPen, tablet.IsActive)
	return err
}

// ClaimTablet sets the holder with a single conditional statement. The
// taken_by IS NULL predicate is what serializes concurrent TAKE requests:
// of two racing claims exactly one matches a row, the other sees
// ErrHolderChanged. Never split this into a read followed by a write.
func (p *SQLProvider) ClaimTablet(ctx context.Context, tabletID, memberID string, at time.Time) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE tablets SET taken_by = ?, taken_at = ?
		WHERE id = ? AND is_active = 1 AND taken_by IS NULL`,
		memberID, at.UTC(), tabletID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHolderChanged
	}
	return nil
}

// ReleaseTablet clears the holder, conditioned on the holder still being the
// one observed by the caller. Same compare-and-swap discipline as ClaimTablet.
func (p *SQLProvider) ReleaseTablet(ctx context.Context, tabletID, expectedHolder string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE tablets SET taken_by = NULL, taken_at = NULL
		WHERE id = ? AND taken_by = ?`,
		tabletID, expectedHolder)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHolderChanged
	}
	return nil
}

// Member methods

func (p *SQLProvider) GetMember(ctx context.Context, id string) (*Member, error) {
	var member Member
	err := p.db.GetContext(ctx, &member,
		`SELECT id, name, emp_id, pin, is_active, created_at, updated_at FROM members WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &member, nil
}

func (p *SQLProvider) GetMemberByEmpID(ctx context.Context, empID string) (*Member, error) {
	var member Member
	err := p.db.GetContext(ctx, &member,
		`SELECT id, name, emp_id, pin, is_active, created_at, updated_at FROM members WHERE emp_id = ?`, empID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &member, nil
}

func (p *SQLProvider) ListMembers(ctx context.Context) ([]Member, error) {
	var members []Member
	err := p.db.SelectContext(ctx, &members,
		`SELECT id, name, emp_id, pin, is_active, created_at, updated_at FROM members ORDER BY name`)
	return members, err
}

func (p *SQLProvider) ListActiveMembers(ctx context.Context) ([]MemberIdentity, error) {
	var members []MemberIdentity
	err := p.db.SelectContext(ctx, &members,
		`SELECT id, name, emp_id FROM members WHERE is_active = 1 ORDER BY name`)
	return members, err
}

func (p *SQLProvider) CreateMember(ctx context.Context, member Member) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO members (id, name, emp_id, pin, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.Name, member.EmpID, member.Pin, member.IsActive,
		member.CreatedAt.UTC(), member.UpdatedAt.UTC())
	return mapUniqueViolation(err)
}

func (p *SQLProvider) UpdateMember(ctx context.Context, member Member) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE members SET name = ?, emp_id = ?, pin = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		member.Name, member.EmpID, member.Pin, member.IsActive,
		member.UpdatedAt.UTC(), member.ID)
	if err != nil {
		return mapUniqueViolation(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *SQLProvider) DeleteMember(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *SQLProvider) ListTabletsHeldBy(ctx context.Context, memberID string) ([]Tablet, error) {
	var tablets []Tablet
	err := p.db.SelectContext(ctx, &tablets,
		`SELECT id, name, has_pen, is_active, taken_by, taken_at FROM tablets WHERE taken_by = ?`, memberID)
	return tablets, err
}

// Activity log methods

func (p *SQLProvider) AppendActivity(ctx context.Context, entry ActivityLogEntry) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, tablet_id, member_id, action, member_name, tablet_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TabletID, entry.MemberID, entry.Action,
		entry.MemberName, entry.TabletName, entry.CreatedAt.UTC())
	return err
}

func (p *SQLProvider) ListActivity(ctx context.Context, filter ActivityFilter) ([]ActivityLogEntry, error) {
	query := `SELECT id, tablet_id, member_id, action, member_name, tablet_name, created_at FROM activity_log`
	var conds []string
	var args []any

	if filter.TabletID != "" {
		conds = append(conds, "tablet_id = ?")
		args = append(args, filter.TabletID)
	}
	if filter.MemberID != "" {
		conds = append(conds, "member_id = ?")
		args = append(args, filter.MemberID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// Secondary id ordering keeps same-timestamp entries deterministic.
	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var entries []ActivityLogEntry
	err := p.db.SelectContext(ctx, &entries, query, args...)
	return entries, err
}

// mapUniqueViolation translates the sqlite unique constraint error on
// members.emp_id to the portable sentinel.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed: members.emp_id") {
		return ErrDuplicateEmpID
	}
	return err
}
