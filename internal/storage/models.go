package storage

import "time"

// Checkout actions recorded in the activity log.
const (
	ActionTake   = "TAKE"
	ActionReturn = "RETURN"
)

type Tablet struct {
	ID       string     `db:"id" json:"id"`
	Name     string     `db:"name" json:"name"`
	HasPen   bool       `db:"has_pen" json:"hasPen"`
	IsActive bool       `db:"is_active" json:"isActive"`
	TakenBy  *string    `db:"taken_by" json:"takenBy,omitempty"`
	TakenAt  *time.Time `db:"taken_at" json:"takenAt,omitempty"`
}

// Available reports whether the tablet has no current holder.
// Invariant: TakenBy == nil exactly when TakenAt == nil.
func (t *Tablet) Available() bool {
	return t.TakenBy == nil
}

type Member struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	EmpID     string    `db:"emp_id" json:"empId"`
	Pin       string    `db:"pin" json:"-"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// MemberIdentity is the projection handed to devices after PIN verification
// and embedded in tablet listings. Never carries the PIN.
type MemberIdentity struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	EmpID string `db:"emp_id" json:"empId"`
}

// TabletWithHolder is a tablet row joined with its current holder, if any.
type TabletWithHolder struct {
	Tablet
	Holder *MemberIdentity `json:"takenByMember,omitempty"`
}

// ActivityLogEntry is append-only. MemberName and TabletName are snapshots
// taken at write time so history survives later renames.
type ActivityLogEntry struct {
	ID         string    `db:"id" json:"id"`
	TabletID   string    `db:"tablet_id" json:"tabletId"`
	MemberID   string    `db:"member_id" json:"memberId"`
	Action     string    `db:"action" json:"action"`
	MemberName string    `db:"member_name" json:"memberName"`
	TabletName string    `db:"tablet_name" json:"tabletName"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// ActivityFilter narrows activity listings. Zero values mean no filter.
type ActivityFilter struct {
	TabletID string
	MemberID string
	Limit    int
}
