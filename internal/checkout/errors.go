package checkout

import "errors"

var (
	ErrTabletNotFound  = errors.New("tablet not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrInvalidAction   = errors.New("invalid action, use TAKE or RETURN")
	ErrMissingIdentity = errors.New("member id required for checkout")

	// State-transition preconditions
	ErrAlreadyTaken  = errors.New("tablet is already taken")
	ErrNotCheckedOut = errors.New("tablet is not checked out")

	// The transition committed but the activity log append failed. The
	// transition is NOT rolled back; callers should surface this to operators.
	ErrAuditAppend = errors.New("audit log append failed")
)
