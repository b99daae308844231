package directory

import "time"

// State is the lifecycle state of a user record.
type State string

const (
	// StatePending marks a user created at signup, phone not yet proven.
	StatePending State = "pending"
	// StatePhoneVerified marks a user after the first successful code login.
	StatePhoneVerified State = "phone_verified"
	// StateDeleted marks a soft-deleted user.
	StateDeleted State = "deleted"
)

// User is a registered account keyed by its normalized phone number.
// IsBlocked and StateDeleted are set by external administrative processes
// only; this service reads them but never writes them.
type User struct {
	ID          string
	PhoneNumber string
	State       State
	IsActive    bool
	IsBlocked   bool
	CreatedAt   time.Time
}
