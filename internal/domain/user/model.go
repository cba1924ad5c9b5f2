package user

import "context"

// AnonymousID is the owner id recorded when no user can be resolved.
const AnonymousID uint = 0

// User is an account that can own content.
type User struct {
	ID     uint
	UUID   string
	Name   string
	Email  string
	Active bool
}

// Identity exposes the user bound to the running session.
type Identity interface {
	// CurrentUserID returns the authenticated user id, or false for anonymous sessions.
	CurrentUserID() (uint, bool)
	// LoadUser returns the user with id, or nil when it does not exist.
	LoadUser(ctx context.Context, id uint) (*User, error)
}

// TestUserProvisioner is implemented by identities that can create and
// authenticate a throwaway user on demand.
type TestUserProvisioner interface {
	ProvisionTestUser(ctx context.Context) (*User, error)
}
