package shared

import (
	"library-circulation/internal/domain/user"

	"github.com/google/uuid"
)

// Actor is the authenticated caller, passed explicitly into every operation
// instead of being pulled from ambient request state.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}
