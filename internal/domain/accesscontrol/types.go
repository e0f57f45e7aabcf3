package accesscontrol

import (
	"fmt"
	"strings"
)

type RoleName string

const (
	RoleAdmin  RoleName = "admin"
	RoleOwner  RoleName = "owner"
	RoleFarmer RoleName = "farmer"
)

// SystemUserID identifies jobs acting on behalf of the platform.
const SystemUserID int64 = 0

// Caller is the authenticated identity behind a request. It is always passed
// explicitly; nothing in the engine reads identity from ambient state.
type Caller struct {
	ID   int64    `json:"id"`
	Role RoleName `json:"role"`
}

// System returns the caller used by scheduled jobs.
func System() Caller {
	return Caller{ID: SystemUserID, Role: RoleAdmin}
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

func ParseRole(s string) (RoleName, error) {
	switch r := RoleName(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleOwner, RoleFarmer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}
