package rbac

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of portal roles carried in user documents and tokens.
type Role string

const (
	Student Role = "student"
	Faculty Role = "faculty"
	Admin   Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{Student, Faculty, Admin}

// ParseRole converts a raw role tag into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case Student, Faculty, Admin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID    primitive.ObjectID
	Name  string
	Email string
	Role  Role
}

func (p Principal) Is(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
