// Package user holds the account model, role definitions, and the
// account store.
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is one of the four fixed account roles.
type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RoleCollegeAdmin   Role = "college_admin"
	RoleStudent        Role = "student"
	RoleIndividualUser Role = "user"
)

// ErrNotFound is returned when a lookup targets a non-existent account.
var ErrNotFound = errors.New("user: not found")

// ErrEmailTaken is returned on registration with an email already in use.
var ErrEmailTaken = errors.New("user: email already registered")

// ParseRole validates a wire-format role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleSuperAdmin, RoleCollegeAdmin, RoleStudent, RoleIndividualUser:
		return r, nil
	default:
		return "", fmt.Errorf("user: unknown role %q", s)
	}
}

// RequiresCollege reports whether accounts with this role must belong to
// a college.
func (r Role) RequiresCollege() bool {
	return r == RoleCollegeAdmin || r == RoleStudent
}

// ForbidsCollege reports whether accounts with this role must not carry a
// college affiliation.
func (r Role) ForbidsCollege() bool {
	return r == RoleSuperAdmin || r == RoleIndividualUser
}

// User is a registered account. PasswordHash is a bcrypt digest; the
// plaintext password is never persisted. Deactivated accounts keep their
// rows but can no longer log in.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CollegeID    string // empty unless the role requires one
	AcademicYear int    // students only, 1-6
	Active       bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate enforces the role-college coupling: admins and students belong
// to a college, platform-level roles do not, and students carry an
// academic year.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("user: name is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("user: email is required")
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	if u.Role.RequiresCollege() && u.CollegeID == "" {
		return fmt.Errorf("user: role %s requires a college", u.Role)
	}
	if u.Role.ForbidsCollege() && u.CollegeID != "" {
		return fmt.Errorf("user: role %s cannot belong to a college", u.Role)
	}
	if u.Role == RoleStudent {
		if u.AcademicYear < 1 || u.AcademicYear > 6 {
			return errors.New("user: students need an academic year between 1 and 6")
		}
	} else if u.AcademicYear != 0 {
		return fmt.Errorf("user: role %s cannot carry an academic year", u.Role)
	}
	return nil
}
