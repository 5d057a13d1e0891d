// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vip manages the VIP user directory: accounts, credentials,
// session records and the role checks that unlock private listings.
package vip

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role is a VIP directory role.
type Role string

// Roles known to the directory.
const (
	RoleAdmin Role = "admin"
	RoleVIP   Role = "vip"
)

// roleLevel defines the role hierarchy (higher = more permissions).
var roleLevel = map[Role]int{
	RoleAdmin: 2,
	RoleVIP:   1,
}

// Level returns the role's position in the hierarchy; unknown roles are 0.
func (r Role) Level() int {
	return roleLevel[r]
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleLevel[r]
	return ok
}

// ParseRole converts a string to a Role. Empty input yields RoleVIP.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleVIP, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", &ValidationError{Fields: map[string]string{"role": "Role must be admin or vip"}}
	}
	return r, nil
}

// User is a VIP directory account.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is the record kept for a signed-in visitor.
type Session struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
}

// NewSession builds the session record for a user.
func NewSession(u User) Session {
	return Session{UserID: u.ID, Email: u.Email, Role: u.Role, Name: u.Name}
}

// IsAdmin reports whether the session belongs to an admin. Nil sessions are anonymous.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// HasRole reports whether the session's role is at least minRole.
func (s *Session) HasRole(minRole Role) bool {
	if s == nil {
		return false
	}
	return s.Role.Level() >= minRole.Level()
}

// CanViewPrivate reports whether the session unlocks private listings.
func (s *Session) CanViewPrivate() bool {
	return s.HasRole(RoleVIP)
}

// Sentinel errors returned by Service.
var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("not allowed")
	ErrLastAdmin          = errors.New("cannot remove the last admin")
	ErrSelfDelete         = errors.New("cannot delete your own account")
)

// ValidationError carries per-field validation messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CreateUserInput holds the fields of a new account.
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// UpdateUserInput patches an account; nil fields are left unchanged.
type UpdateUserInput struct {
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
}
