// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package vip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/olegiv/concierge/internal/auth"
	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/util"
)

// Field limits.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxNameLength     = 100
)

// Store is the persistence the directory needs. *store.Queries implements it.
type Store interface {
	CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error)
	GetUserByID(ctx context.Context, id int64) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	CountUsersByRole(ctx context.Context, role string) (int64, error)
	UpdateUser(ctx context.Context, arg store.UpdateUserParams) (store.User, error)
	UpdateUserPassword(ctx context.Context, arg store.UpdateUserPasswordParams) error
	UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error
	DeleteUser(ctx context.Context, id int64) error
}

// Service implements the VIP directory operations.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	// mu serializes mutations so last-admin checks see a stable count.
	mu sync.Mutex
}

// NewService creates a directory service.
func NewService(s Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func fromStore(u store.User) User {
	user := User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         Role(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		LastLoginAt:  util.TimePtr(u.LastLoginAt),
	}
	return user
}

func validateEmail(email string) string {
	if email == "" {
		return "Email is required"
	}
	if !util.IsValidEmail(email) {
		return "Invalid email format"
	}
	return ""
}

func validatePassword(password string) string {
	if password == "" {
		return "Password is required"
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Sprintf("Password must be at most %d characters", MaxPasswordLength)
	}
	return ""
}

func validateName(name string) string {
	if name == "" {
		return "Name is required"
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Sprintf("Name must be at most %d characters", MaxNameLength)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Bootstrap creates the first admin when the directory has none. It is a
// no-op once any admin exists.
func (s *Service) Bootstrap(ctx context.Context, email, password, name string) (bool, error) {
	admins, err := s.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	if admins > 0 {
		return false, nil
	}

	u, err := s.CreateUser(ctx, nil, CreateUserInput{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     string(RoleAdmin),
	})
	if err != nil {
		return false, fmt.Errorf("bootstrapping admin: %w", err)
	}
	s.logger.Info("bootstrapped admin account", "user_id", u.ID, "email", u.Email)
	return true, nil
}

// CreateUser adds an account. actor must be an admin; a nil actor is the
// system itself (CLI, bootstrap).
func (s *Service) CreateUser(ctx context.Context, actor *Session, in CreateUserInput) (User, error) {
	if actor != nil && !actor.IsAdmin() {
		return User{}, ErrForbidden
	}

	email := util.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	fields := map[string]string{}
	if msg := validateEmail(email); msg != "" {
		fields["email"] = msg
	}
	if msg := validatePassword(in.Password); msg != "" {
		fields["password"] = msg
	}
	if msg := validateName(name); msg != "" {
		fields["name"] = msg
	}
	role, err := ParseRole(in.Role)
	if err != nil {
		fields["role"] = "Role must be admin or vip"
	}
	if len(fields) > 0 {
		return User{}, &ValidationError{Fields: fields}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("checking email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	row, err := s.store.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         string(role),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("creating user: %w", err)
	}
	return fromStore(row), nil
}

// Authenticate checks credentials. Unknown accounts and wrong passwords both
// return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = util.NormalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	row, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			auth.BurnCheck(password)
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(password, row.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", "user_id", row.ID, "error", err)
		return User{}, ErrInvalidCredentials
	}
	if !ok {
		return User{}, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.store.UpdateUserLastLogin(ctx, row.ID, now); err != nil {
		s.logger.Warn("failed to record last login", "user_id", row.ID, "error", err)
	} else {
		row.LastLoginAt = sql.NullTime{Time: now, Valid: true}
	}

	if auth.NeedsRehash(row.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.store.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				ID: row.ID, PasswordHash: hash, UpdatedAt: now,
			}); err != nil {
				s.logger.Warn("failed to upgrade password hash", "user_id", row.ID, "error", err)
			} else {
				row.PasswordHash = hash
			}
		}
	}

	return fromStore(row), nil
}

// GetUser returns an account by id.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	row, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("getting user: %w", err)
	}
	return fromStore(row), nil
}

// ListUsers returns every account. Admin only; nil actor is the system.
func (s *Service) ListUsers(ctx context.Context, actor *Session) ([]User, error) {
	if actor != nil && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	rows, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := make([]User, 0, len(rows))
	for _, r := range rows {
		users = append(users, fromStore(r))
	}
	return users, nil
}

// CountAdmins returns the number of admin accounts.
func (s *Service) CountAdmins(ctx context.Context) (int64, error) {
	n, err := s.store.CountUsersByRole(ctx, string(RoleAdmin))
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

// UpdateUser patches an account. Admins may change any field of any account;
// a VIP may change only their own name and password.
func (s *Service) UpdateUser(ctx context.Context, actor *Session, id int64, in UpdateUserInput) (User, error) {
	isSystem := actor == nil
	isAdmin := isSystem || actor.IsAdmin()
	if !isAdmin {
		if actor.UserID != id || in.Email != nil || in.Role != nil {
			return User{}, ErrForbidden
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("getting user: %w", err)
	}

	params := store.UpdateUserParams{
		ID:    current.ID,
		Email: current.Email,
		Name:  current.Name,
		Role:  current.Role,
	}

	fields := map[string]string{}
	if in.Email != nil {
		email := util.NormalizeEmail(*in.Email)
		if msg := validateEmail(email); msg != "" {
			fields["email"] = msg
		} else if email != current.Email {
			if other, err := s.store.GetUserByEmail(ctx, email); err == nil && other.ID != current.ID {
				return User{}, ErrEmailTaken
			} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return User{}, fmt.Errorf("checking email: %w", err)
			}
		}
		params.Email = email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if msg := validateName(name); msg != "" {
			fields["name"] = msg
		}
		params.Name = name
	}
	if in.Role != nil {
		role, err := ParseRole(*in.Role)
		if err != nil {
			fields["role"] = "Role must be admin or vip"
		}
		params.Role = string(role)
	}
	if in.Password != nil {
		if msg := validatePassword(*in.Password); msg != "" {
			fields["password"] = msg
		}
	}
	if len(fields) > 0 {
		return User{}, &ValidationError{Fields: fields}
	}

	if current.Role == string(RoleAdmin) && params.Role != string(RoleAdmin) {
		admins, err := s.store.CountUsersByRole(ctx, string(RoleAdmin))
		if err != nil {
			return User{}, fmt.Errorf("counting admins: %w", err)
		}
		if admins <= 1 {
			return User{}, ErrLastAdmin
		}
	}

	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return User{}, fmt.Errorf("hashing password: %w", err)
		}
		params.PasswordHash = sql.NullString{String: hash, Valid: true}
	}

	params.UpdatedAt = s.now()
	row, err := s.store.UpdateUser(ctx, params)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("updating user: %w", err)
	}

	return fromStore(row), nil
}

// ChangePassword replaces the actor's own password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, actor *Session, currentPassword, newPassword string) error {
	if actor == nil {
		return ErrForbidden
	}

	row, err := s.store.GetUserByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("getting user: %w", err)
	}

	ok, err := auth.CheckPassword(currentPassword, row.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if msg := validatePassword(newPassword); msg != "" {
		return &ValidationError{Fields: map[string]string{"new_password": msg}}
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		ID: row.ID, PasswordHash: hash, UpdatedAt: s.now(),
	}); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// DeleteUser removes an account. Admin only; admins cannot delete themselves
// and the last admin cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, actor *Session, id int64) error {
	if actor != nil {
		if !actor.IsAdmin() {
			return ErrForbidden
		}
		if actor.UserID == id {
			return ErrSelfDelete
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("getting user: %w", err)
	}

	if row.Role == string(RoleAdmin) {
		admins, err := s.store.CountUsersByRole(ctx, string(RoleAdmin))
		if err != nil {
			return fmt.Errorf("counting admins: %w", err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
