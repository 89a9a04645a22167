// Copyright 2026 The DashGate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dashgate/dashgate/internal/rbac"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrInvalidRole        = errors.New("invalid role")
)

// User represents an account in the admin backend. PasswordHash never leaves
// this package or the store; handlers serialize users without it.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Role         rbac.Role
	IsActive     bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListFilter narrows a user listing.
type ListFilter struct {
	Search string // matches username or email, case-insensitive substring
	Role   rbac.Role
	Limit  int
	Offset int
}

// UserRepository defines the interface for user persistence.
// Uniqueness of username and email is enforced by the implementation.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List retrieves users matching the filter.
	List(ctx context.Context, filter ListFilter) ([]*User, error)

	// Count returns the number of users matching the filter, ignoring
	// Limit and Offset.
	Count(ctx context.Context, filter ListFilter) (int, error)

	// UpdateRole changes a user's role.
	UpdateRole(ctx context.Context, userID string, role rbac.Role) error

	// SetActive activates or deactivates an account.
	SetActive(ctx context.Context, userID string, active bool) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error

	// Delete removes a user permanently.
	Delete(ctx context.Context, userID string) error
}
