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
	"fmt"
	"os"

	"github.com/dashgate/dashgate/internal/audit"
	"github.com/dashgate/dashgate/internal/rbac"
)

const (
	EnvBootstrapAdminUsername = "DG_BOOTSTRAP_ADMIN_USERNAME"
	EnvBootstrapAdminEmail    = "DG_BOOTSTRAP_ADMIN_EMAIL"
	EnvBootstrapAdminPassword = "DG_BOOTSTRAP_ADMIN_PASSWORD"
)

// BootstrapService seeds the first administrator account.
type BootstrapService struct {
	identityService *Service
	auditLogger     audit.Logger
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(identityService *Service, auditLogger audit.Logger) *BootstrapService {
	return &BootstrapService{
		identityService: identityService,
		auditLogger:     auditLogger,
	}
}

// Bootstrap checks for bootstrap configuration and executes it if necessary.
// It is a no-op when the bootstrap variables are unset or an admin account
// already exists.
func (s *BootstrapService) Bootstrap(ctx context.Context) error {
	username := os.Getenv(EnvBootstrapAdminUsername)
	email := os.Getenv(EnvBootstrapAdminEmail)
	password := os.Getenv(EnvBootstrapAdminPassword)

	if username == "" {
		return nil
	}
	if email == "" || password == "" {
		return fmt.Errorf("bootstrap admin %q requires %s and %s", username,
			EnvBootstrapAdminEmail, EnvBootstrapAdminPassword)
	}

	// Skip if any admin already exists.
	count, err := s.identityService.repo.Count(ctx, ListFilter{Role: rbac.RoleAdmin})
	if err != nil {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	user, err := s.identityService.Register(ctx, username, email, password, "")
	if errors.Is(err, ErrUserAlreadyExists) {
		user, err = s.identityService.repo.GetByUsername(ctx, username)
	}
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	if err := s.identityService.repo.UpdateRole(ctx, user.ID, rbac.RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant admin role during bootstrap: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAdminBootstrap,
		ActorID:  audit.ActorSystemBootstrap,
		Resource: user.ID,
		Metadata: map[string]any{
			"username": username,
			"email":    email,
		},
	})

	fmt.Printf("Successfully bootstrapped initial admin: %s\n", username)
	return nil
}
