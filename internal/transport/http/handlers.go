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

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dashgate/dashgate/internal/audit"
	"github.com/dashgate/dashgate/internal/identity"
	"github.com/dashgate/dashgate/internal/observability/logger"
	"github.com/dashgate/dashgate/internal/rbac"
	"github.com/dashgate/dashgate/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	tokenService    *token.Service
	auditLogger     audit.Logger
	auditHistory    *audit.Recorder
	startTime       time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	tokenService *token.Service,
	auditLogger audit.Logger,
	auditHistory *audit.Recorder,
) *Handler {
	return &Handler{
		identityService: identityService,
		tokenService:    tokenService,
		auditLogger:     auditLogger,
		auditHistory:    auditHistory,
		startTime:       time.Now(),
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Get("/auth/me", h.Me)
			r.Post("/auth/change-password", h.ChangePassword)

			// User management. Listing and inspection need the
			// manage_users permission; role assignment is gated
			// separately on manage_roles, and account deactivation
			// uses the role hierarchy.
			r.Route("/users", func(r chi.Router) {
				r.With(h.RequirePermission(rbac.PermManageUsers)).Get("/", h.ListUsers)
				r.With(h.RequirePermission(rbac.PermManageUsers)).Get("/{userID}", h.GetUser)
				r.With(h.RequirePermission(rbac.PermManageRoles)).Put("/{userID}/role", h.ChangeUserRole)
				r.With(h.RequireRole(rbac.RoleAdmin)).Put("/{userID}/active", h.SetUserActive)
				r.With(h.RequirePermission(rbac.PermDeleteRecords)).Delete("/{userID}", h.DeleteUser)
			})

			// Dashboard
			r.Route("/dashboard", func(r chi.Router) {
				r.With(h.RequirePermission(rbac.PermViewDashboard)).Get("/stats", h.DashboardStats)
				r.With(h.RequirePermission(rbac.PermViewLogs)).Get("/logs", h.ActivityLogs)
				r.With(h.RequirePermission(rbac.PermExportData)).Get("/export", h.ExportUsers)
				r.With(h.RequireRole(rbac.RoleAdmin)).Get("/system", h.SystemInfo)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "dashgate",
	})
}

// UserResponse is the public shape of a user. It never carries password
// material.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RegisterRequest represents registration data
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	user, err := h.identityService.Register(r.Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, "username or email already registered")
		case errors.Is(err, identity.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password does not meet security requirements")
		default:
			slog.ErrorContext(r.Context(), "failed to register user",
				logger.Error(err),
				logger.Username(req.Username),
			)
			respondError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the token pair returned by login.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// Login authenticates a user and returns a bearer token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrAccountInactive) {
			respondError(w, http.StatusForbidden, "account is deactivated")
			return
		}
		// One generic answer for unknown username and wrong password.
		respondError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	accessToken, err := h.tokenService.IssueAccessToken(user.ID, string(user.Role))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue access token", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}
	refreshToken, err := h.tokenService.IssueRefreshToken(user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue refresh token", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	})
}

// RefreshRequest carries a refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// role is re-read from the directory at exchange time; a refresh token
// deliberately carries none.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	claims, err := h.tokenService.Validate(req.RefreshToken, token.KindRefresh)
	if err != nil {
		slog.WarnContext(r.Context(), "refresh token rejected", logger.Error(err))
		respondError(w, http.StatusUnauthorized, msgCouldNotValidate)
		return
	}

	user, err := h.identityService.GetUser(r.Context(), claims.Subject)
	if err != nil {
		respondError(w, http.StatusUnauthorized, msgCouldNotValidate)
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusForbidden, "account is deactivated")
		return
	}

	accessToken, err := h.tokenService.IssueAccessToken(user.ID, string(user.Role))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue access token", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeTokenRefreshed,
		ActorID:   user.ID,
		Resource:  "token",
		IPAddress: getClientIP(r),
	})

	respondJSON(w, http.StatusOK, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}

// Me returns the current authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	user, err := h.identityService.GetUser(r.Context(), p.UserID)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// ChangePasswordRequest carries a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword changes the current user's password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := GetPrincipal(r.Context())
	err := h.identityService.ChangePassword(r.Context(), p.UserID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "incorrect password")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password does not meet security requirements")
		default:
			slog.ErrorContext(r.Context(), "failed to change password", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

