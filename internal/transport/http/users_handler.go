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
	"strconv"

	"github.com/dashgate/dashgate/internal/identity"
	"github.com/dashgate/dashgate/internal/observability/logger"
	"github.com/dashgate/dashgate/internal/rbac"
	"github.com/go-chi/chi/v5"
)

// UserListResponse is a page of users.
type UserListResponse struct {
	Items   []UserResponse `json:"items"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	Pages   int            `json:"pages"`
}

// ListUsers returns a paginated user listing with optional search and role
// filters.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(r, "per_page", 20)
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	filter := identity.ListFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	if roleParam := r.URL.Query().Get("role"); roleParam != "" {
		role, ok := rbac.ParseRole(roleParam)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid role filter")
			return
		}
		filter.Role = role
	}

	users, total, err := h.identityService.ListUsers(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list users", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	items := make([]UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}

	respondJSON(w, http.StatusOK, UserListResponse{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   (total + perPage - 1) / perPage,
	})
}

// GetUser returns a single user by ID.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// ChangeRoleRequest carries a role assignment.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeUserRole assigns a new role to a user.
func (h *Handler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := GetPrincipal(r.Context())
	user, err := h.identityService.ChangeRole(r.Context(), p.UserID, chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidRole):
			respondError(w, http.StatusBadRequest, "invalid role")
		case errors.Is(err, identity.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		default:
			slog.ErrorContext(r.Context(), "failed to change role", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to change role")
		}
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// SetActiveRequest carries an activation flag.
type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetUserActive activates or deactivates an account.
func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := GetPrincipal(r.Context())
	userID := chi.URLParam(r, "userID")
	if userID == p.UserID && !req.IsActive {
		respondError(w, http.StatusBadRequest, "cannot deactivate your own account")
		return
	}

	user, err := h.identityService.SetActive(r.Context(), p.UserID, userID, req.IsActive)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to update active flag", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update account")
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// DeleteUser removes an account permanently.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	userID := chi.URLParam(r, "userID")
	if userID == p.UserID {
		respondError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.identityService.DeleteUser(r.Context(), p.UserID, userID); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete user", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
