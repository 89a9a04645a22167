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
	"encoding/csv"
	"log/slog"
	"net/http"
	"time"

	"github.com/dashgate/dashgate/internal/identity"
	"github.com/dashgate/dashgate/internal/observability/logger"
	"github.com/dashgate/dashgate/internal/rbac"
)

// DashboardStats summarizes the user directory for the dashboard landing
// page.
type DashboardStats struct {
	TotalUsers  int            `json:"total_users"`
	UsersByRole map[string]int `json:"users_by_role"`
}

// DashboardStats returns directory counts, total and per role.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	users, total, err := h.identityService.ListUsers(r.Context(), identity.ListFilter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to compute dashboard stats", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	byRole := map[string]int{
		string(rbac.RoleAdmin):  0,
		string(rbac.RoleEditor): 0,
		string(rbac.RoleViewer): 0,
	}
	for _, u := range users {
		byRole[string(u.Role)]++
	}

	respondJSON(w, http.StatusOK, DashboardStats{
		TotalUsers:  total,
		UsersByRole: byRole,
	})
}

// LogEntry is one activity-log line.
type LogEntry struct {
	Type      string    `json:"type"`
	ActorID   string    `json:"actor_id,omitempty"`
	Resource  string    `json:"resource,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityLogs returns the most recent audit events, newest first. Only the
// in-process history is served here; durable audit storage is an external
// collaborator.
func (h *Handler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	events := h.auditHistory.Recent(limit)
	entries := make([]LogEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, LogEntry{
			Type:      e.Type,
			ActorID:   e.ActorID,
			Resource:  e.Resource,
			Timestamp: e.Timestamp,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"items": entries})
}

// SystemInfo reports server health for the admin panel.
type SystemInfo struct {
	ServerTime     time.Time `json:"server_time"`
	UptimeHours    float64   `json:"uptime_hours"`
	DatabaseStatus string    `json:"database_status"`
}

// SystemInfo returns server time, uptime, and directory connectivity. The
// connectivity probe is a single-row directory read.
func (h *Handler) SystemInfo(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if _, _, err := h.identityService.ListUsers(r.Context(), identity.ListFilter{Limit: 1}); err != nil {
		slog.WarnContext(r.Context(), "directory probe failed", logger.Error(err))
		dbStatus = "unavailable"
	}

	now := time.Now()
	respondJSON(w, http.StatusOK, SystemInfo{
		ServerTime:     now,
		UptimeHours:    now.Sub(h.startTime).Hours(),
		DatabaseStatus: dbStatus,
	})
}

// ExportUsers streams the user directory as CSV.
func (h *Handler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	users, _, err := h.identityService.ListUsers(r.Context(), identity.ListFilter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to export users", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to export users")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "username", "email", "full_name", "role", "is_active", "created_at"})
	for _, u := range users {
		active := "false"
		if u.IsActive {
			active = "true"
		}
		_ = cw.Write([]string{
			u.ID, u.Username, u.Email, u.FullName, string(u.Role),
			active, u.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
}
