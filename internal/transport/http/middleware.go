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
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dashgate/dashgate/internal/audit"
	"github.com/dashgate/dashgate/internal/observability/logger"
	"github.com/dashgate/dashgate/internal/rbac"
	"github.com/dashgate/dashgate/internal/token"
	"github.com/go-chi/chi/v5/middleware"
)

// The generic rejection body for every token-validation failure. The precise
// reason (bad signature, expired, wrong kind, unknown subject) stays in the
// server logs; handing it to the caller would leak whether an account exists
// or a token was merely stale.
const msgCouldNotValidate = "could not validate credentials"

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// Authenticate resolves the caller's identity from a bearer access token and
// short-circuits on failure. Downstream handlers read the principal from the
// request context; none of them see the raw token.
//
// Per-request flow: no token -> 401; invalid/expired/wrong-kind token -> 401
// (generic body); subject not in the directory -> the same 401 so a valid
// signature cannot be used to probe for deleted accounts; inactive account ->
// 403; otherwise the request proceeds with the principal attached. The role
// is read from the directory, not the token, so a role change takes effect
// on the next request rather than at the next token refresh.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims, err := h.tokenService.Validate(raw, token.KindAccess)
		if err != nil {
			slog.WarnContext(r.Context(), "access token rejected", logger.Error(err))
			respondError(w, http.StatusUnauthorized, msgCouldNotValidate)
			return
		}

		// Single directory lookup per request.
		user, err := h.identityService.GetUser(r.Context(), claims.Subject)
		if err != nil {
			slog.WarnContext(r.Context(), "token subject not found",
				logger.UserID(claims.Subject),
			)
			respondError(w, http.StatusUnauthorized, msgCouldNotValidate)
			return
		}

		if !user.IsActive {
			respondError(w, http.StatusForbidden, "inactive account")
			return
		}

		principal := &Principal{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// Require enforces an authorization requirement against the principal
// resolved by Authenticate. Stacks in a chi route chain:
//
//	r.With(h.Require(rbac.RequiredPermission(rbac.PermManageUsers))).Get(...)
func (h *Handler) Require(req rbac.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				respondError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			if !req.Satisfied(p.Role) {
				h.auditLogger.Log(r.Context(), audit.Event{
					Type:      audit.TypeAccessDenied,
					ActorID:   p.UserID,
					Resource:  r.Method + " " + r.URL.Path,
					IPAddress: getClientIP(r),
					Metadata:  map[string]any{audit.AttrReason: req.Describe()},
				})
				respondError(w, http.StatusForbidden, req.Describe())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route on the role hierarchy.
func (h *Handler) RequireRole(role rbac.Role) func(http.Handler) http.Handler {
	return h.Require(rbac.MinimumRole(role))
}

// RequirePermission gates a route on a discrete permission.
func (h *Handler) RequirePermission(permission rbac.Permission) func(http.Handler) http.Handler {
	return h.Require(rbac.RequiredPermission(permission))
}
