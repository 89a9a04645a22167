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

package rbac

// Requirement is an authorization condition an endpoint places on the caller.
// Two enforcement styles exist in the system: a role-hierarchy floor and a
// discrete permission check. Both are kept as variants behind one interface.
type Requirement interface {
	// Satisfied reports whether a caller holding the given role passes.
	Satisfied(role Role) bool

	// Describe names the missing requirement for 403 responses. It is safe
	// to show to the rejected caller; it never carries another user's data.
	Describe() string
}

type minimumRole struct {
	role Role
}

// MinimumRole requires the caller's role to rank at or above the given role.
func MinimumRole(role Role) Requirement {
	return minimumRole{role: role}
}

func (m minimumRole) Satisfied(role Role) bool {
	return role.AtLeast(m.role)
}

func (m minimumRole) Describe() string {
	return "role '" + string(m.role) + "' or higher is required"
}

type requiredPermission struct {
	permission Permission
}

// RequiredPermission requires the caller's role to be granted the permission.
func RequiredPermission(permission Permission) Requirement {
	return requiredPermission{permission: permission}
}

func (p requiredPermission) Satisfied(role Role) bool {
	return HasPermission(role, p.permission)
}

func (p requiredPermission) Describe() string {
	return "permission '" + string(p.permission) + "' is required"
}
