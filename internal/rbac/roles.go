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

// Role is a closed set of account roles. Unknown strings never become a Role;
// ParseRole is the only way in, and it fails closed.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Permission is a closed set of capability tokens granted to roles.
type Permission string

const (
	PermViewDashboard Permission = "view_dashboard"
	PermManageUsers   Permission = "manage_users"
	PermEditSettings  Permission = "edit_settings"
	PermViewLogs      Permission = "view_logs"
	PermManageContent Permission = "manage_content"
	PermExportData    Permission = "export_data"
	PermDeleteRecords Permission = "delete_records"
	PermManageRoles   Permission = "manage_roles"
)

// AllPermissions lists every permission in the system. Admin is granted the
// full set.
var AllPermissions = []Permission{
	PermViewDashboard,
	PermManageUsers,
	PermEditSettings,
	PermViewLogs,
	PermManageContent,
	PermExportData,
	PermDeleteRecords,
	PermManageRoles,
}

// rolePermissions maps each role to its granted permission set.
// Read-only after package init: changing grants requires a redeploy,
// there is no runtime mutation path. Each entry owns its slice; the
// table never aliases an exported variable.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermViewDashboard,
		PermManageUsers,
		PermEditSettings,
		PermViewLogs,
		PermManageContent,
		PermExportData,
		PermDeleteRecords,
		PermManageRoles,
	},
	RoleEditor: {
		PermViewDashboard,
		PermManageContent,
		PermViewLogs,
		PermExportData,
	},
	RoleViewer: {
		PermViewDashboard,
		PermViewLogs,
	},
}

// roleLevels orders roles for minimum-role checks. Roles outside the closed
// set rank below every real role, so they fail any requirement.
var roleLevels = map[Role]int{
	RoleAdmin:  3,
	RoleEditor: 2,
	RoleViewer: 1,
}

// ParseRole maps an arbitrary string to a Role. The legacy alias "manager"
// is accepted for editor; anything else is rejected.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleEditor, RoleViewer:
		return Role(s), true
	}
	if s == "manager" {
		return RoleEditor, true
	}
	return "", false
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the hierarchy rank of the role. Unknown roles rank 0.
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether r ranks at or above the required role.
// An unknown role on either side fails the check.
func (r Role) AtLeast(required Role) bool {
	if !required.Valid() {
		return false
	}
	return r.Level() >= required.Level()
}

// HasPermission reports whether the role is granted the permission.
// Unknown roles and ungranted permissions both return false, never an error.
func HasPermission(role Role, permission Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// PermissionsOf returns the permissions granted to a role. The result is a
// copy; callers cannot mutate the table. Unknown roles get an empty set.
func PermissionsOf(role Role) []Permission {
	granted := rolePermissions[role]
	out := make([]Permission, len(granted))
	copy(out, granted)
	return out
}
