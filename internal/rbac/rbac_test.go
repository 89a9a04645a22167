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

package rbac_test

import (
	"testing"

	"github.com/dashgate/dashgate/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionTable(t *testing.T) {
	tests := []struct {
		role       rbac.Role
		permission rbac.Permission
		want       bool
	}{
		{rbac.RoleAdmin, rbac.PermViewDashboard, true},
		{rbac.RoleAdmin, rbac.PermManageUsers, true},
		{rbac.RoleAdmin, rbac.PermEditSettings, true},
		{rbac.RoleAdmin, rbac.PermDeleteRecords, true},
		{rbac.RoleAdmin, rbac.PermManageRoles, true},
		{rbac.RoleEditor, rbac.PermViewDashboard, true},
		{rbac.RoleEditor, rbac.PermManageContent, true},
		{rbac.RoleEditor, rbac.PermViewLogs, true},
		{rbac.RoleEditor, rbac.PermExportData, true},
		{rbac.RoleEditor, rbac.PermManageUsers, false},
		{rbac.RoleEditor, rbac.PermEditSettings, false},
		{rbac.RoleEditor, rbac.PermDeleteRecords, false},
		{rbac.RoleEditor, rbac.PermManageRoles, false},
		{rbac.RoleViewer, rbac.PermViewDashboard, true},
		{rbac.RoleViewer, rbac.PermViewLogs, true},
		{rbac.RoleViewer, rbac.PermManageContent, false},
		{rbac.RoleViewer, rbac.PermExportData, false},
		{rbac.RoleViewer, rbac.PermManageUsers, false},
	}

	for _, tt := range tests {
		got := rbac.HasPermission(tt.role, tt.permission)
		assert.Equal(t, tt.want, got, "HasPermission(%s, %s)", tt.role, tt.permission)
	}
}

func TestAdminHasEveryPermission(t *testing.T) {
	for _, p := range rbac.AllPermissions {
		assert.True(t, rbac.HasPermission(rbac.RoleAdmin, p), "admin missing %s", p)
	}
	assert.Len(t, rbac.PermissionsOf(rbac.RoleAdmin), len(rbac.AllPermissions))
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	for _, s := range []string{"", "superadmin", "ADMIN", "root", "admin "} {
		role := rbac.Role(s)
		assert.False(t, rbac.HasPermission(role, rbac.PermViewDashboard), "role %q", s)
		assert.Empty(t, rbac.PermissionsOf(role), "role %q", s)
		assert.False(t, role.Valid(), "role %q", s)
		assert.Equal(t, 0, role.Level(), "role %q", s)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   rbac.Role
		wantOK bool
	}{
		{"admin", rbac.RoleAdmin, true},
		{"editor", rbac.RoleEditor, true},
		{"viewer", rbac.RoleViewer, true},
		{"manager", rbac.RoleEditor, true}, // legacy alias
		{"Admin", "", false},
		{"", "", false},
		{"owner", "", false},
	}

	for _, tt := range tests {
		got, ok := rbac.ParseRole(tt.in)
		require.Equal(t, tt.wantOK, ok, "ParseRole(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseRole(%q)", tt.in)
	}
}

func TestRoleHierarchy(t *testing.T) {
	assert.True(t, rbac.RoleAdmin.AtLeast(rbac.RoleViewer))
	assert.True(t, rbac.RoleAdmin.AtLeast(rbac.RoleAdmin))
	assert.True(t, rbac.RoleEditor.AtLeast(rbac.RoleViewer))
	assert.False(t, rbac.RoleViewer.AtLeast(rbac.RoleEditor))
	assert.False(t, rbac.RoleEditor.AtLeast(rbac.RoleAdmin))

	// Unknown roles fail on either side of the comparison.
	assert.False(t, rbac.Role("ghost").AtLeast(rbac.RoleViewer))
	assert.False(t, rbac.RoleAdmin.AtLeast(rbac.Role("ghost")))
}

func TestPermissionsOfReturnsCopy(t *testing.T) {
	perms := rbac.PermissionsOf(rbac.RoleViewer)
	require.NotEmpty(t, perms)
	perms[0] = rbac.PermManageRoles

	again := rbac.PermissionsOf(rbac.RoleViewer)
	assert.NotEqual(t, rbac.PermManageRoles, again[0], "table must be immutable through PermissionsOf")
}

func TestTableDoesNotAliasAllPermissions(t *testing.T) {
	require.NotEmpty(t, rbac.AllPermissions)
	saved := rbac.AllPermissions[0]
	rbac.AllPermissions[0] = rbac.Permission("bogus")
	defer func() { rbac.AllPermissions[0] = saved }()

	assert.True(t, rbac.HasPermission(rbac.RoleAdmin, saved),
		"writing AllPermissions must not reach the grant table")
	assert.False(t, rbac.HasPermission(rbac.RoleAdmin, rbac.Permission("bogus")))
}

func TestRequirementVariants(t *testing.T) {
	tests := []struct {
		name string
		req  rbac.Requirement
		role rbac.Role
		want bool
	}{
		{"min role admin vs admin", rbac.MinimumRole(rbac.RoleAdmin), rbac.RoleAdmin, true},
		{"min role admin vs editor", rbac.MinimumRole(rbac.RoleAdmin), rbac.RoleEditor, false},
		{"min role editor vs admin", rbac.MinimumRole(rbac.RoleEditor), rbac.RoleAdmin, true},
		{"min role viewer vs unknown", rbac.MinimumRole(rbac.RoleViewer), rbac.Role("nobody"), false},
		{"perm granted", rbac.RequiredPermission(rbac.PermViewLogs), rbac.RoleViewer, true},
		{"perm not granted", rbac.RequiredPermission(rbac.PermManageUsers), rbac.RoleEditor, false},
		{"perm unknown role", rbac.RequiredPermission(rbac.PermViewDashboard), rbac.Role("nobody"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Satisfied(tt.role))
			assert.NotEmpty(t, tt.req.Describe())
		})
	}
}
