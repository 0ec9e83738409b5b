package shared

// Core platform permission slugs. Each slug matches a menu in the catalog;
// RBAC resolves a user's effective slugs from the profile's menu assignments.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermProfilesView = "profiles.view"
	PermProfilesEdit = "profiles.edit"

	PermMenusView = "menus.view"
	PermMenusEdit = "menus.edit"

	PermPermissionsView = "permissions.view"
	PermPermissionsEdit = "permissions.edit"

	PermWorkflowView    = "workflow.view"
	PermWorkflowApprove = "workflow.approve"
)

// CoreScopes lists all permissions of the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermProfilesView,
		PermProfilesEdit,
		PermMenusView,
		PermMenusEdit,
		PermPermissionsView,
		PermPermissionsEdit,
		PermWorkflowView,
		PermWorkflowApprove,
	}
}
