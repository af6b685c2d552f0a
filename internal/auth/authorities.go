package auth

// RolePrefix marks role authorities, e.g. ROLE_ADMIN.
const RolePrefix = "ROLE_"

// Authority codes checked by the route table.
const (
	// PermUserList allows paging through users.
	PermUserList = "system:user:list"
	// PermUserQuery allows reading a single user and other users' menus.
	PermUserQuery = "system:user:query"
	// PermUserAdd allows creating users.
	PermUserAdd = "system:user:add"
	// PermUserEdit allows updating users and their roles.
	PermUserEdit = "system:user:edit"
	// PermUserDelete allows deleting users.
	PermUserDelete = "system:user:delete"

	PermRoleList   = "system:role:list"
	PermRoleQuery  = "system:role:query"
	PermRoleAdd    = "system:role:add"
	PermRoleEdit   = "system:role:edit"
	PermRoleDelete = "system:role:delete"

	PermPermissionList   = "system:permission:list"
	PermPermissionAdd    = "system:permission:add"
	PermPermissionEdit   = "system:permission:edit"
	PermPermissionDelete = "system:permission:delete"
)

// RoleAuthority returns the authority string of a role code.
func RoleAuthority(code string) string {
	return RolePrefix + code
}
