package auth

// Lifecycle actions guarded by permissions.
const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionDelete  = "delete"
	ActionRestore = "restore"
	ActionPurge   = "purge"
)

// Permission builds the permission name for an action on an entity type,
// e.g. "project:delete".
func Permission(entityType, action string) string {
	return entityType + ":" + action
}
