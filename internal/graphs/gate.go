package graphs

import "fmt"

// Inspectable reports whether a node of this role may be opened for a deeper audit.
// Only the root is; every other role is locked behind a clearance tier that is not
// granted to anyone yet.
func Inspectable(role Role) bool {
	return role == RoleRoot
}

// DenyNotice is the blocking message shown when a locked node is clicked.
func DenyNotice(label string) string {
	return fmt.Sprintf(
		"⚠️ [ACCESS DENIED]\n\nDeep audit of secondary branches (%s) requires Level 2 clearance.\n"+
			"Feature restricted to mapping proxies and indirect suppliers.",
		label,
	)
}
