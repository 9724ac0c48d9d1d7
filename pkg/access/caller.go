// Package access holds the caller identity and the owner-set rules that decide
// who can see and who can change a dataset.
package access

import "strings"

const AdminRole = "admin"

// Caller is the authenticated identity a request is made on behalf of.
type Caller struct {
	Username string
	Roles    []string
}

func (c Caller) IsAdmin() bool {
	for _, role := range c.Roles {
		if strings.EqualFold(strings.TrimSpace(role), AdminRole) {
			return true
		}
	}

	return false
}
