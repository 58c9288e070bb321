// ABOUTME: Authorization policy gating privileged bot commands
// ABOUTME: Static allow-list of admin user IDs, fixed at construction

package auth

// Policy answers whether an actor may invoke privileged commands
// (delete-all, export, stats). Membership is fixed at construction;
// there is no runtime mutation.
type Policy struct {
	admins map[string]struct{}
}

// NewPolicy builds a policy from the configured admin user IDs.
func NewPolicy(admins []string) *Policy {
	set := make(map[string]struct{}, len(admins))
	for _, id := range admins {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return &Policy{admins: set}
}

// IsPrivileged reports whether the user is on the admin allow-list.
func (p *Policy) IsPrivileged(userID string) bool {
	_, ok := p.admins[userID]
	return ok
}
