package domain

import (
	"strings"
	"time"
)

// Role groups permissions granted to staff members of a business.
type Role struct {
	ID          string    `json:"id" bson:"_id"`
	BusinessID  string    `json:"businessId" bson:"businessId"`
	Name        string    `json:"name" bson:"name"`
	NameKey     string    `json:"nameKey" bson:"nameKey"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Permissions []string  `json:"permissions" bson:"permissions"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (r *Role) EntityID() string { return r.ID }
func (r *Role) SetEntityID(id string) { r.ID = id }
func (r *Role) CreatedTime() time.Time { return r.CreatedAt }

// Touch refreshes UpdatedAt and sets CreatedAt on first write.
func (r *Role) Touch(at time.Time) {
	r.UpdatedAt = at
	if r.CreatedAt.IsZero() {
		r.CreatedAt = at
	}
}

// RoleNameKey folds a role name for uniqueness checks. "Admin" and " admin"
// share a key.
func RoleNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// HasPermission reports whether the role grants permission.
func (r *Role) HasPermission(permission string) bool {
	if r == nil || !r.Active {
		return false
	}
	for _, p := range r.Permissions {
		if p == permission || p == "*" {
			return true
		}
	}
	return false
}

// NormalizePermissions trims, lowercases and de-duplicates permission names, keeping order.
func NormalizePermissions(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// RolePatch is a partial update. Nil fields are left untouched.
type RolePatch struct {
	Name        *string
	Description *string
	Permissions []string
}

// Apply copies the non-nil fields of p onto r and returns the changed attribute names.
func (p RolePatch) Apply(r *Role) []string {
	var changed []string
	setString(&changed, "name", p.Name, &r.Name)
	r.NameKey = RoleNameKey(r.Name)
	setString(&changed, "description", p.Description, &r.Description)
	if p.Permissions != nil {
		r.Permissions = NormalizePermissions(p.Permissions)
		changed = append(changed, "permissions")
	}
	return changed
}
