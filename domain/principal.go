package domain

import "context"

// Principal is the authenticated actor resolved once at the HTTP boundary.
type Principal struct {
	UserID     string   `json:"user_id"`
	BusinessID string   `json:"business_id,omitempty"`
	CommerceID string   `json:"commerce_id,omitempty"`
	Roles      []string `json:"roles,omitempty"`
}

// Anonymous reports whether no user could be resolved.
func (p Principal) Anonymous() bool {
	return p.UserID == ""
}

// Actor returns the value recorded as the event "user" metadata.
func (p Principal) Actor() string {
	if p.UserID == "" {
		return "system"
	}
	return p.UserID
}

// Metadata returns the event metadata overrides describing this principal.
func (p Principal) Metadata() Metadata {
	md := Metadata{MetaUser: p.Actor()}
	if p.BusinessID != "" {
		md[MetaBusinessID] = p.BusinessID
	}
	if p.CommerceID != "" {
		md[MetaCommerceID] = p.CommerceID
	}
	return md
}

type principalKey struct{}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx, or an anonymous one.
func PrincipalFromContext(ctx context.Context) Principal {
	if ctx == nil {
		return Principal{}
	}
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Principal{}
}
