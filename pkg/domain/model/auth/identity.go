package auth

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

// ErrNoIdentity is returned when a context carries no verified identity
var ErrNoIdentity = goerr.New("no identity in context")

// Identity is the verified claim set of the caller. It is produced once per
// request by the credential verifier and never persisted.
type Identity struct {
	UserID   string     `json:"userId"`
	TenantID string     `json:"tenantId"`
	SiteID   string     `json:"siteId"`
	Role     types.Role `json:"role"`
	Email    string     `json:"email"`
	FullName string     `json:"fullName"`
}

// IsManager reports whether the identity has unrestricted access within its site
func (x *Identity) IsManager() bool {
	return x != nil && x.Role.IsManager()
}

// Validate checks that every claim needed for scoping is present
func (x *Identity) Validate() error {
	if x.UserID == "" {
		return goerr.New("identity has no user ID")
	}
	if x.TenantID == "" || x.SiteID == "" {
		return goerr.New("identity has no tenant or site", goerr.V("user_id", x.UserID))
	}
	if !x.Role.IsValid() {
		return goerr.New("identity has invalid role", goerr.V("user_id", x.UserID), goerr.V("role", x.Role))
	}
	return nil
}

type ctxIdentityKey struct{}

// ContextWithIdentity returns a copy of ctx carrying the identity
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, identity)
}

// IdentityFromContext extracts the identity stored by ContextWithIdentity
func IdentityFromContext(ctx context.Context) (*Identity, error) {
	identity, ok := ctx.Value(ctxIdentityKey{}).(*Identity)
	if !ok || identity == nil {
		return nil, ErrNoIdentity
	}
	return identity, nil
}
