package model

import "github.com/secmon-lab/entelligence/pkg/domain/model/auth"

// Access decisions for actions. They are pure: tenant and site matching is
// done by the repository scope before a row reaches these functions.

// IsActionOwner reports whether identity created the action or is assigned to it
func IsActionOwner(identity *auth.Identity, action *Action) bool {
	if identity == nil || action == nil {
		return false
	}
	return action.CreatedBy == identity.UserID || action.IsAssignedTo(identity.UserID)
}

// CanReadAction reports whether identity may see action
func CanReadAction(identity *auth.Identity, action *Action) bool {
	return identity.IsManager() || IsActionOwner(identity, action)
}

// CanWriteAction reports whether identity may modify action
func CanWriteAction(identity *auth.Identity, action *Action) bool {
	return identity.IsManager() || IsActionOwner(identity, action)
}

// CanAssign reports whether identity may set the assignee to targetUserID.
// Operators may only assign themselves or leave the action unassigned.
func CanAssign(identity *auth.Identity, targetUserID *string) bool {
	if identity == nil {
		return false
	}
	if targetUserID == nil || *targetUserID == "" {
		return true
	}
	return identity.IsManager() || *targetUserID == identity.UserID
}

// ScopeFor returns the query scope that makes visible exactly the actions
// identity may read
func ScopeFor(identity *auth.Identity) ActionScope {
	scope := ActionScope{
		TenantID: identity.TenantID,
		SiteID:   identity.SiteID,
	}
	if !identity.IsManager() {
		scope.OwnerID = identity.UserID
	}
	return scope
}

// SiteScopeFor returns the tenant/site scope of identity without ownership
// filtering
func SiteScopeFor(identity *auth.Identity) ActionScope {
	return ActionScope{
		TenantID: identity.TenantID,
		SiteID:   identity.SiteID,
	}
}
