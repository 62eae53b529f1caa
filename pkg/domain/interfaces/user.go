package interfaces

import (
	"context"

	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

// UserRepository defines the interface for User data access
type UserRepository interface {
	// Create stores a new user. Returns ErrConflict if the email is taken.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	Get(ctx context.Context, id string) (*model.User, error)

	// GetByEmail looks a user up by login email
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// ExistsInSite reports whether userID belongs to the given tenant and site
	ExistsInSite(ctx context.Context, tenantID, siteID, userID string) (bool, error)

	// ListBySite returns the users of a site ordered by CreatedAt descending,
	// each with Teams resolved
	ListBySite(ctx context.Context, tenantID, siteID string) ([]*model.User, error)
	// AddTeam makes userID a member of teamID. Adding an existing membership
	// is a no-op. Returns ErrNotFound if either the user or the team is unknown.
	AddTeam(ctx context.Context, userID string, teamID types.TeamID) error
}

// SiteRepository defines the interface for Site data access
type SiteRepository interface {
	// Put creates or replaces a site
	Put(ctx context.Context, site *model.Site) error
	Get(ctx context.Context, tenantID, siteID string) (*model.Site, error)
}
