package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

type userRepository struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string
	members map[string]map[types.TeamID]struct{}
	teams   *teamRepository
}

func newUserRepository(teams *teamRepository) *userRepository {
	return &userRepository{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		members: make(map[string]map[types.TeamID]struct{}),
		teams:   teams,
	}
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Teams = slices.Clone(u.Teams)
	return &c
}

// fullName returns the display name of userID, or nil if it is unknown
func (r *userRepository) fullName(userID string) *string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.users[userID]
	if !exists {
		return nil
	}
	name := u.FullName
	return &name
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return nil, goerr.Wrap(interfaces.ErrConflict, "email already registered", goerr.V("email", user.Email))
	}

	created := copyUser(user)
	if created.ID == "" {
		created.ID = model.NewUserID()
	}
	if _, exists := r.users[created.ID]; exists {
		return nil, goerr.Wrap(interfaces.ErrConflict, "user ID already registered", goerr.V("id", created.ID))
	}

	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.users[created.ID] = created
	r.byEmail[created.Email] = created.ID
	return copyUser(created), nil
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
	}
	return copyUser(u), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[email]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("email", email))
	}
	return copyUser(r.users[id]), nil
}

func (r *userRepository) ExistsInSite(ctx context.Context, tenantID, siteID, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.users[userID]
	return exists && u.TenantID == tenantID && u.SiteID == siteID, nil
}

func (r *userRepository) ListBySite(ctx context.Context, tenantID, siteID string) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.User, 0)
	for _, u := range r.users {
		if u.TenantID == tenantID && u.SiteID == siteID {
			c := copyUser(u)
			c.Teams = r.teamNames(u.ID)
			users = append(users, c)
		}
	}

	slices.SortFunc(users, func(a, b *model.User) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Email, b.Email)
	})
	return users, nil
}

// teamNames must be called with r.mu held
func (r *userRepository) teamNames(userID string) []string {
	names := make([]string, 0, len(r.members[userID]))
	for id := range r.members[userID] {
		if name := r.teams.name(id); name != nil {
			names = append(names, *name)
		}
	}
	slices.Sort(names)
	return names
}

func (r *userRepository) AddTeam(ctx context.Context, userID string, teamID types.TeamID) error {
	if r.teams.name(teamID) == nil {
		return goerr.Wrap(interfaces.ErrNotFound, "team not found", goerr.V("team_id", teamID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[userID]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", userID))
	}
	if r.members[userID] == nil {
		r.members[userID] = make(map[types.TeamID]struct{})
	}
	r.members[userID][teamID] = struct{}{}
	return nil
}

type siteRepository struct {
	mu    sync.RWMutex
	sites map[string]*model.Site
}

func newSiteRepository() *siteRepository {
	return &siteRepository{
		sites: make(map[string]*model.Site),
	}
}

func siteKey(tenantID, siteID string) string {
	return tenantID + "/" + siteID
}

func (r *siteRepository) Put(ctx context.Context, site *model.Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *site
	r.sites[siteKey(site.TenantID, site.ID)] = &c
	return nil
}

func (r *siteRepository) Get(ctx context.Context, tenantID, siteID string) (*model.Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	site, exists := r.sites[siteKey(tenantID, siteID)]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "site not found",
			goerr.V("tenant_id", tenantID), goerr.V("site_id", siteID))
	}
	c := *site
	return &c, nil
}
