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
)

// actionRepository numbers actions per tenant, so the same ID can exist in
// several tenants at once
type actionRepository struct {
	mu      sync.RWMutex
	actions map[string]map[int64]*model.Action
	nextID  map[string]int64
	users   *userRepository
}

func newActionRepository(users *userRepository) *actionRepository {
	return &actionRepository{
		actions: make(map[string]map[int64]*model.Action),
		nextID:  make(map[string]int64),
		users:   users,
	}
}

func (r *actionRepository) ensureTenant(tenantID string) {
	if _, exists := r.actions[tenantID]; !exists {
		r.actions[tenantID] = make(map[int64]*model.Action)
	}
	if _, exists := r.nextID[tenantID]; !exists {
		r.nextID[tenantID] = 1
	}
}

// copyAction creates a deep copy of an action
func copyAction(a *model.Action) *model.Action {
	c := *a
	c.Description = copyPtr(a.Description)
	c.DueDate = copyPtr(a.DueDate)
	c.AssignedTo = copyPtr(a.AssignedTo)
	c.AssignedToName = copyPtr(a.AssignedToName)
	return &c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// resolve returns a copy of a with AssignedToName filled in
func (r *actionRepository) resolve(a *model.Action) *model.Action {
	out := copyAction(a)
	out.AssignedToName = nil
	if a.AssignedTo != nil {
		out.AssignedToName = r.users.fullName(*a.AssignedTo)
	}
	return out
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) (*model.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureTenant(action.TenantID)

	now := time.Now().UTC()
	created := copyAction(action)
	created.ID = r.nextID[action.TenantID]
	created.CreatedAt = now
	created.UpdatedAt = now
	created.AssignedToName = nil
	r.nextID[action.TenantID]++

	r.actions[action.TenantID][created.ID] = created
	return r.resolve(created), nil
}

func (r *actionRepository) lookup(scope model.ActionScope, id int64) (*model.Action, error) {
	action, exists := r.actions[scope.TenantID][id]
	if !exists || !scope.Matches(action) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found",
			goerr.V("id", id),
			goerr.V("tenant_id", scope.TenantID),
			goerr.V("site_id", scope.SiteID))
	}
	return action, nil
}

func (r *actionRepository) Get(ctx context.Context, scope model.ActionScope, id int64) (*model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, err := r.lookup(scope, id)
	if err != nil {
		return nil, err
	}
	return r.resolve(action), nil
}

func (r *actionRepository) List(ctx context.Context, scope model.ActionScope, page model.Page) ([]*model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.Action, 0)
	for _, action := range r.actions[scope.TenantID] {
		if scope.Matches(action) {
			matched = append(matched, action)
		}
	}

	slices.SortFunc(matched, func(a, b *model.Action) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if page.Offset >= len(matched) {
		return []*model.Action{}, nil
	}
	end := min(page.Offset+page.Limit, len(matched))

	actions := make([]*model.Action, 0, end-page.Offset)
	for _, action := range matched[page.Offset:end] {
		actions = append(actions, r.resolve(action))
	}
	return actions, nil
}

func (r *actionRepository) Update(ctx context.Context, scope model.ActionScope, id int64, update *model.ActionUpdate) (*model.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.lookup(scope, id)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return r.resolve(existing), nil
	}

	updated := update.Apply(existing)
	updated.UpdatedAt = time.Now().UTC()
	updated.AssignedToName = nil

	r.actions[scope.TenantID][id] = updated
	return r.resolve(updated), nil
}
