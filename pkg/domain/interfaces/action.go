package interfaces

import (
	"context"

	"github.com/secmon-lab/entelligence/pkg/domain/model"
)

// ActionRepository defines the interface for Action data access. Every read
// and write is bounded by an ActionScope; records outside the scope behave
// as if they did not exist. Returned actions carry AssignedToName.
type ActionRepository interface {
	// Create stores a new action and assigns ID, CreatedAt and UpdatedAt
	Create(ctx context.Context, action *model.Action) (*model.Action, error)

	// Get retrieves an action by ID within scope
	Get(ctx context.Context, scope model.ActionScope, id int64) (*model.Action, error)

	// List retrieves actions within scope ordered by CreatedAt descending,
	// ties broken by ID descending
	List(ctx context.Context, scope model.ActionScope, page model.Page) ([]*model.Action, error)

	// Update merges the present fields of update into the action and bumps
	// UpdatedAt. It returns ErrNotFound if the action is outside scope.
	Update(ctx context.Context, scope model.ActionScope, id int64, update *model.ActionUpdate) (*model.Action, error)
}
