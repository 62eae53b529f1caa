package interfaces

import (
	"context"

	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

// TaskRepository defines the interface for Task data access
type TaskRepository interface {
	// Create stores a new task with auto-generated ID
	Create(ctx context.Context, task *model.Task) (*model.Task, error)

	// List returns every task ordered by CreatedAt descending with assignee
	// and team names resolved
	List(ctx context.Context) ([]*model.Task, error)
}

// TeamRepository defines the interface for Team data access
type TeamRepository interface {
	// Put creates or replaces a team
	Put(ctx context.Context, team *model.Team) error
	Get(ctx context.Context, id types.TeamID) (*model.Team, error)
	List(ctx context.Context) ([]*model.Team, error)
}
