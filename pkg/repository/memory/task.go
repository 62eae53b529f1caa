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

type taskRepository struct {
	mu     sync.RWMutex
	tasks  map[int64]*model.Task
	nextID int64
	users  *userRepository
	teams  *teamRepository
}

func newTaskRepository(users *userRepository, teams *teamRepository) *taskRepository {
	return &taskRepository{
		tasks:  make(map[int64]*model.Task),
		nextID: 1,
		users:  users,
		teams:  teams,
	}
}

func copyTask(t *model.Task) *model.Task {
	c := *t
	c.Description = copyPtr(t.Description)
	c.DueDate = copyPtr(t.DueDate)
	c.AssignedTo = copyPtr(t.AssignedTo)
	c.TeamID = copyPtr(t.TeamID)
	c.AssignedToName = nil
	c.TeamName = nil
	return &c
}

func (r *taskRepository) resolve(t *model.Task) *model.Task {
	out := copyTask(t)
	if t.AssignedTo != nil {
		out.AssignedToName = r.users.fullName(*t.AssignedTo)
	}
	if t.TeamID != nil {
		out.TeamName = r.teams.name(*t.TeamID)
	}
	return out
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyTask(task)
	created.ID = r.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++

	r.tasks[created.ID] = created
	return r.resolve(created), nil
}

func (r *taskRepository) List(ctx context.Context) ([]*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, r.resolve(t))
	}

	slices.SortFunc(tasks, func(a, b *model.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return tasks, nil
}

type teamRepository struct {
	mu    sync.RWMutex
	teams map[types.TeamID]*model.Team
}

func newTeamRepository() *teamRepository {
	return &teamRepository{
		teams: make(map[types.TeamID]*model.Team),
	}
}

func (r *teamRepository) name(id types.TeamID) *string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, exists := r.teams[id]
	if !exists {
		return nil
	}
	name := team.Name
	return &name
}

func (r *teamRepository) Put(ctx context.Context, team *model.Team) error {
	if err := team.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := *team
	r.teams[team.ID] = &c
	return nil
}

func (r *teamRepository) Get(ctx context.Context, id types.TeamID) (*model.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, exists := r.teams[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "team not found", goerr.V("id", id))
	}
	c := *team
	return &c, nil
}

func (r *teamRepository) List(ctx context.Context) ([]*model.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	teams := make([]*model.Team, 0, len(r.teams))
	for _, team := range r.teams {
		c := *team
		teams = append(teams, &c)
	}
	slices.SortFunc(teams, func(a, b *model.Team) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return teams, nil
}
