package memory

import (
	"context"
	"time"

	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps everything in process. It is meant for development and tests.
type Memory struct {
	action *actionRepository
	user   *userRepository
	site   *siteRepository
	team   *teamRepository
	task   *taskRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	teamRepo := newTeamRepository()
	userRepo := newUserRepository(teamRepo)

	return &Memory{
		action: newActionRepository(userRepo),
		user:   userRepo,
		site:   newSiteRepository(),
		team:   teamRepo,
		task:   newTaskRepository(userRepo, teamRepo),
	}
}

func (m *Memory) Action() interfaces.ActionRepository {
	return m.action
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Site() interfaces.SiteRepository {
	return m.site
}

func (m *Memory) Team() interfaces.TeamRepository {
	return m.team
}

func (m *Memory) Task() interfaces.TaskRepository {
	return m.task
}

func (m *Memory) Ping(ctx context.Context) (time.Time, error) {
	return time.Now().UTC(), nil
}

func (m *Memory) Close() error {
	return nil
}
