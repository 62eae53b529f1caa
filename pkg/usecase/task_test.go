package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
)

func TestTaskUseCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gt.NoError(t, f.repo.Team().Put(ctx, &model.Team{ID: "maintenance", Name: "Maintenance"})).Required()

	created, err := f.uc.Task.CreateTask(ctx, model.Payload{
		"title":      "Check pumps",
		"assignedTo": f.bob.ID,
		"teamId":     "maintenance",
	})
	gt.NoError(t, err).Required()
	gt.V(t, created.Status).Equal(model.DefaultTaskStatus)
	gt.V(t, *created.AssignedToName).Equal("Bob Operator")
	gt.V(t, *created.TeamName).Equal("Maintenance")

	_, err = f.uc.Task.CreateTask(ctx, model.Payload{})
	gt.Error(t, err).Is(model.ErrValidation)

	tasks, err := f.uc.Task.ListTasks(ctx)
	gt.NoError(t, err).Required()
	gt.A(t, tasks).Length(1)
	gt.V(t, tasks[0].ID).Equal(created.ID)
}
