package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/model/auth"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"github.com/secmon-lab/entelligence/pkg/usecase"
)

func createAction(t *testing.T, f *fixture, owner *model.User, payload model.Payload) *model.Action {
	t.Helper()
	a, err := f.uc.Action.CreateAction(context.Background(), identityOf(owner), payload)
	gt.NoError(t, err).Required()
	return a
}

func TestActionUseCase_CreateAction(t *testing.T) {
	t.Run("fills tenant, site, creator and defaults", func(t *testing.T) {
		f := newFixture(t)
		created := createAction(t, f, f.alice, model.Payload{"title": "Replace valve"})

		gt.Number(t, created.ID).NotEqual(0)
		gt.V(t, created.TenantID).Equal(testTenantID)
		gt.V(t, created.SiteID).Equal(testSiteID)
		gt.V(t, created.CreatedBy).Equal(f.alice.ID)
		gt.V(t, created.Status).Equal(types.ActionStatusOpen)
		gt.V(t, created.Priority).Equal(types.PriorityMedium)
		gt.V(t, created.AssignedTo).Nil()
	})

	t.Run("round trip keeps every supplied field", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		created := createAction(t, f, f.manager, model.Payload{
			"title":       "Inspect boiler",
			"description": "Annual inspection",
			"priority":    "high",
			"assigned_to": f.bob.ID,
			"due_date":    "2026-11-01",
		})

		got, err := f.uc.Action.GetAction(ctx, identityOf(f.manager), created.ID)
		gt.NoError(t, err).Required()
		gt.V(t, got.Title).Equal("Inspect boiler")
		gt.V(t, *got.Description).Equal("Annual inspection")
		gt.V(t, got.Priority).Equal(types.PriorityHigh)
		gt.V(t, *got.AssignedTo).Equal(f.bob.ID)
		gt.V(t, *got.AssignedToName).Equal("Bob Operator")
		gt.V(t, got.DueDate.Format("2006-01-02")).Equal("2026-11-01")
	})

	t.Run("rejects a two character title", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Action.CreateAction(context.Background(), identityOf(f.alice), model.Payload{"title": "ab"})
		gt.Error(t, err).Is(model.ErrValidation)

		var ve *model.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		gt.V(t, ve.Field).Equal(model.FieldTitle)
	})

	t.Run("operator cannot assign another user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Action.CreateAction(context.Background(), identityOf(f.alice), model.Payload{
			"title":       "Valid title",
			"assigned_to": f.bob.ID,
		})
		gt.Error(t, err).Is(usecase.ErrAssignDenied)
	})

	t.Run("operator may assign themselves", func(t *testing.T) {
		f := newFixture(t)
		created := createAction(t, f, f.alice, model.Payload{
			"title":       "Valid title",
			"assigned_to": f.alice.ID,
		})
		gt.V(t, *created.AssignedTo).Equal(f.alice.ID)
	})

	t.Run("assignee must live in the same tenant and site", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Action.CreateAction(context.Background(), identityOf(f.manager), model.Payload{
			"title":       "Valid title",
			"assigned_to": f.outsider.ID,
		})
		gt.Error(t, err).Is(usecase.ErrAssigneeOutOfScope)
	})

	t.Run("nil identity is unauthenticated", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Action.CreateAction(context.Background(), nil, model.Payload{"title": "Valid title"})
		gt.Error(t, err).Is(usecase.ErrUnauthenticated)
	})
}

func TestActionUseCase_ListActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := createAction(t, f, f.alice, model.Payload{"title": "Alice own"})
	assigned := createAction(t, f, f.manager, model.Payload{"title": "For alice", "assigned_to": f.alice.ID})
	_ = createAction(t, f, f.bob, model.Payload{"title": "Bob own"})

	t.Run("operator sees created and assigned actions only", func(t *testing.T) {
		actions, err := f.uc.Action.ListActions(ctx, identityOf(f.alice), model.Page{Limit: 50})
		gt.NoError(t, err).Required()
		gt.A(t, actions).Length(2)
		gt.V(t, actions[0].ID).Equal(assigned.ID)
		gt.V(t, actions[1].ID).Equal(mine.ID)
	})

	t.Run("manager sees the whole site", func(t *testing.T) {
		actions, err := f.uc.Action.ListActions(ctx, identityOf(f.manager), model.Page{Limit: 50})
		gt.NoError(t, err).Required()
		gt.A(t, actions).Length(3)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		actions, err := f.uc.Action.ListActions(ctx, identityOf(f.outsider), model.Page{Limit: 50})
		gt.NoError(t, err).Required()
		gt.A(t, actions).Length(0)
	})

	t.Run("limit and offset window the listing", func(t *testing.T) {
		actions, err := f.uc.Action.ListActions(ctx, identityOf(f.manager), model.Page{Limit: 1, Offset: 1})
		gt.NoError(t, err).Required()
		gt.A(t, actions).Length(1)
		gt.V(t, actions[0].ID).Equal(assigned.ID)
	})
}

func TestActionUseCase_GetAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bobs := createAction(t, f, f.bob, model.Payload{"title": "Bob own"})

	testCases := []struct {
		name     string
		identity *auth.Identity
		wantErr  error
	}{
		{name: "creator", identity: identityOf(f.bob)},
		{name: "manager", identity: identityOf(f.manager)},
		{name: "other operator", identity: identityOf(f.alice), wantErr: usecase.ErrActionNotFound},
		{name: "other tenant", identity: identityOf(f.outsider), wantErr: usecase.ErrActionNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.uc.Action.GetAction(ctx, tc.identity, bobs.ID)
			if tc.wantErr != nil {
				gt.Error(t, err).Is(tc.wantErr)
				return
			}
			gt.NoError(t, err).Required()
			gt.V(t, got.ID).Equal(bobs.ID)
		})
	}

	t.Run("missing id", func(t *testing.T) {
		_, err := f.uc.Action.GetAction(ctx, identityOf(f.manager), 99999)
		gt.Error(t, err).Is(usecase.ErrActionNotFound)
	})
}

func TestActionUseCase_UpdateAction(t *testing.T) {
	t.Run("only supplied fields change", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created := createAction(t, f, f.alice, model.Payload{"title": "Original", "description": "keep me", "priority": "low"})

		updated, err := f.uc.Action.UpdateAction(ctx, identityOf(f.alice), created.ID, model.Payload{"status": "in_progress"})
		gt.NoError(t, err).Required()
		gt.V(t, updated.Status).Equal(types.ActionStatusInProgress)
		gt.V(t, updated.Title).Equal("Original")
		gt.V(t, *updated.Description).Equal("keep me")
		gt.V(t, updated.Priority).Equal(types.PriorityLow)
		gt.V(t, updated.CreatedBy).Equal(f.alice.ID)
	})

	t.Run("empty payload returns the record unchanged", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created := createAction(t, f, f.alice, model.Payload{"title": "Original"})

		updated, err := f.uc.Action.UpdateAction(ctx, identityOf(f.alice), created.ID, model.Payload{})
		gt.NoError(t, err).Required()
		gt.V(t, updated.Title).Equal(created.Title)
		gt.V(t, updated.Status).Equal(created.Status)
		gt.B(t, updated.UpdatedAt.Equal(created.UpdatedAt)).True()
	})

	t.Run("manager can clear the assignee", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created := createAction(t, f, f.manager, model.Payload{"title": "Assigned", "assigned_to": f.bob.ID})

		updated, err := f.uc.Action.UpdateAction(ctx, identityOf(f.manager), created.ID, model.Payload{"assigned_to": ""})
		gt.NoError(t, err).Required()
		gt.V(t, updated.AssignedTo).Nil()
	})

	t.Run("operator cannot reassign even a valid payload", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created := createAction(t, f, f.alice, model.Payload{"title": "Mine"})

		_, err := f.uc.Action.UpdateAction(ctx, identityOf(f.alice), created.ID, model.Payload{"assigned_to": f.bob.ID})
		gt.Error(t, err).Is(usecase.ErrAssignDenied)
	})

	t.Run("operator cannot modify a foreign action", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created := createAction(t, f, f.bob, model.Payload{"title": "Bob own"})

		_, err := f.uc.Action.UpdateAction(ctx, identityOf(f.alice), created.ID, model.Payload{"status": "completed"})
		gt.Error(t, err).Is(usecase.ErrAccessDenied)
	})

	t.Run("other tenant gets not found", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created := createAction(t, f, f.alice, model.Payload{"title": "Mine"})

		_, err := f.uc.Action.UpdateAction(ctx, identityOf(f.outsider), created.ID, model.Payload{"status": "completed"})
		gt.Error(t, err).Is(usecase.ErrActionNotFound)
	})

	t.Run("validation runs before access checks", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created := createAction(t, f, f.bob, model.Payload{"title": "Bob own"})

		_, err := f.uc.Action.UpdateAction(ctx, identityOf(f.alice), created.ID, model.Payload{"priority": "urgent"})
		gt.Error(t, err).Is(model.ErrValidation)
	})
}
