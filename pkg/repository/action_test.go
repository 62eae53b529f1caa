package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

type actionFixture struct {
	tenantID string
	siteID   string
	alice    *model.User
	bob      *model.User
}

func setupActionFixture(t *testing.T, repo interfaces.Repository) *actionFixture {
	t.Helper()
	ctx := context.Background()

	f := &actionFixture{
		tenantID: uniq("tenant"),
		siteID:   uniq("site"),
	}

	var err error
	f.alice, err = repo.User().Create(ctx, &model.User{
		TenantID:     f.tenantID,
		SiteID:       f.siteID,
		Email:        uniq("alice") + "@example.com",
		FullName:     "Alice Operator",
		Role:         types.RoleOperator,
		PasswordHash: "x",
	})
	gt.NoError(t, err).Required()

	f.bob, err = repo.User().Create(ctx, &model.User{
		TenantID:     f.tenantID,
		SiteID:       f.siteID,
		Email:        uniq("bob") + "@example.com",
		FullName:     "Bob Operator",
		Role:         types.RoleOperator,
		PasswordHash: "x",
	})
	gt.NoError(t, err).Required()

	return f
}

func (f *actionFixture) siteScope() model.ActionScope {
	return model.ActionScope{TenantID: f.tenantID, SiteID: f.siteID}
}

func (f *actionFixture) newAction(title, createdBy string, assignedTo *string) *model.Action {
	return &model.Action{
		TenantID:   f.tenantID,
		SiteID:     f.siteID,
		Title:      title,
		Status:     types.ActionStatusOpen,
		Priority:   types.PriorityMedium,
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
	}
}

func TestActionRepository(t *testing.T) {
	runAll(t, runActionRepositoryTest)
}

func runActionRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Run("Create assigns ID and timestamps and resolves the assignee name", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)

		due := time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC)
		input := f.newAction("Replace filter", f.alice.ID, ptr(f.bob.ID))
		input.Description = ptr("filter is clogged")
		input.Priority = types.PriorityHigh
		input.DueDate = &due

		created, err := repo.Action().Create(ctx, input)
		gt.NoError(t, err).Required()

		gt.Value(t, created.ID).NotEqual(int64(0))
		gt.Value(t, created.TenantID).Equal(f.tenantID)
		gt.Value(t, created.SiteID).Equal(f.siteID)
		gt.Value(t, created.Title).Equal("Replace filter")
		gt.Value(t, *created.Description).Equal("filter is clogged")
		gt.Value(t, created.Priority).Equal(types.PriorityHigh)
		gt.Value(t, created.Status).Equal(types.ActionStatusOpen)
		gt.Value(t, created.CreatedBy).Equal(f.alice.ID)
		gt.Value(t, *created.AssignedTo).Equal(f.bob.ID)
		gt.Value(t, created.AssignedToName).NotNil()
		gt.Value(t, *created.AssignedToName).Equal("Bob Operator")
		gt.Bool(t, created.DueDate.Equal(due)).True()
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.Equal(created.CreatedAt)).True()
	})

	t.Run("Get round-trips the stored record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)

		created, err := repo.Action().Create(ctx, f.newAction("Inspect pump", f.alice.ID, nil))
		gt.NoError(t, err).Required()

		got, err := repo.Action().Get(ctx, f.siteScope(), created.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, got.ID).Equal(created.ID)
		gt.Value(t, got.Title).Equal(created.Title)
		gt.Value(t, got.AssignedTo).Nil()
		gt.Value(t, got.AssignedToName).Nil()
		gt.Value(t, got.Description).Nil()
		gt.Value(t, got.DueDate).Nil()
	})

	t.Run("Get hides actions outside the scope", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)

		created, err := repo.Action().Create(ctx, f.newAction("Private", f.alice.ID, nil))
		gt.NoError(t, err).Required()

		scopes := map[string]model.ActionScope{
			"other tenant": {TenantID: uniq("tenant"), SiteID: f.siteID},
			"other site":   {TenantID: f.tenantID, SiteID: uniq("site")},
			"non owner":    {TenantID: f.tenantID, SiteID: f.siteID, OwnerID: f.bob.ID},
		}
		for name, scope := range scopes {
			t.Run(name, func(t *testing.T) {
				_, err := repo.Action().Get(ctx, scope, created.ID)
				gt.Error(t, err).Is(interfaces.ErrNotFound)
			})
		}

		got, err := repo.Action().Get(ctx, model.ActionScope{TenantID: f.tenantID, SiteID: f.siteID, OwnerID: f.alice.ID}, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(created.ID)
	})

	t.Run("Get returns ErrNotFound for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		f := setupActionFixture(t, repo)

		_, err := repo.Action().Get(context.Background(), f.siteScope(), 987654321)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("List orders newest first and honours owner scope", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)

		a1, err := repo.Action().Create(ctx, f.newAction("Created by alice", f.alice.ID, nil))
		gt.NoError(t, err).Required()
		a2, err := repo.Action().Create(ctx, f.newAction("Assigned to alice", f.bob.ID, ptr(f.alice.ID)))
		gt.NoError(t, err).Required()
		a3, err := repo.Action().Create(ctx, f.newAction("Bob only", f.bob.ID, nil))
		gt.NoError(t, err).Required()

		all, err := repo.Action().List(ctx, f.siteScope(), model.Page{Limit: 50})
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(3)
		gt.Value(t, all[0].ID).Equal(a3.ID)
		gt.Value(t, all[1].ID).Equal(a2.ID)
		gt.Value(t, all[2].ID).Equal(a1.ID)
		gt.Value(t, *all[1].AssignedToName).Equal("Alice Operator")

		owned, err := repo.Action().List(ctx, model.ActionScope{
			TenantID: f.tenantID,
			SiteID:   f.siteID,
			OwnerID:  f.alice.ID,
		}, model.Page{Limit: 50})
		gt.NoError(t, err).Required()
		gt.Array(t, owned).Length(2)
		gt.Value(t, owned[0].ID).Equal(a2.ID)
		gt.Value(t, owned[1].ID).Equal(a1.ID)
	})

	t.Run("List applies limit and offset", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)

		ids := make([]int64, 0, 5)
		for _, title := range []string{"first", "second", "third", "fourth", "fifth"} {
			a, err := repo.Action().Create(ctx, f.newAction(title, f.alice.ID, nil))
			gt.NoError(t, err).Required()
			ids = append(ids, a.ID)
		}

		page, err := repo.Action().List(ctx, f.siteScope(), model.Page{Limit: 2, Offset: 1})
		gt.NoError(t, err).Required()
		gt.Array(t, page).Length(2)
		gt.Value(t, page[0].ID).Equal(ids[3])
		gt.Value(t, page[1].ID).Equal(ids[2])

		empty, err := repo.Action().List(ctx, f.siteScope(), model.Page{Limit: 0})
		gt.NoError(t, err).Required()
		gt.Array(t, empty).Length(0)

		beyond, err := repo.Action().List(ctx, f.siteScope(), model.Page{Limit: 10, Offset: 100})
		gt.NoError(t, err).Required()
		gt.Array(t, beyond).Length(0)
	})

	t.Run("List never crosses tenants", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)
		other := setupActionFixture(t, repo)

		_, err := repo.Action().Create(ctx, f.newAction("Mine", f.alice.ID, nil))
		gt.NoError(t, err).Required()
		_, err = repo.Action().Create(ctx, other.newAction("Theirs", other.alice.ID, nil))
		gt.NoError(t, err).Required()

		actions, err := repo.Action().List(ctx, f.siteScope(), model.Page{Limit: 50})
		gt.NoError(t, err).Required()
		gt.Array(t, actions).Length(1)
		gt.Value(t, actions[0].Title).Equal("Mine")
	})

	t.Run("Update changes only present fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)

		input := f.newAction("Original title", f.alice.ID, ptr(f.alice.ID))
		input.Description = ptr("keep me")
		created, err := repo.Action().Create(ctx, input)
		gt.NoError(t, err).Required()

		status := types.ActionStatusInProgress
		updated, err := repo.Action().Update(ctx, f.siteScope(), created.ID, &model.ActionUpdate{
			Status:     &status,
			AssignedTo: ptr(f.bob.ID),
		})
		gt.NoError(t, err).Required()

		gt.Value(t, updated.Status).Equal(types.ActionStatusInProgress)
		gt.Value(t, *updated.AssignedTo).Equal(f.bob.ID)
		gt.Value(t, *updated.AssignedToName).Equal("Bob Operator")
		gt.Value(t, updated.Title).Equal("Original title")
		gt.Value(t, *updated.Description).Equal("keep me")
		gt.Value(t, updated.CreatedBy).Equal(f.alice.ID)
		gt.Bool(t, updated.CreatedAt.Equal(created.CreatedAt)).True()
		gt.Bool(t, updated.UpdatedAt.Before(created.UpdatedAt)).False()
	})

	t.Run("Update with empty assignee clears the assignment", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)

		created, err := repo.Action().Create(ctx, f.newAction("Assigned", f.alice.ID, ptr(f.bob.ID)))
		gt.NoError(t, err).Required()

		updated, err := repo.Action().Update(ctx, f.siteScope(), created.ID, &model.ActionUpdate{AssignedTo: ptr("")})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.AssignedTo).Nil()
		gt.Value(t, updated.AssignedToName).Nil()
	})

	t.Run("Empty update leaves the record untouched", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)

		created, err := repo.Action().Create(ctx, f.newAction("Stable", f.alice.ID, nil))
		gt.NoError(t, err).Required()

		got, err := repo.Action().Update(ctx, f.siteScope(), created.ID, &model.ActionUpdate{})
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal(created.Title)
		gt.Bool(t, got.UpdatedAt.Equal(created.UpdatedAt)).True()
	})

	t.Run("Update outside scope returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		f := setupActionFixture(t, repo)
		other := setupActionFixture(t, repo)

		created, err := repo.Action().Create(ctx, f.newAction("Tenant A", f.alice.ID, nil))
		gt.NoError(t, err).Required()

		title := "Hijacked"
		_, err = repo.Action().Update(ctx, other.siteScope(), created.ID, &model.ActionUpdate{Title: &title})
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()

		got, err := repo.Action().Get(ctx, f.siteScope(), created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Tenant A")
	})
}
