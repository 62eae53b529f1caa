package http_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
)

func TestTasks(t *testing.T) {
	env := newTestEnv(t)
	gt.NoError(t, env.repo.Team().Put(context.Background(), &model.Team{ID: "ops", Name: "Operations"})).Required()

	rec := env.do(t, http.MethodPost, "/api/tasks", env.alice, map[string]any{
		"title":      "Check pumps",
		"teamId":     "ops",
		"assignedTo": env.bob.ID,
		"dueDate":    "2026-12-24",
	})
	gt.V(t, rec.Code).Equal(http.StatusCreated)
	created := decode[map[string]any](t, rec)
	gt.V(t, created["status"]).Equal("pending")
	gt.V(t, created["team_name"]).Equal("Operations")
	gt.V(t, created["assigned_to_name"]).Equal("Bob Operator")

	rec = env.do(t, http.MethodPost, "/api/tasks", env.alice, map[string]any{"description": "no title"})
	gt.V(t, rec.Code).Equal(http.StatusBadRequest)
	gt.V(t, errorOf(t, rec)).Equal("title is required")

	rec = env.do(t, http.MethodGet, "/api/tasks", env.alice, nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	gt.A(t, decode[[]map[string]any](t, rec)).Length(1)

	rec = env.do(t, http.MethodGet, "/api/tasks", nil, nil)
	gt.V(t, rec.Code).Equal(http.StatusUnauthorized)
}
