package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	server "github.com/secmon-lab/entelligence/pkg/controller/http"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/model/auth"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"github.com/secmon-lab/entelligence/pkg/repository/memory"
	"github.com/secmon-lab/entelligence/pkg/usecase"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "pw-123456"

type testEnv struct {
	srv      *server.Server
	uc       *usecase.UseCases
	repo     *memory.Memory
	manager  *model.User
	alice    *model.User
	bob      *model.User
	outsider *model.User
}

// repoWrapper lets a test swap parts of the repository seen by the server
type repoWrapper func(interfaces.Repository) interfaces.Repository

func newTestEnv(t *testing.T, wrappers ...repoWrapper) *testEnv {
	t.Helper()
	ctx := context.Background()

	repo := memory.New()
	var served interfaces.Repository = repo
	for _, wrap := range wrappers {
		served = wrap(served)
	}

	hasher := usecase.NewPasswordHasherWithCost(bcrypt.MinCost)
	uc := usecase.New(served,
		usecase.WithJWTSecret([]byte("controller-test-secret-0123456789")),
		usecase.WithPasswordHasher(hasher),
		usecase.WithStartedAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	)

	gt.NoError(t, repo.Site().Put(ctx, &model.Site{ID: "site-1", TenantID: "tenant-1", Name: "Main Plant"})).Required()

	hash, err := hasher.Hash(testPassword)
	gt.NoError(t, err).Required()
	add := func(tenantID, email, name string, role types.Role) *model.User {
		u, err := repo.User().Create(ctx, &model.User{
			TenantID:     tenantID,
			SiteID:       "site-1",
			Email:        email,
			FullName:     name,
			Role:         role,
			PasswordHash: hash,
		})
		gt.NoError(t, err).Required()
		return u
	}

	env := &testEnv{
		uc:   uc,
		repo: repo,
		srv: server.New(uc, server.WithClock(func() time.Time {
			return time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
		})),
	}
	env.manager = add("tenant-1", "mia@example.com", "Mia Manager", types.RoleManager)
	env.alice = add("tenant-1", "alice@example.com", "Alice Operator", types.RoleOperator)
	env.bob = add("tenant-1", "bob@example.com", "Bob Operator", types.RoleOperator)
	env.outsider = add("tenant-2", "eve@example.com", "Eve Outsider", types.RoleManager)

	gt.NoError(t, repo.Team().Put(ctx, &model.Team{ID: "maintenance", Name: "Maintenance"})).Required()
	gt.NoError(t, repo.User().AddTeam(ctx, env.alice.ID, "maintenance")).Required()
	return env
}

func (e *testEnv) token(t *testing.T, u *model.User) string {
	t.Helper()
	tok, err := e.uc.Auth.Issue(&auth.Identity{
		UserID:   u.ID,
		TenantID: u.TenantID,
		SiteID:   u.SiteID,
		Role:     u.Role,
		Email:    u.Email,
		FullName: u.FullName,
	})
	gt.NoError(t, err).Required()
	return tok
}

// do sends a request as user (nil for anonymous) and returns the recorder
func (e *testEnv) do(t *testing.T, method, path string, user *model.User, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		gt.NoError(t, err).Required()
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, user))
	}

	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v)).Required()
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func TestRoot(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/", nil, nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)

	body := decode[map[string]string](t, rec)
	gt.V(t, body["name"]).Equal("MSP Entelligence API")
	gt.V(t, body["status"]).Equal("online")
	gt.V(t, body["docs"]).Equal("/health")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	body := decode[map[string]any](t, rec)
	gt.V(t, body["ok"]).Equal(true)
	gt.V(t, body["uptime"]).Equal(60.0)

	rec = env.do(t, http.MethodGet, "/health/db", nil, nil)
	gt.V(t, rec.Code).Equal(http.StatusOK)
	body = decode[map[string]any](t, rec)
	gt.V(t, body["ok"]).Equal(true)
	gt.Map(t, body).HasKey("dbTime")
}

type unreachableDB struct {
	interfaces.Repository
}

func (unreachableDB) Ping(ctx context.Context) (time.Time, error) {
	return time.Time{}, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
}

func TestHealthDBUnavailable(t *testing.T) {
	env := newTestEnv(t, func(repo interfaces.Repository) interfaces.Repository {
		return unreachableDB{Repository: repo}
	})

	rec := env.do(t, http.MethodGet, "/health/db", nil, nil)
	gt.V(t, rec.Code).Equal(http.StatusInternalServerError)
	gt.V(t, strings.TrimSpace(rec.Body.String())).Equal(`{"ok":false,"error":"Database unavailable"}`)
	gt.B(t, strings.Contains(rec.Body.String(), "10.0.0.5")).False()
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	testCases := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "empty bearer", header: "Bearer "},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/actions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			env.srv.ServeHTTP(rec, req)

			gt.V(t, rec.Code).Equal(http.StatusUnauthorized)
			gt.V(t, errorOf(t, rec)).Equal("Unauthorized")
		})
	}

	t.Run("valid token reaches the handler", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", env.alice, nil)
		gt.V(t, rec.Code).Equal(http.StatusOK)
		body := decode[map[string]string](t, rec)
		gt.V(t, body["userId"]).Equal(env.alice.ID)
		gt.V(t, body["role"]).Equal("operator")
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("success", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", nil, map[string]string{
			"email":    "alice@example.com",
			"password": testPassword,
		})
		gt.V(t, rec.Code).Equal(http.StatusOK)

		body := decode[struct {
			Token string            `json:"token"`
			User  map[string]string `json:"user"`
		}](t, rec)
		gt.String(t, body.Token).NotEqual("")
		gt.V(t, body.User["id"]).Equal(env.alice.ID)
		gt.V(t, body.User["name"]).Equal("Alice Operator")
		gt.V(t, body.User["siteName"]).Equal("Main Plant")

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+body.Token)
		me := httptest.NewRecorder()
		env.srv.ServeHTTP(me, req)
		gt.V(t, me.Code).Equal(http.StatusOK)
	})

	testCases := []struct {
		name    string
		body    any
		code    int
		message string
	}{
		{name: "missing password", body: map[string]string{"email": "alice@example.com"}, code: http.StatusBadRequest, message: "email and password are required"},
		{name: "wrong password", body: map[string]string{"email": "alice@example.com", "password": "nope"}, code: http.StatusUnauthorized, message: "Invalid credentials"},
		{name: "unknown user", body: map[string]string{"email": "x@example.com", "password": "nope"}, code: http.StatusUnauthorized, message: "Invalid credentials"},
		{name: "broken json", body: "{", code: http.StatusBadRequest, message: "Invalid JSON body"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/login", nil, tc.body)
			gt.V(t, rec.Code).Equal(tc.code)
			gt.V(t, errorOf(t, rec)).Equal(tc.message)
		})
	}
}
