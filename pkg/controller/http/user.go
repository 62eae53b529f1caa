package http

import (
	"net/http"
	"time"

	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"github.com/secmon-lab/entelligence/pkg/usecase"
)

// userResponse never carries the password hash
type userResponse struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	SiteID    string     `json:"site_id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      types.Role `json:"role"`
	Teams     []string   `json:"teams"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toUserResponse(u *model.User) userResponse {
	teams := u.Teams
	if teams == nil {
		teams = []string{}
	}
	return userResponse{
		ID:        u.ID,
		TenantID:  u.TenantID,
		SiteID:    u.SiteID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Teams:     teams,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func listUsersHandler(userUC *usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(w, r)
		if !ok {
			return
		}

		users, err := userUC.ListUsers(r.Context(), identity)
		if err != nil {
			writeError(r.Context(), w, err, "Failed to fetch users")
			return
		}

		resp := make([]userResponse, len(users))
		for i, u := range users {
			resp[i] = toUserResponse(u)
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func createUserHandler(userUC *usecase.UserUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(w, r)
		if !ok {
			return
		}

		payload, err := decodePayload(r)
		if err != nil {
			writeError(r.Context(), w, err, "Failed to create user")
			return
		}

		user, err := userUC.CreateUser(r.Context(), identity, payload)
		if err != nil {
			writeError(r.Context(), w, err, "Failed to create user")
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toUserResponse(user))
	}
}
