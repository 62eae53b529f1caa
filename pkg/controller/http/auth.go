package http

import (
	"net/http"

	"github.com/secmon-lab/entelligence/pkg/usecase"
)

type loginUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenantId"`
	SiteID   string `json:"siteId"`
	SiteName string `json:"siteName"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

// authLoginHandler exchanges email and password for an access token
func authLoginHandler(authUC *usecase.AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := decodePayload(r)
		if err != nil {
			writeError(r.Context(), w, err, "Login failed")
			return
		}

		email, _ := payload["email"].(string)
		password, _ := payload["password"].(string)

		result, err := authUC.Login(r.Context(), email, password)
		if err != nil {
			writeError(r.Context(), w, err, "Login failed")
			return
		}

		resp := loginResponse{
			Token: result.Token,
			User: loginUser{
				ID:       result.User.ID,
				Name:     result.User.FullName,
				Email:    result.User.Email,
				Role:     result.User.Role.String(),
				TenantID: result.User.TenantID,
				SiteID:   result.User.SiteID,
			},
		}
		if result.Site != nil {
			resp.User.SiteName = result.Site.Name
		}

		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

// authMeHandler returns the identity carried by the bearer token
func authMeHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, identity)
}
