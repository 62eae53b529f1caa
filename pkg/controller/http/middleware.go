package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/secmon-lab/entelligence/pkg/domain/model/auth"
	"github.com/secmon-lab/entelligence/pkg/utils/logging"
)

// tokenVerifier turns a raw bearer token into an identity
type tokenVerifier interface {
	Verify(ctx context.Context, raw string) (*auth.Identity, error)
}

// authMiddleware requires a valid bearer token and stores the identity in
// the request context
func authMiddleware(verifier tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, r)
				return
			}

			identity, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				logging.From(r.Context()).Debug("rejected bearer token", "error", err)
				writeUnauthorized(w, r)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			ctx = logging.With(ctx, logging.From(ctx).With("user_id", identity.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
}

// identityFrom returns the identity stored by authMiddleware. Handlers behind
// the middleware always have one; a missing identity is answered with 401.
func identityFrom(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w, r)
		return nil, false
	}
	return identity, true
}
