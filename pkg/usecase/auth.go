package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/model/auth"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"github.com/secmon-lab/entelligence/pkg/utils/logging"
)

const (
	// DefaultTokenLifetime is how long an issued access token stays valid
	DefaultTokenLifetime = 2 * time.Hour

	acceptableSkew = 10 * time.Second
)

// Claim names carried by access tokens
const (
	claimUserID   = "userId"
	claimTenantID = "tenantId"
	claimSiteID   = "siteId"
	claimRole     = "role"
	claimEmail    = "email"
	claimFullName = "fullName"
)

type AuthUseCase struct {
	repo     interfaces.Repository
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
	hasher   *PasswordHasher
}

// AuthOption is a functional option for AuthUseCase
type AuthOption func(*AuthUseCase)

// WithTokenLifetime sets the lifetime of issued tokens
func WithTokenLifetime(d time.Duration) AuthOption {
	return func(uc *AuthUseCase) {
		uc.lifetime = d
	}
}

// WithClock replaces the time source used for issuing and validating tokens
func WithClock(now func() time.Time) AuthOption {
	return func(uc *AuthUseCase) {
		uc.now = now
	}
}

// WithAuthPasswordHasher sets the hasher used to check login passwords
func WithAuthPasswordHasher(h *PasswordHasher) AuthOption {
	return func(uc *AuthUseCase) {
		uc.hasher = h
	}
}

// NewAuthUseCase creates an AuthUseCase signing tokens with secret. When
// secret is empty a random key is generated, so tokens do not survive a
// restart.
func NewAuthUseCase(repo interfaces.Repository, secret []byte, options ...AuthOption) *AuthUseCase {
	uc := &AuthUseCase{
		repo:     repo,
		secret:   secret,
		lifetime: DefaultTokenLifetime,
		now:      time.Now,
	}

	for _, opt := range options {
		opt(uc)
	}

	if uc.hasher == nil {
		uc.hasher = NewPasswordHasher()
	}
	if len(uc.secret) == 0 {
		logging.Default().Warn("JWT secret is not configured, using an ephemeral key")
		uc.secret = make([]byte, 32)
		_, _ = rand.Read(uc.secret)
	}

	return uc
}

// LoginResult is returned by a successful Login
type LoginResult struct {
	Token string
	User  *model.User
	Site  *model.Site
}

// Login checks email and password and issues an access token
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	logger := logging.From(ctx)

	user, err := uc.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			uc.hasher.burn(password)
			logger.Info("login failed: unknown user", EmailKey, email)
			return nil, goerr.Wrap(ErrInvalidCredentials, "unknown user", goerr.V(EmailKey, email))
		}
		return nil, goerr.Wrap(err, "failed to look up user", goerr.V(EmailKey, email))
	}

	ok, err := uc.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to verify password", goerr.V(UserIDKey, user.ID))
	}
	if !ok {
		logger.Info("login failed: password mismatch", UserIDKey, user.ID)
		return nil, goerr.Wrap(ErrInvalidCredentials, "password mismatch", goerr.V(UserIDKey, user.ID))
	}

	site, err := uc.repo.Site().Get(ctx, user.TenantID, user.SiteID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(err, "failed to get site",
			goerr.V(TenantIDKey, user.TenantID),
			goerr.V(SiteIDKey, user.SiteID))
	}

	token, err := uc.Issue(&auth.Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		SiteID:   user.SiteID,
		Role:     user.Role,
		Email:    user.Email,
		FullName: user.FullName,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("login succeeded", UserIDKey, user.ID)
	return &LoginResult{Token: token, User: user, Site: site}, nil
}

// Issue signs an HS256 access token carrying identity
func (uc *AuthUseCase) Issue(identity *auth.Identity) (string, error) {
	if err := identity.Validate(); err != nil {
		return "", goerr.Wrap(err, "refusing to issue token for invalid identity")
	}

	now := uc.now()
	tok, err := jwt.NewBuilder().
		Subject(identity.UserID).
		IssuedAt(now).
		Expiration(now.Add(uc.lifetime)).
		Claim(claimUserID, identity.UserID).
		Claim(claimTenantID, identity.TenantID).
		Claim(claimSiteID, identity.SiteID).
		Claim(claimRole, identity.Role.String()).
		Claim(claimEmail, identity.Email).
		Claim(claimFullName, identity.FullName).
		Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build token")
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, uc.secret))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign token")
	}
	return string(signed), nil
}

// Verify validates signature and expiry of raw and returns the identity it
// carries. Every failure wraps ErrUnauthenticated.
func (uc *AuthUseCase) Verify(ctx context.Context, raw string) (*auth.Identity, error) {
	if raw == "" {
		return nil, goerr.Wrap(ErrUnauthenticated, "empty token")
	}

	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(acceptableSkew),
		jwt.WithClock(jwt.ClockFunc(uc.now)),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthenticated, "token verification failed", goerr.V("reason", err.Error()))
	}

	identity := &auth.Identity{
		UserID:   stringClaim(tok, claimUserID),
		TenantID: stringClaim(tok, claimTenantID),
		SiteID:   stringClaim(tok, claimSiteID),
		Role:     types.Role(stringClaim(tok, claimRole)),
		Email:    stringClaim(tok, claimEmail),
		FullName: stringClaim(tok, claimFullName),
	}
	if err := identity.Validate(); err != nil {
		return nil, goerr.Wrap(ErrUnauthenticated, "token carries incomplete claims", goerr.V("reason", err.Error()))
	}

	return identity, nil
}

func stringClaim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
