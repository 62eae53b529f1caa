package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/model/auth"
	"github.com/secmon-lab/entelligence/pkg/utils/logging"
)

type UserUseCase struct {
	repo   interfaces.Repository
	hasher *PasswordHasher
}

func NewUserUseCase(repo interfaces.Repository, hasher *PasswordHasher) *UserUseCase {
	if hasher == nil {
		hasher = NewPasswordHasher()
	}
	return &UserUseCase{
		repo:   repo,
		hasher: hasher,
	}
}

// ListUsers returns the users of identity's site, newest first
func (uc *UserUseCase) ListUsers(ctx context.Context, identity *auth.Identity) ([]*model.User, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	users, err := uc.repo.User().ListBySite(ctx, identity.TenantID, identity.SiteID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users",
			goerr.V(TenantIDKey, identity.TenantID),
			goerr.V(SiteIDKey, identity.SiteID))
	}
	return users, nil
}

// CreateUser adds a user to the manager's own tenant and site
func (uc *UserUseCase) CreateUser(ctx context.Context, identity *auth.Identity, payload model.Payload) (*model.User, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	if !identity.IsManager() {
		return nil, goerr.Wrap(ErrAccessDenied, "only managers can create users", goerr.V(UserIDKey, identity.UserID))
	}

	input, err := model.ValidateUserCreate(payload)
	if err != nil {
		return nil, err
	}

	return uc.Register(ctx, identity.TenantID, identity.SiteID, input)
}

// Register hashes the password and stores the user in the given site
func (uc *UserUseCase) Register(ctx context.Context, tenantID, siteID string, input *model.UserCreate) (*model.User, error) {
	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	created, err := uc.repo.User().Create(ctx, &model.User{
		ID:           model.NewUserID(),
		TenantID:     tenantID,
		SiteID:       siteID,
		Email:        input.Email,
		FullName:     input.FullName,
		Role:         input.Role,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return nil, goerr.Wrap(ErrUserAlreadyExists, "email already registered", goerr.V(EmailKey, input.Email))
		}
		return nil, goerr.Wrap(err, "failed to create user", goerr.V(EmailKey, input.Email))
	}

	logging.From(ctx).Info("user created",
		UserIDKey, created.ID,
		TenantIDKey, tenantID,
		SiteIDKey, siteID)

	return created, nil
}
