package usecase

import (
	"time"

	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
)

type UseCases struct {
	repo      interfaces.Repository
	authOpts  []AuthOption
	jwtSecret []byte
	startedAt time.Time
	hasher    *PasswordHasher

	Action *ActionUseCase
	Task   *TaskUseCase
	User   *UserUseCase
	Auth   *AuthUseCase
	Health *HealthUseCase
}

type Option func(*UseCases)

// WithJWTSecret sets the HMAC key used to sign and verify access tokens
func WithJWTSecret(secret []byte) Option {
	return func(uc *UseCases) {
		uc.jwtSecret = secret
	}
}

// WithAuthOptions passes options through to the AuthUseCase
func WithAuthOptions(opts ...AuthOption) Option {
	return func(uc *UseCases) {
		uc.authOpts = append(uc.authOpts, opts...)
	}
}

// WithStartedAt sets the process start time reported by the health check
func WithStartedAt(t time.Time) Option {
	return func(uc *UseCases) {
		uc.startedAt = t
	}
}

// WithPasswordHasher replaces the bcrypt hasher, mainly to lower the cost in tests
func WithPasswordHasher(h *PasswordHasher) Option {
	return func(uc *UseCases) {
		uc.hasher = h
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		startedAt: time.Now(),
		hasher:    NewPasswordHasher(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	authOpts := append([]AuthOption{WithAuthPasswordHasher(uc.hasher)}, uc.authOpts...)
	uc.Auth = NewAuthUseCase(repo, uc.jwtSecret, authOpts...)
	uc.Action = NewActionUseCase(repo)
	uc.Task = NewTaskUseCase(repo)
	uc.User = NewUserUseCase(repo, uc.hasher)
	uc.Health = NewHealthUseCase(repo, uc.startedAt)

	return uc
}
