package config

import (
	"log/slog"
	"time"

	"github.com/secmon-lab/entelligence/pkg/usecase"
	"github.com/secmon-lab/entelligence/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Auth holds CLI flags for access token signing
type Auth struct {
	jwtSecret     string
	tokenLifetime time.Duration
}

func (a *Auth) Flags() []cli.Flag {
	category := "Authentication"
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Category:    category,
			Usage:       "HMAC secret for signing access tokens. A random key is used when empty",
			Sources:     cli.EnvVars("ENTELLIGENCE_JWT_SECRET", "JWT_SECRET"),
			Destination: &a.jwtSecret,
		},
		&cli.DurationFlag{
			Name:        "token-lifetime",
			Category:    category,
			Usage:       "Lifetime of issued access tokens",
			Value:       usecase.DefaultTokenLifetime,
			Sources:     cli.EnvVars("ENTELLIGENCE_TOKEN_LIFETIME"),
			Destination: &a.tokenLifetime,
		},
	}
}

func (a Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("jwt_secret_set", a.jwtSecret != ""),
		slog.Duration("token_lifetime", a.tokenLifetime),
	)
}

// Configure returns use case options carrying the signing settings
func (a *Auth) Configure() []usecase.Option {
	if a.jwtSecret == "" {
		logging.Default().Warn("jwt-secret is not set, issued tokens will not survive a restart")
	}

	opts := []usecase.Option{
		usecase.WithJWTSecret([]byte(a.jwtSecret)),
	}
	if a.tokenLifetime > 0 {
		opts = append(opts, usecase.WithAuthOptions(usecase.WithTokenLifetime(a.tokenLifetime)))
	}
	return opts
}
