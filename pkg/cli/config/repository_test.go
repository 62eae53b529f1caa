package config_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/entelligence/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

// runWithFlags parses args against flags and calls fn inside the command action
func runWithFlags(t *testing.T, flags []cli.Flag, args []string, fn func(ctx context.Context)) {
	t.Helper()
	called := false
	cmd := &cli.Command{
		Name:  "test",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			called = true
			fn(ctx)
			return nil
		},
	}
	gt.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...))).Required()
	gt.B(t, called).True()
}

func TestRepository_Validate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "memory by default", args: nil},
		{name: "postgres without dsn", args: []string{"--repository-backend", "postgres"}, wantErr: config.ErrInvalidConfig},
		{name: "postgres with dsn", args: []string{"--repository-backend", "postgres", "--postgres-dsn", "postgres://localhost/db"}},
		{name: "firestore without project", args: []string{"--repository-backend", "firestore"}, wantErr: config.ErrInvalidConfig},
		{name: "firestore with project", args: []string{"--repository-backend", "firestore", "--firestore-project-id", "p"}},
		{name: "unknown backend", args: []string{"--repository-backend", "mysql"}, wantErr: config.ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Repository
			runWithFlags(t, cfg.Flags(), tt.args, func(ctx context.Context) {
				err := cfg.Validate()
				if tt.wantErr != nil {
					gt.Error(t, err).Is(tt.wantErr)
					return
				}
				gt.NoError(t, err)
			})
		})
	}
}

func TestRepository_ConfigureMemory(t *testing.T) {
	var cfg config.Repository
	runWithFlags(t, cfg.Flags(), nil, func(ctx context.Context) {
		gt.V(t, cfg.Backend()).Equal(config.BackendMemory)
		repo, err := cfg.Configure(ctx)
		gt.NoError(t, err).Required()
		defer func() { gt.NoError(t, repo.Close()) }()

		_, err = repo.Ping(ctx)
		gt.NoError(t, err)
	})
}
