package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/cli/config"
	httpctrl "github.com/secmon-lab/entelligence/pkg/controller/http"
	"github.com/secmon-lab/entelligence/pkg/usecase"
	"github.com/secmon-lab/entelligence/pkg/utils/logging"
	"github.com/secmon-lab/entelligence/pkg/utils/safe"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func cmdServe(version string) *cli.Command {
	var addr string
	var seedFile string
	var repoCfg config.Repository
	var authCfg config.Auth
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":4000",
			Sources:     cli.EnvVars("ENTELLIGENCE_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "seed-file",
			Usage:       "TOML file with sites, teams and users loaded before serving",
			Sources:     cli.EnvVars("ENTELLIGENCE_SEED_FILE"),
			Destination: &seedFile,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			startedAt := time.Now()

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			ucOpts := append(authCfg.Configure(), usecase.WithStartedAt(startedAt))
			uc := usecase.New(repo, ucOpts...)

			if seedFile != "" {
				seed, err := config.LoadSeed(seedFile)
				if err != nil {
					return err
				}
				if err := applySeed(ctx, repo, uc.User, seed); err != nil {
					return err
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			logging.Default().Info("Serve configuration",
				"addr", addr,
				"repository", repoCfg,
				"auth", authCfg,
				"sentry", sentryCfg,
			)

			return runServer(ctx, server)
		},
	}
}

// runServer serves until the listener fails or a shutdown signal arrives
func runServer(ctx context.Context, server *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logging.Default().Info("Starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return goerr.Wrap(err, "failed to start server", goerr.V("addr", server.Addr))
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logging.Default().Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shutdown server gracefully")
		}
		logging.Default().Info("Server shutdown completed")
		return nil
	})

	return eg.Wait()
}
