package cli

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/cli/config"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"github.com/secmon-lab/entelligence/pkg/usecase"
	"github.com/secmon-lab/entelligence/pkg/utils/logging"
	"github.com/secmon-lab/entelligence/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var seedFile string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Seed file (TOML)",
			Required:    true,
			Sources:     cli.EnvVars("ENTELLIGENCE_SEED_FILE"),
			Destination: &seedFile,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Load sites, teams and users into the repository",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			seed, err := config.LoadSeed(seedFile)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			return applySeed(ctx, repo, usecase.NewUserUseCase(repo, nil), seed)
		},
	}
}

// applySeed writes seed data. Sites and teams are upserted; users whose
// email is already registered are left untouched.
func applySeed(ctx context.Context, repo interfaces.Repository, userUC *usecase.UserUseCase, seed *config.SeedConfig) error {
	logger := logging.From(ctx)

	for _, site := range seed.Sites {
		if err := repo.Site().Put(ctx, site.ToDomain()); err != nil {
			return goerr.Wrap(err, "failed to seed site", goerr.V("site_id", site.ID))
		}
	}

	for _, team := range seed.Teams {
		if err := repo.Team().Put(ctx, team.ToDomain()); err != nil {
			return goerr.Wrap(err, "failed to seed team", goerr.V("team_id", team.ID))
		}
	}

	var created, skipped int
	for _, user := range seed.Users {
		registered, err := userUC.Register(ctx, user.TenantID, user.SiteID, user.ToCreate())
		switch {
		case err == nil:
			created++
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			skipped++
			if registered, err = repo.User().GetByEmail(ctx, user.Email); err != nil {
				return goerr.Wrap(err, "failed to look up seeded user")
			}
		default:
			return goerr.Wrap(err, "failed to seed user")
		}

		for _, teamID := range user.Teams {
			if err := repo.User().AddTeam(ctx, registered.ID, types.TeamID(teamID)); err != nil {
				return goerr.Wrap(err, "failed to seed team membership", goerr.V("team_id", teamID))
			}
		}
	}

	logger.Info("Seed applied",
		"sites", len(seed.Sites),
		"teams", len(seed.Teams),
		"users_created", created,
		"users_skipped", skipped,
	)
	return nil
}
