package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/cli/config"
	"github.com/secmon-lab/entelligence/pkg/domain/model/auth"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"github.com/secmon-lab/entelligence/pkg/repository/memory"
	"github.com/secmon-lab/entelligence/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdToken() *cli.Command {
	var identity auth.Identity
	var role string
	var authCfg config.Auth

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Usage:       "User ID claim",
			Required:    true,
			Destination: &identity.UserID,
		},
		&cli.StringFlag{
			Name:        "tenant-id",
			Usage:       "Tenant ID claim",
			Required:    true,
			Destination: &identity.TenantID,
		},
		&cli.StringFlag{
			Name:        "site-id",
			Usage:       "Site ID claim",
			Required:    true,
			Destination: &identity.SiteID,
		},
		&cli.StringFlag{
			Name:        "role",
			Usage:       "Role claim [operator|manager]",
			Value:       types.RoleOperator.String(),
			Destination: &role,
		},
		&cli.StringFlag{
			Name:        "email",
			Usage:       "Email claim",
			Destination: &identity.Email,
		},
		&cli.StringFlag{
			Name:        "full-name",
			Usage:       "Full name claim",
			Destination: &identity.FullName,
		},
	}
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:  "token",
		Usage: "Issue an access token for development",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			r, err := types.ParseRole(role)
			if err != nil {
				return goerr.Wrap(err, "invalid role")
			}
			identity.Role = r

			// signing needs no repository access
			uc := usecase.New(memory.New(), authCfg.Configure()...)
			token, err := uc.Auth.Issue(&identity)
			if err != nil {
				return err
			}

			printToken(os.Stdout, &identity, token)
			return nil
		},
	}
}

func printToken(w io.Writer, identity *auth.Identity, token string) {
	label := color.New(color.FgCyan, color.Bold).SprintFunc()
	value := color.New(color.FgGreen).SprintFunc()

	_, _ = fmt.Fprintf(w, "%s %s\n", label("user:  "), identity.UserID)
	_, _ = fmt.Fprintf(w, "%s %s/%s\n", label("scope: "), identity.TenantID, identity.SiteID)
	_, _ = fmt.Fprintf(w, "%s %s\n", label("role:  "), identity.Role)
	_, _ = fmt.Fprintf(w, "%s %s\n", label("token: "), value(token))
}
