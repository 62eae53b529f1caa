package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/entelligence/pkg/cli/config"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

const validSeed = `
[[site]]
tenant_id = "acme"
id = "plant-1"
name = "Main Plant"

[[team]]
id = "maintenance"
name = "Maintenance"

[[user]]
tenant_id = "acme"
site_id = "plant-1"
email = "mia@example.com"
full_name = "Mia Manager"
password = "changeme"
role = "manager"

[[user]]
tenant_id = "acme"
site_id = "plant-1"
email = "oli@example.com"
full_name = "Oli Operator"
password = "changeme"
teams = ["maintenance"]
`

func TestParseSeed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "valid seed", content: validSeed},
		{name: "empty seed", content: ""},
		{
			name: "duplicate site",
			content: `
[[site]]
tenant_id = "acme"
id = "plant-1"
name = "A"
[[site]]
tenant_id = "acme"
id = "plant-1"
name = "B"
`,
			wantErr: config.ErrDuplicateID,
		},
		{
			name: "same site ID in another tenant is fine",
			content: `
[[site]]
tenant_id = "acme"
id = "plant-1"
name = "A"
[[site]]
tenant_id = "globex"
id = "plant-1"
name = "B"
`,
		},
		{
			name: "team without name",
			content: `
[[team]]
id = "ops"
`,
			wantErr: config.ErrMissingName,
		},
		{
			name: "user in undeclared site",
			content: `
[[user]]
tenant_id = "acme"
site_id = "nowhere"
email = "x@example.com"
full_name = "X"
password = "pw"
`,
			wantErr: config.ErrUnknownSite,
		},
		{
			name: "user in undeclared team",
			content: `
[[site]]
tenant_id = "acme"
id = "plant-1"
name = "A"
[[team]]
id = "ops"
name = "Operations"
[[user]]
tenant_id = "acme"
site_id = "plant-1"
email = "x@example.com"
full_name = "X"
password = "pw"
teams = ["ops", "night-shift"]
`,
			wantErr: config.ErrUnknownTeam,
		},
		{
			name: "duplicate email",
			content: `
[[site]]
tenant_id = "acme"
id = "plant-1"
name = "A"
[[user]]
tenant_id = "acme"
site_id = "plant-1"
email = "x@example.com"
full_name = "X"
password = "pw"
[[user]]
tenant_id = "acme"
site_id = "plant-1"
email = "x@example.com"
full_name = "Y"
password = "pw"
`,
			wantErr: config.ErrDuplicateEmail,
		},
		{
			name: "user without password",
			content: `
[[site]]
tenant_id = "acme"
id = "plant-1"
name = "A"
[[user]]
tenant_id = "acme"
site_id = "plant-1"
email = "x@example.com"
full_name = "X"
`,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.ParseSeed([]byte(tt.content), "seed.toml")
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}
			gt.NoError(t, err)
		})
	}

	t.Run("invalid role", func(t *testing.T) {
		_, err := config.ParseSeed([]byte(`
[[site]]
tenant_id = "acme"
id = "plant-1"
name = "A"
[[user]]
tenant_id = "acme"
site_id = "plant-1"
email = "x@example.com"
full_name = "X"
password = "pw"
role = "admin"
`), "seed.toml")
		gt.Value(t, err).NotNil()
	})
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	gt.NoError(t, os.WriteFile(path, []byte(validSeed), 0o600)).Required()

	cfg, err := config.LoadSeed(path)
	gt.NoError(t, err).Required()
	gt.A(t, cfg.Sites).Length(1)
	gt.A(t, cfg.Teams).Length(1)
	gt.A(t, cfg.Users).Length(2)

	gt.V(t, cfg.Users[0].ToCreate().Role).Equal(types.RoleManager)
	gt.V(t, cfg.Users[1].ToCreate().Role).Equal(types.RoleOperator)
	gt.V(t, cfg.Users[1].Teams).Equal([]string{"maintenance"})
	gt.V(t, cfg.Teams[0].ToDomain().ID).Equal(types.TeamID("maintenance"))
	gt.V(t, cfg.Sites[0].ToDomain().TenantID).Equal("acme")

	_, err = config.LoadSeed(filepath.Join(t.TempDir(), "missing.toml"))
	gt.Value(t, err).NotNil()
}
