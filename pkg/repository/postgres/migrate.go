package postgres

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/utils/logging"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationsTable = "schema_migrations"

// Migration is one embedded schema file
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded schema files sorted by name
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read embedded migrations")
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := migrationFS.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read migration", goerr.V("name", entry.Name()))
		}
		migrations = append(migrations, Migration{Name: entry.Name(), SQL: string(data)})
	}
	return migrations, nil
}

// Pending returns the migrations that have not been recorded in
// schema_migrations yet
func (p *Postgres) Pending(ctx context.Context) ([]Migration, error) {
	if err := p.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}

	var applied []string
	if err := p.db.WithContext(ctx).Table(migrationsTable).Pluck("name", &applied).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to load applied migrations")
	}
	done := make(map[string]struct{}, len(applied))
	for _, name := range applied {
		done[name] = struct{}{}
	}

	all, err := Migrations()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, m := range all {
		if _, ok := done[m.Name]; !ok {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Migrate applies every pending migration, each in its own transaction,
// and returns the names of the files it applied
func (p *Postgres) Migrate(ctx context.Context) ([]string, error) {
	logger := logging.From(ctx)

	pending, err := p.Pending(ctx)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(pending))
	for _, m := range pending {
		err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.SQL).Error; err != nil {
				return goerr.Wrap(err, "failed to execute migration")
			}
			insert := "INSERT INTO " + migrationsTable + " (name) VALUES (?) ON CONFLICT (name) DO NOTHING"
			if err := tx.Exec(insert, m.Name).Error; err != nil {
				return goerr.Wrap(err, "failed to record migration")
			}
			return nil
		})
		if err != nil {
			return applied, goerr.Wrap(err, "migration failed", goerr.V("name", m.Name))
		}

		logger.Info("applied migration", "name", m.Name)
		applied = append(applied, m.Name)
	}
	return applied, nil
}

func (p *Postgres) ensureMigrationsTable(ctx context.Context) error {
	err := p.db.WithContext(ctx).Exec(`CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`).Error
	if err != nil {
		return goerr.Wrap(err, "failed to create migrations table")
	}
	return nil
}
