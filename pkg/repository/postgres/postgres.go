package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Postgres implements interfaces.Repository on top of gorm
type Postgres struct {
	db     *gorm.DB
	action *actionRepository
	user   *userRepository
	site   *siteRepository
	team   *teamRepository
	task   *taskRepository
}

var _ interfaces.Repository = &Postgres{}

type config struct {
	pingTimeout time.Duration
	gormLogger  logger.Interface
}

type Option func(*config)

// WithPingTimeout sets how long New waits for the initial connectivity check
func WithPingTimeout(d time.Duration) Option {
	return func(c *config) {
		c.pingTimeout = d
	}
}

// WithGormLogger replaces the gorm query logger. Queries are not logged by default.
func WithGormLogger(l logger.Interface) Option {
	return func(c *config) {
		c.gormLogger = l
	}
}

// New opens a connection pool for dsn and verifies it with a ping
func New(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	if dsn == "" {
		return nil, goerr.New("postgres DSN is required")
	}

	cfg := &config{
		pingTimeout: 5 * time.Second,
		gormLogger:  logger.Discard,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: cfg.gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve postgres sql handle")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}

	return &Postgres{
		db:     db,
		action: &actionRepository{db: db},
		user:   &userRepository{db: db},
		site:   &siteRepository{db: db},
		team:   &teamRepository{db: db},
		task:   &taskRepository{db: db},
	}, nil
}

func (p *Postgres) Action() interfaces.ActionRepository {
	return p.action
}

func (p *Postgres) User() interfaces.UserRepository {
	return p.user
}

func (p *Postgres) Site() interfaces.SiteRepository {
	return p.site
}

func (p *Postgres) Team() interfaces.TeamRepository {
	return p.team
}

func (p *Postgres) Task() interfaces.TaskRepository {
	return p.task
}

// Ping returns the database server's clock
func (p *Postgres) Ping(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := p.db.WithContext(ctx).Raw("SELECT NOW()").Row().Scan(&now); err != nil {
		return time.Time{}, goerr.Wrap(err, "failed to query database time")
	}
	return now.UTC(), nil
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to resolve postgres sql handle")
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
