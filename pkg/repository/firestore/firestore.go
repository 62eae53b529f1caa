package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
)

const (
	tenantsCollection    = "tenants"
	usersCollection      = "users"
	userEmailsCollection = "user_emails"
	teamsCollection      = "teams"
	tasksCollection      = "tasks"
	countersCollection   = "counters"

	actionsSubCollection  = "actions"
	sitesSubCollection    = "sites"
	countersSubCollection = "counters"

	// Maximum document references per GetAll
	firestoreGetAllLimit = 30
)

type Firestore struct {
	client *firestore.Client
	col    *collections
	action *actionRepository
	user   *userRepository
	site   *siteRepository
	team   *teamRepository
	task   *taskRepository
}

var _ interfaces.Repository = &Firestore{}

// collections resolves top-level collection names, honouring an optional
// prefix so several test runs can share one database
type collections struct {
	client *firestore.Client
	prefix string
}

func (c *collections) root(name string) *firestore.CollectionRef {
	if c.prefix != "" {
		return c.client.Collection(c.prefix + "_" + name)
	}
	return c.client.Collection(name)
}

func (c *collections) tenant(tenantID string) *firestore.DocumentRef {
	return c.root(tenantsCollection).Doc(tenantID)
}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.col.prefix = prefix
	}
}

// New creates a Firestore backed repository. An empty databaseID selects the
// default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var (
		client *firestore.Client
		err    error
	)
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	col := &collections{client: client}
	f := &Firestore{
		client: client,
		col:    col,
		action: &actionRepository{client: client, col: col},
		user:   &userRepository{client: client, col: col},
		site:   &siteRepository{col: col},
		team:   &teamRepository{col: col},
		task:   &taskRepository{client: client, col: col},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Action() interfaces.ActionRepository {
	return f.action
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.user
}

func (f *Firestore) Site() interfaces.SiteRepository {
	return f.site
}

func (f *Firestore) Team() interfaces.TeamRepository {
	return f.team
}

func (f *Firestore) Task() interfaces.TaskRepository {
	return f.task
}

// Ping performs a minimal read. Firestore does not expose a server clock, so
// the local time is returned on success.
func (f *Firestore) Ping(ctx context.Context) (time.Time, error) {
	if _, err := f.col.root(countersCollection).Limit(1).Documents(ctx).GetAll(); err != nil {
		return time.Time{}, goerr.Wrap(err, "failed to reach firestore")
	}
	return time.Now().UTC(), nil
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
