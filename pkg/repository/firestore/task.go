package firestore

import (
	"context"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// taskDoc is the Firestore persistence model
type taskDoc struct {
	ID          int64      `firestore:"id"`
	Title       string     `firestore:"title"`
	Description *string    `firestore:"description"`
	Status      string     `firestore:"status"`
	DueDate     *time.Time `firestore:"due_date"`
	AssignedTo  *string    `firestore:"assigned_to"`
	TeamID      *string    `firestore:"team_id"`
	CreatedAt   time.Time  `firestore:"created_at"`
	UpdatedAt   time.Time  `firestore:"updated_at"`
}

func (d *taskDoc) toModel() *model.Task {
	t := &model.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		AssignedTo:  d.AssignedTo,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		t.DueDate = &due
	}
	if d.TeamID != nil {
		id := types.TeamID(*d.TeamID)
		t.TeamID = &id
	}
	return t
}

type taskRepository struct {
	client *firestore.Client
	col    *collections
}

func (r *taskRepository) withNames(ctx context.Context, tasks ...*model.Task) error {
	assignees := make([]*string, len(tasks))
	teams := make([]*string, len(tasks))
	for i, t := range tasks {
		assignees[i] = t.AssignedTo
		if t.TeamID != nil {
			id := t.TeamID.String()
			teams[i] = &id
		}
	}

	userNames, err := lookupNames(ctx, r.client, r.col.root(usersCollection), "full_name", uniqueIDs(assignees...))
	if err != nil {
		return goerr.Wrap(err, "failed to resolve assignee names")
	}
	teamNames, err := lookupNames(ctx, r.client, r.col.root(teamsCollection), "name", uniqueIDs(teams...))
	if err != nil {
		return goerr.Wrap(err, "failed to resolve team names")
	}

	for i, t := range tasks {
		t.AssignedToName = nameOf(userNames, t.AssignedTo)
		t.TeamName = nameOf(teamNames, teams[i])
	}
	return nil
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	id, err := nextID(ctx, r.client, r.col.root(countersCollection).Doc(tasksCollection))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := &taskDoc{
		ID:          id,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		DueDate:     task.DueDate,
		AssignedTo:  task.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.TeamID != nil {
		teamID := task.TeamID.String()
		doc.TeamID = &teamID
	}

	if _, err := r.col.root(tasksCollection).Doc(strconv.FormatInt(id, 10)).Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create task", goerr.V("id", id))
	}

	created := doc.toModel()
	if err := r.withNames(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *taskRepository) List(ctx context.Context) ([]*model.Task, error) {
	iter := r.col.root(tasksCollection).
		OrderBy("created_at", firestore.Desc).
		OrderBy("id", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	tasks := make([]*model.Task, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tasks")
		}

		var d taskDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode task", goerr.V("doc_id", snap.Ref.ID))
		}
		tasks = append(tasks, d.toModel())
	}

	if err := r.withNames(ctx, tasks...); err != nil {
		return nil, err
	}
	return tasks, nil
}

type teamDoc struct {
	ID   string `firestore:"id"`
	Name string `firestore:"name"`
}

type teamRepository struct {
	col *collections
}

func (r *teamRepository) Put(ctx context.Context, team *model.Team) error {
	if err := team.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team")
	}

	doc := &teamDoc{ID: team.ID.String(), Name: team.Name}
	if _, err := r.col.root(teamsCollection).Doc(doc.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put team", goerr.V("id", team.ID))
	}
	return nil
}

func (r *teamRepository) Get(ctx context.Context, id types.TeamID) (*model.Team, error) {
	snap, err := r.col.root(teamsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "team not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get team", goerr.V("id", id))
	}

	var d teamDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode team", goerr.V("id", id))
	}
	return &model.Team{ID: types.TeamID(d.ID), Name: d.Name}, nil
}

func (r *teamRepository) List(ctx context.Context) ([]*model.Team, error) {
	iter := r.col.root(teamsCollection).OrderBy("id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	teams := make([]*model.Team, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate teams")
		}

		var d teamDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode team", goerr.V("doc_id", snap.Ref.ID))
		}
		teams = append(teams, &model.Team{ID: types.TeamID(d.ID), Name: d.Name})
	}
	return teams, nil
}
