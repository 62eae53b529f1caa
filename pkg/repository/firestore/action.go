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

// actionDoc is the Firestore persistence model
type actionDoc struct {
	ID          int64      `firestore:"id"`
	TenantID    string     `firestore:"tenant_id"`
	SiteID      string     `firestore:"site_id"`
	Title       string     `firestore:"title"`
	Description *string    `firestore:"description"`
	Status      string     `firestore:"status"`
	Priority    string     `firestore:"priority"`
	DueDate     *time.Time `firestore:"due_date"`
	CreatedBy   string     `firestore:"created_by"`
	AssignedTo  *string    `firestore:"assigned_to"`
	CreatedAt   time.Time  `firestore:"created_at"`
	UpdatedAt   time.Time  `firestore:"updated_at"`
}

func toActionDoc(a *model.Action) *actionDoc {
	return &actionDoc{
		ID:          a.ID,
		TenantID:    a.TenantID,
		SiteID:      a.SiteID,
		Title:       a.Title,
		Description: a.Description,
		Status:      a.Status.String(),
		Priority:    a.Priority.String(),
		DueDate:     a.DueDate,
		CreatedBy:   a.CreatedBy,
		AssignedTo:  a.AssignedTo,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (d *actionDoc) toModel() *model.Action {
	a := &model.Action{
		ID:          d.ID,
		TenantID:    d.TenantID,
		SiteID:      d.SiteID,
		Title:       d.Title,
		Description: d.Description,
		Status:      types.ActionStatus(d.Status),
		Priority:    types.Priority(d.Priority),
		CreatedBy:   d.CreatedBy,
		AssignedTo:  d.AssignedTo,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		a.DueDate = &due
	}
	return a
}

func decodeAction(doc *firestore.DocumentSnapshot) (*model.Action, error) {
	var d actionDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode action", goerr.V("doc_id", doc.Ref.ID))
	}
	return d.toModel(), nil
}

type actionRepository struct {
	client *firestore.Client
	col    *collections
}

func (r *actionRepository) actionsCollection(tenantID string) *firestore.CollectionRef {
	return r.col.tenant(tenantID).Collection(actionsSubCollection)
}

func (r *actionRepository) counterDoc(tenantID string) *firestore.DocumentRef {
	return r.col.tenant(tenantID).Collection(countersSubCollection).Doc(actionsSubCollection)
}

func actionDocID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (r *actionRepository) withNames(ctx context.Context, actions ...*model.Action) error {
	ids := make([]*string, len(actions))
	for i, a := range actions {
		ids[i] = a.AssignedTo
	}
	names, err := lookupNames(ctx, r.client, r.col.root(usersCollection), "full_name", uniqueIDs(ids...))
	if err != nil {
		return goerr.Wrap(err, "failed to resolve assignee names")
	}
	for _, a := range actions {
		a.AssignedToName = nameOf(names, a.AssignedTo)
	}
	return nil
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) (*model.Action, error) {
	id, err := nextID(ctx, r.client, r.counterDoc(action.TenantID))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := toActionDoc(action)
	doc.ID = id
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.actionsCollection(action.TenantID).Doc(actionDocID(id)).Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create action", goerr.V("id", id))
	}

	created := doc.toModel()
	if err := r.withNames(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func notFound(scope model.ActionScope, id int64) error {
	return goerr.Wrap(interfaces.ErrNotFound, "action not found",
		goerr.V("id", id),
		goerr.V("tenant_id", scope.TenantID),
		goerr.V("site_id", scope.SiteID))
}

func (r *actionRepository) Get(ctx context.Context, scope model.ActionScope, id int64) (*model.Action, error) {
	snap, err := r.actionsCollection(scope.TenantID).Doc(actionDocID(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, notFound(scope, id)
		}
		return nil, goerr.Wrap(err, "failed to get action", goerr.V("id", id))
	}

	action, err := decodeAction(snap)
	if err != nil {
		return nil, err
	}
	if !scope.Matches(action) {
		return nil, notFound(scope, id)
	}

	if err := r.withNames(ctx, action); err != nil {
		return nil, err
	}
	return action, nil
}

func (r *actionRepository) List(ctx context.Context, scope model.ActionScope, page model.Page) ([]*model.Action, error) {
	if page.Limit <= 0 {
		return []*model.Action{}, nil
	}

	q := r.actionsCollection(scope.TenantID).Where("site_id", "==", scope.SiteID)
	if scope.OwnerID != "" {
		q = q.WhereEntity(firestore.OrFilter{
			Filters: []firestore.EntityFilter{
				firestore.PropertyFilter{Path: "created_by", Operator: "==", Value: scope.OwnerID},
				firestore.PropertyFilter{Path: "assigned_to", Operator: "==", Value: scope.OwnerID},
			},
		})
	}

	iter := q.OrderBy("created_at", firestore.Desc).
		OrderBy("id", firestore.Desc).
		Offset(page.Offset).
		Limit(page.Limit).
		Documents(ctx)
	defer iter.Stop()

	actions := make([]*model.Action, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate actions",
				goerr.V("tenant_id", scope.TenantID),
				goerr.V("site_id", scope.SiteID))
		}

		action, err := decodeAction(snap)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	if err := r.withNames(ctx, actions...); err != nil {
		return nil, err
	}
	return actions, nil
}

func (r *actionRepository) Update(ctx context.Context, scope model.ActionScope, id int64, update *model.ActionUpdate) (*model.Action, error) {
	if update.IsEmpty() {
		return r.Get(ctx, scope, id)
	}

	ref := r.actionsCollection(scope.TenantID).Doc(actionDocID(id))

	var updated *model.Action
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return notFound(scope, id)
			}
			return goerr.Wrap(err, "failed to get action", goerr.V("id", id))
		}

		existing, err := decodeAction(snap)
		if err != nil {
			return err
		}
		if !scope.Matches(existing) {
			return notFound(scope, id)
		}

		updated = update.Apply(existing)
		updated.UpdatedAt = time.Now().UTC()
		return tx.Set(ref, toActionDoc(updated))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update action", goerr.V("id", id))
	}

	if err := r.withNames(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}
