package firestore

import (
	"context"
	"errors"
	"slices"
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

// userDoc is the Firestore persistence model
type userDoc struct {
	ID           string    `firestore:"id"`
	TenantID     string    `firestore:"tenant_id"`
	SiteID       string    `firestore:"site_id"`
	Email        string    `firestore:"email"`
	FullName     string    `firestore:"full_name"`
	Role         string    `firestore:"role"`
	PasswordHash string    `firestore:"password_hash"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
	TeamIDs      []string  `firestore:"team_ids"`
}

// userEmailDoc reserves an email address for exactly one user
type userEmailDoc struct {
	UserID string `firestore:"user_id"`
}

func (d *userDoc) toModel() *model.User {
	return &model.User{
		ID:           d.ID,
		TenantID:     d.TenantID,
		SiteID:       d.SiteID,
		Email:        d.Email,
		FullName:     d.FullName,
		Role:         types.Role(d.Role),
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	client *firestore.Client
	col    *collections
}

func (r *userRepository) users() *firestore.CollectionRef {
	return r.col.root(usersCollection)
}

func (r *userRepository) emails() *firestore.CollectionRef {
	return r.col.root(userEmailsCollection)
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()
	doc := &userDoc{
		ID:           user.ID,
		TenantID:     user.TenantID,
		SiteID:       user.SiteID,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role.String(),
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.ID == "" {
		doc.ID = model.NewUserID()
	}

	userRef := r.users().Doc(doc.ID)
	emailRef := r.emails().Doc(doc.Email)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, ref := range []*firestore.DocumentRef{emailRef, userRef} {
			_, err := tx.Get(ref)
			if err == nil {
				return goerr.Wrap(interfaces.ErrConflict, "user already exists",
					goerr.V("email", doc.Email), goerr.V("id", doc.ID))
			}
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to check user uniqueness")
			}
		}

		if err := tx.Create(emailRef, &userEmailDoc{UserID: doc.ID}); err != nil {
			return err
		}
		return tx.Create(userRef, doc)
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return nil, err
		}
		return nil, goerr.Wrap(err, "failed to create user", goerr.V("email", doc.Email))
	}

	return doc.toModel(), nil
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	snap, err := r.users().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("id", id))
	}
	return d.toModel(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	snap, err := r.emails().Doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("email", email))
		}
		return nil, goerr.Wrap(err, "failed to look up email", goerr.V("email", email))
	}

	var e userEmailDoc
	if err := snap.DataTo(&e); err != nil {
		return nil, goerr.Wrap(err, "failed to decode email reservation", goerr.V("email", email))
	}
	return r.Get(ctx, e.UserID)
}

func (r *userRepository) ExistsInSite(ctx context.Context, tenantID, siteID, userID string) (bool, error) {
	user, err := r.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.TenantID == tenantID && user.SiteID == siteID, nil
}

func (r *userRepository) ListBySite(ctx context.Context, tenantID, siteID string) ([]*model.User, error) {
	iter := r.users().
		Where("tenant_id", "==", tenantID).
		Where("site_id", "==", siteID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	users := make([]*model.User, 0)
	var teamIDs [][]string
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate users",
				goerr.V("tenant_id", tenantID),
				goerr.V("site_id", siteID))
		}

		var d userDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode user", goerr.V("doc_id", snap.Ref.ID))
		}
		users = append(users, d.toModel())
		teamIDs = append(teamIDs, d.TeamIDs)
	}

	if err := r.withTeams(ctx, users, teamIDs); err != nil {
		return nil, err
	}
	return users, nil
}

// withTeams resolves teamIDs[i] into users[i].Teams
func (r *userRepository) withTeams(ctx context.Context, users []*model.User, teamIDs [][]string) error {
	var ptrs []*string
	for _, ids := range teamIDs {
		for _, id := range ids {
			ptrs = append(ptrs, &id)
		}
	}

	names, err := lookupNames(ctx, r.client, r.col.root(teamsCollection), "name", uniqueIDs(ptrs...))
	if err != nil {
		return goerr.Wrap(err, "failed to resolve team names")
	}

	for i, u := range users {
		u.Teams = make([]string, 0, len(teamIDs[i]))
		for _, id := range teamIDs[i] {
			if name, ok := names[id]; ok {
				u.Teams = append(u.Teams, name)
			}
		}
		slices.Sort(u.Teams)
	}
	return nil
}

func (r *userRepository) AddTeam(ctx context.Context, userID string, teamID types.TeamID) error {
	if _, err := r.col.root(teamsCollection).Doc(teamID.String()).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "team not found", goerr.V("team_id", teamID))
		}
		return goerr.Wrap(err, "failed to get team", goerr.V("team_id", teamID))
	}

	_, err := r.users().Doc(userID).Update(ctx, []firestore.Update{
		{Path: "team_ids", Value: firestore.ArrayUnion(teamID.String())},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", userID))
		}
		return goerr.Wrap(err, "failed to add team membership",
			goerr.V("user_id", userID), goerr.V("team_id", teamID))
	}
	return nil
}

type siteDoc struct {
	ID       string `firestore:"id"`
	TenantID string `firestore:"tenant_id"`
	Name     string `firestore:"name"`
}

type siteRepository struct {
	col *collections
}

func (r *siteRepository) doc(tenantID, siteID string) *firestore.DocumentRef {
	return r.col.tenant(tenantID).Collection(sitesSubCollection).Doc(siteID)
}

func (r *siteRepository) Put(ctx context.Context, site *model.Site) error {
	doc := &siteDoc{ID: site.ID, TenantID: site.TenantID, Name: site.Name}
	if _, err := r.doc(site.TenantID, site.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put site",
			goerr.V("tenant_id", site.TenantID),
			goerr.V("site_id", site.ID))
	}
	return nil
}

func (r *siteRepository) Get(ctx context.Context, tenantID, siteID string) (*model.Site, error) {
	snap, err := r.doc(tenantID, siteID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "site not found",
				goerr.V("tenant_id", tenantID), goerr.V("site_id", siteID))
		}
		return nil, goerr.Wrap(err, "failed to get site",
			goerr.V("tenant_id", tenantID), goerr.V("site_id", siteID))
	}

	var d siteDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode site")
	}
	return &model.Site{ID: d.ID, TenantID: d.TenantID, Name: d.Name}, nil
}
