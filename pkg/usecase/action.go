package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/model/auth"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"github.com/secmon-lab/entelligence/pkg/utils/logging"
)

type ActionUseCase struct {
	repo interfaces.Repository
}

func NewActionUseCase(repo interfaces.Repository) *ActionUseCase {
	return &ActionUseCase{
		repo: repo,
	}
}

// ListActions returns the actions visible to identity, newest first
func (uc *ActionUseCase) ListActions(ctx context.Context, identity *auth.Identity, page model.Page) ([]*model.Action, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	actions, err := uc.repo.Action().List(ctx, model.ScopeFor(identity), page)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list actions",
			goerr.V(TenantIDKey, identity.TenantID),
			goerr.V(SiteIDKey, identity.SiteID))
	}
	return actions, nil
}

// GetAction returns a single action. Actions identity may not read are
// reported as not found.
func (uc *ActionUseCase) GetAction(ctx context.Context, identity *auth.Identity, id int64) (*model.Action, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	action, err := uc.load(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if !model.CanReadAction(identity, action) {
		return nil, goerr.Wrap(ErrActionNotFound, "action not readable",
			goerr.V(ActionIDKey, id),
			goerr.V(UserIDKey, identity.UserID))
	}
	return action, nil
}

// CreateAction validates payload and stores a new action in identity's
// tenant and site
func (uc *ActionUseCase) CreateAction(ctx context.Context, identity *auth.Identity, payload model.Payload) (*model.Action, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	input, err := model.ValidateActionCreate(payload)
	if err != nil {
		return nil, err
	}

	if err := uc.checkAssignee(ctx, identity, input.AssignedTo); err != nil {
		return nil, err
	}

	action := &model.Action{
		TenantID:    identity.TenantID,
		SiteID:      identity.SiteID,
		Title:       input.Title,
		Description: input.Description,
		Status:      types.ActionStatusOpen,
		Priority:    types.DefaultPriority,
		DueDate:     input.DueDate,
		CreatedBy:   identity.UserID,
		AssignedTo:  input.AssignedTo,
	}
	if input.Priority != nil {
		action.Priority = *input.Priority
	}

	created, err := uc.repo.Action().Create(ctx, action)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create action",
			goerr.V(TenantIDKey, identity.TenantID),
			goerr.V(SiteIDKey, identity.SiteID))
	}

	logging.From(ctx).Info("action created",
		ActionIDKey, created.ID,
		UserIDKey, identity.UserID,
		TenantIDKey, identity.TenantID,
		SiteIDKey, identity.SiteID)

	return created, nil
}

// UpdateAction applies a partial update. Only fields present in payload
// change; an empty payload returns the action untouched.
func (uc *ActionUseCase) UpdateAction(ctx context.Context, identity *auth.Identity, id int64, payload model.Payload) (*model.Action, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	update, err := model.ValidateActionUpdate(payload)
	if err != nil {
		return nil, err
	}

	existing, err := uc.load(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if !model.CanWriteAction(identity, existing) {
		return nil, goerr.Wrap(ErrAccessDenied, "not allowed to modify action",
			goerr.V(ActionIDKey, id),
			goerr.V(UserIDKey, identity.UserID))
	}

	if err := uc.checkAssignee(ctx, identity, update.AssignedTo); err != nil {
		return nil, err
	}

	if update.IsEmpty() {
		return existing, nil
	}

	updated, err := uc.repo.Action().Update(ctx, model.SiteScopeFor(identity), id, update)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrActionNotFound, "action disappeared during update", goerr.V(ActionIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to update action", goerr.V(ActionIDKey, id))
	}

	logging.From(ctx).Info("action updated",
		ActionIDKey, id,
		UserIDKey, identity.UserID)

	return updated, nil
}

// load fetches an action within identity's tenant and site, without
// ownership filtering
func (uc *ActionUseCase) load(ctx context.Context, identity *auth.Identity, id int64) (*model.Action, error) {
	action, err := uc.repo.Action().Get(ctx, model.SiteScopeFor(identity), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrActionNotFound, "action not found", goerr.V(ActionIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get action", goerr.V(ActionIDKey, id))
	}
	return action, nil
}

// checkAssignee enforces the assignment rules for a requested assignee. A
// nil or empty target leaves or clears the assignment and is always allowed.
func (uc *ActionUseCase) checkAssignee(ctx context.Context, identity *auth.Identity, target *string) error {
	if target == nil || *target == "" {
		return nil
	}

	if !model.CanAssign(identity, target) {
		return goerr.Wrap(ErrAssignDenied, "operator tried to assign another user",
			goerr.V(UserIDKey, identity.UserID),
			goerr.V("assignee", *target))
	}

	ok, err := uc.repo.User().ExistsInSite(ctx, identity.TenantID, identity.SiteID, *target)
	if err != nil {
		return goerr.Wrap(err, "failed to check assignee", goerr.V("assignee", *target))
	}
	if !ok {
		return goerr.Wrap(ErrAssigneeOutOfScope, "assignee outside tenant/site",
			goerr.V("assignee", *target),
			goerr.V(TenantIDKey, identity.TenantID),
			goerr.V(SiteIDKey, identity.SiteID))
	}
	return nil
}
