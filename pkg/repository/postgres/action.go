package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"gorm.io/gorm"
)

type actionRow struct {
	ID          int64      `gorm:"column:action_id;primaryKey;autoIncrement"`
	TenantID    string     `gorm:"column:tenant_id"`
	SiteID      string     `gorm:"column:site_id"`
	Title       string     `gorm:"column:title"`
	Description *string    `gorm:"column:description"`
	Status      string     `gorm:"column:status"`
	Priority    string     `gorm:"column:priority"`
	DueDate     *time.Time `gorm:"column:due_date"`
	CreatedBy   string     `gorm:"column:created_by"`
	AssignedTo  *string    `gorm:"column:assigned_to"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`

	AssignedToName *string `gorm:"column:assigned_to_name;->"`
}

func (actionRow) TableName() string {
	return "actions"
}

func actionRowFromModel(a *model.Action) actionRow {
	return actionRow{
		TenantID:    a.TenantID,
		SiteID:      a.SiteID,
		Title:       a.Title,
		Description: a.Description,
		Status:      a.Status.String(),
		Priority:    a.Priority.String(),
		DueDate:     utcPtr(a.DueDate),
		CreatedBy:   a.CreatedBy,
		AssignedTo:  a.AssignedTo,
	}
}

func (r actionRow) toModel() *model.Action {
	return &model.Action{
		ID:             r.ID,
		TenantID:       r.TenantID,
		SiteID:         r.SiteID,
		Title:          r.Title,
		Description:    r.Description,
		Status:         types.ActionStatus(r.Status),
		Priority:       types.Priority(r.Priority),
		DueDate:        utcPtr(r.DueDate),
		CreatedBy:      r.CreatedBy,
		AssignedTo:     r.AssignedTo,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		AssignedToName: r.AssignedToName,
	}
}

type actionRepository struct {
	db *gorm.DB
}

// scoped selects from actions joined with the assignee's name, restricted to scope
func (r *actionRepository) scoped(ctx context.Context, scope model.ActionScope) *gorm.DB {
	tx := r.db.WithContext(ctx).
		Table("actions AS a").
		Select("a.*, u.full_name AS assigned_to_name").
		Joins("LEFT JOIN mt_users AS u ON u.user_id = a.assigned_to").
		Where("a.tenant_id = ? AND a.site_id = ?", scope.TenantID, scope.SiteID)
	if scope.OwnerID != "" {
		tx = tx.Where("(a.created_by = ? OR a.assigned_to = ?)", scope.OwnerID, scope.OwnerID)
	}
	return tx
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) (*model.Action, error) {
	row := actionRowFromModel(action)
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to insert action",
			goerr.V("tenant_id", action.TenantID),
			goerr.V("site_id", action.SiteID))
	}

	return r.Get(ctx, model.ActionScope{TenantID: row.TenantID, SiteID: row.SiteID}, row.ID)
}

func (r *actionRepository) Get(ctx context.Context, scope model.ActionScope, id int64) (*model.Action, error) {
	var rows []actionRow
	if err := r.scoped(ctx, scope).Where("a.action_id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to get action", goerr.V("id", id))
	}
	if len(rows) == 0 {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found",
			goerr.V("id", id),
			goerr.V("tenant_id", scope.TenantID),
			goerr.V("site_id", scope.SiteID))
	}
	return rows[0].toModel(), nil
}

func (r *actionRepository) List(ctx context.Context, scope model.ActionScope, page model.Page) ([]*model.Action, error) {
	if page.Limit <= 0 {
		return []*model.Action{}, nil
	}

	var rows []actionRow
	err := r.scoped(ctx, scope).
		Order("a.created_at DESC, a.action_id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list actions",
			goerr.V("tenant_id", scope.TenantID),
			goerr.V("site_id", scope.SiteID))
	}

	actions := make([]*model.Action, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, row.toModel())
	}
	return actions, nil
}

// updateColumns maps the present fields of u to column assignments. A
// cleared assignee is written as NULL.
func updateColumns(u *model.ActionUpdate) map[string]any {
	cols := map[string]any{}
	if u.Status != nil {
		cols["status"] = u.Status.String()
	}
	if u.AssignedTo != nil {
		if *u.AssignedTo == "" {
			cols["assigned_to"] = nil
		} else {
			cols["assigned_to"] = *u.AssignedTo
		}
	}
	if u.Priority != nil {
		cols["priority"] = u.Priority.String()
	}
	if u.Title != nil {
		cols["title"] = *u.Title
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.DueDate != nil {
		cols["due_date"] = u.DueDate.UTC()
	}
	return cols
}

func (r *actionRepository) Update(ctx context.Context, scope model.ActionScope, id int64, update *model.ActionUpdate) (*model.Action, error) {
	if update.IsEmpty() {
		return r.Get(ctx, scope, id)
	}

	cols := updateColumns(update)
	cols["updated_at"] = time.Now().UTC()

	tx := r.db.WithContext(ctx).
		Table("actions").
		Where("action_id = ? AND tenant_id = ? AND site_id = ?", id, scope.TenantID, scope.SiteID)
	if scope.OwnerID != "" {
		tx = tx.Where("(created_by = ? OR assigned_to = ?)", scope.OwnerID, scope.OwnerID)
	}

	result := tx.Updates(cols)
	if result.Error != nil {
		return nil, goerr.Wrap(result.Error, "failed to update action", goerr.V("id", id))
	}
	if result.RowsAffected == 0 {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found",
			goerr.V("id", id),
			goerr.V("tenant_id", scope.TenantID),
			goerr.V("site_id", scope.SiteID))
	}

	return r.Get(ctx, model.ActionScope{TenantID: scope.TenantID, SiteID: scope.SiteID}, id)
}
