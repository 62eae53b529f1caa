package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type taskRow struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string     `gorm:"column:title"`
	Description *string    `gorm:"column:description"`
	Status      string     `gorm:"column:status"`
	DueDate     *time.Time `gorm:"column:due_date"`
	AssignedTo  *string    `gorm:"column:assigned_to"`
	TeamID      *string    `gorm:"column:team_id"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`

	AssignedToName *string `gorm:"column:assigned_to_name;->"`
	TeamName       *string `gorm:"column:team_name;->"`
}

func (taskRow) TableName() string {
	return "tasks"
}

func (r taskRow) toModel() *model.Task {
	t := &model.Task{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		DueDate:        utcPtr(r.DueDate),
		AssignedTo:     r.AssignedTo,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		AssignedToName: r.AssignedToName,
		TeamName:       r.TeamName,
	}
	if r.TeamID != nil {
		id := types.TeamID(*r.TeamID)
		t.TeamID = &id
	}
	return t
}

type taskRepository struct {
	db *gorm.DB
}

func (r *taskRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("tasks AS t").
		Select("t.*, u.full_name AS assigned_to_name, tm.name AS team_name").
		Joins("LEFT JOIN mt_users AS u ON u.user_id = t.assigned_to").
		Joins("LEFT JOIN teams AS tm ON tm.id = t.team_id")
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	now := time.Now().UTC()
	row := taskRow{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		DueDate:     utcPtr(task.DueDate),
		AssignedTo:  task.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.TeamID != nil {
		id := task.TeamID.String()
		row.TeamID = &id
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to insert task")
	}

	var rows []taskRow
	if err := r.joined(ctx).Where("t.id = ?", row.ID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to reload task", goerr.V("id", row.ID))
	}
	if len(rows) == 0 {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "task vanished after insert", goerr.V("id", row.ID))
	}
	return rows[0].toModel(), nil
}

func (r *taskRepository) List(ctx context.Context) ([]*model.Task, error) {
	var rows []taskRow
	if err := r.joined(ctx).Order("t.created_at DESC, t.id DESC").Scan(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list tasks")
	}

	tasks := make([]*model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toModel())
	}
	return tasks, nil
}

type teamRow struct {
	ID   string `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

func (teamRow) TableName() string {
	return "teams"
}

type teamRepository struct {
	db *gorm.DB
}

func (r *teamRepository) Put(ctx context.Context, team *model.Team) error {
	if err := team.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team")
	}

	row := teamRow{ID: team.ID.String(), Name: team.Name}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&row).Error
	if err != nil {
		return goerr.Wrap(err, "failed to put team", goerr.V("id", team.ID))
	}
	return nil
}

func (r *teamRepository) Get(ctx context.Context, id types.TeamID) (*model.Team, error) {
	var row teamRow
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "team not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get team", goerr.V("id", id))
	}
	return &model.Team{ID: types.TeamID(row.ID), Name: row.Name}, nil
}

func (r *teamRepository) List(ctx context.Context) ([]*model.Team, error) {
	var rows []teamRow
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list teams")
	}

	teams := make([]*model.Team, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, &model.Team{ID: types.TeamID(row.ID), Name: row.Name})
	}
	return teams, nil
}
