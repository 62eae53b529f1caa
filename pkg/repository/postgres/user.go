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

type userRow struct {
	UserID       string    `gorm:"column:user_id;primaryKey"`
	TenantID     string    `gorm:"column:tenant_id"`
	SiteID       string    `gorm:"column:site_id"`
	Email        string    `gorm:"column:email"`
	FullName     string    `gorm:"column:full_name"`
	Role         string    `gorm:"column:role"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRow) TableName() string {
	return "mt_users"
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:           r.UserID,
		TenantID:     r.TenantID,
		SiteID:       r.SiteID,
		Email:        r.Email,
		FullName:     r.FullName,
		Role:         types.Role(r.Role),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()
	row := userRow{
		UserID:       user.ID,
		TenantID:     user.TenantID,
		SiteID:       user.SiteID,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role.String(),
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if row.UserID == "" {
		row.UserID = model.NewUserID()
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, goerr.Wrap(interfaces.ErrConflict, "user already exists", goerr.V("email", user.Email))
		}
		return nil, goerr.Wrap(err, "failed to insert user", goerr.V("email", user.Email))
	}
	return row.toModel(), nil
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*model.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("key", arg))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("key", arg))
	}
	return row.toModel(), nil
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "user_id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) ExistsInSite(ctx context.Context, tenantID, siteID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userRow{}).
		Where("user_id = ? AND tenant_id = ? AND site_id = ?", userID, tenantID, siteID).
		Count(&count).Error
	if err != nil {
		return false, goerr.Wrap(err, "failed to check user membership",
			goerr.V("user_id", userID),
			goerr.V("tenant_id", tenantID),
			goerr.V("site_id", siteID))
	}
	return count > 0, nil
}

func (r *userRepository) ListBySite(ctx context.Context, tenantID, siteID string) ([]*model.User, error) {
	var rows []userRow
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND site_id = ?", tenantID, siteID).
		Order("created_at DESC, email ASC").
		Find(&rows).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users",
			goerr.V("tenant_id", tenantID),
			goerr.V("site_id", siteID))
	}

	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	if err := r.withTeams(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

type userTeamRow struct {
	UserID string `gorm:"column:user_id;primaryKey"`
	TeamID string `gorm:"column:team_id;primaryKey"`
}

func (userTeamRow) TableName() string {
	return "user_teams"
}

// withTeams fills Teams of every user with one query over user_teams
func (r *userRepository) withTeams(ctx context.Context, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]string, len(users))
	byID := make(map[string]*model.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		u.Teams = []string{}
		byID[u.ID] = u
	}

	var memberships []struct {
		UserID string
		Name   string
	}
	err := r.db.WithContext(ctx).
		Table("user_teams AS ut").
		Select("ut.user_id AS user_id, t.name AS name").
		Joins("JOIN teams AS t ON t.id = ut.team_id").
		Where("ut.user_id IN ?", ids).
		Order("t.name ASC").
		Scan(&memberships).Error
	if err != nil {
		return goerr.Wrap(err, "failed to load team memberships", goerr.V("count", len(ids)))
	}

	for _, m := range memberships {
		if u, ok := byID[m.UserID]; ok {
			u.Teams = append(u.Teams, m.Name)
		}
	}
	return nil
}

func (r *userRepository) AddTeam(ctx context.Context, userID string, teamID types.TeamID) error {
	row := userTeamRow{UserID: userID, TeamID: teamID.String()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		if isForeignKeyViolation(err) {
			return goerr.Wrap(interfaces.ErrNotFound, "user or team not found",
				goerr.V("user_id", userID), goerr.V("team_id", teamID))
		}
		return goerr.Wrap(err, "failed to add team membership",
			goerr.V("user_id", userID), goerr.V("team_id", teamID))
	}
	return nil
}

type siteRow struct {
	TenantID string `gorm:"column:tenant_id;primaryKey"`
	SiteID   string `gorm:"column:site_id;primaryKey"`
	SiteName string `gorm:"column:site_name"`
}

func (siteRow) TableName() string {
	return "sites"
}

type siteRepository struct {
	db *gorm.DB
}

func (r *siteRepository) Put(ctx context.Context, site *model.Site) error {
	row := siteRow{TenantID: site.TenantID, SiteID: site.ID, SiteName: site.Name}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "site_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"site_name"}),
	}).Create(&row).Error
	if err != nil {
		return goerr.Wrap(err, "failed to put site",
			goerr.V("tenant_id", site.TenantID),
			goerr.V("site_id", site.ID))
	}
	return nil
}

func (r *siteRepository) Get(ctx context.Context, tenantID, siteID string) (*model.Site, error) {
	var row siteRow
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND site_id = ?", tenantID, siteID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "site not found",
				goerr.V("tenant_id", tenantID), goerr.V("site_id", siteID))
		}
		return nil, goerr.Wrap(err, "failed to get site",
			goerr.V("tenant_id", tenantID), goerr.V("site_id", siteID))
	}
	return &model.Site{ID: row.SiteID, TenantID: row.TenantID, Name: row.SiteName}, nil
}
