package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

// User is a member of exactly one tenant and site
type User struct {
	ID           string
	TenantID     string
	SiteID       string
	Email        string
	FullName     string
	Role         types.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Teams holds the names of the teams the user belongs to, sorted by
	// name. Only ListBySite resolves it.
	Teams []string
}

// NewUserID generates a new user identifier
func NewUserID() string {
	return uuid.NewString()
}

// Site is a sub-tenant isolation boundary
type Site struct {
	ID       string
	TenantID string
	Name     string
}

// Team groups users for task assignment
type Team struct {
	ID   types.TeamID
	Name string
}

// UserCreate is a validated request to add a user to the caller's site
type UserCreate struct {
	Email    string
	FullName string
	Password string
	Role     types.Role
}

// ValidateUserCreate validates a user create payload
func ValidateUserCreate(p Payload) (*UserCreate, error) {
	email, _ := p["email"].(string)
	fullName, _ := p["fullName"].(string)
	password, _ := p["password"].(string)
	if email == "" || fullName == "" || password == "" {
		return nil, invalid("email", "email, fullName, and password are required")
	}

	out := &UserCreate{
		Email:    email,
		FullName: fullName,
		Password: password,
		Role:     types.RoleOperator,
	}

	if v, ok := p.lookup("role"); ok {
		s, _ := v.(string)
		role, err := types.ParseRole(s)
		if err != nil {
			return nil, invalid("role", "role must be one of "+joinValues(types.AllRoles()))
		}
		out.Role = role
	}

	return out, nil
}
