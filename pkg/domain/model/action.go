package model

import (
	"time"

	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

// Action represents a tracked action item owned by a tenant and site
type Action struct {
	ID          int64
	TenantID    string // immutable after creation
	SiteID      string // immutable after creation
	Title       string
	Description *string
	Status      types.ActionStatus
	Priority    types.Priority
	DueDate     *time.Time
	CreatedBy   string // user ID of the creator, never changes
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// AssignedToName is the display name of the assignee, resolved by the repository on read
	AssignedToName *string
}

// IsAssignedTo reports whether the action is assigned to userID
func (a *Action) IsAssignedTo(userID string) bool {
	return a.AssignedTo != nil && *a.AssignedTo == userID
}

// ActionCreate is a validated create payload
type ActionCreate struct {
	Title       string
	Description *string
	Priority    *types.Priority
	DueDate     *time.Time
	AssignedTo  *string
}

// ActionUpdate is a validated partial update. A nil field means "keep the
// current value". An empty AssignedTo clears the assignee.
type ActionUpdate struct {
	Status      *types.ActionStatus
	AssignedTo  *string
	Priority    *types.Priority
	Title       *string
	Description *string
	DueDate     *time.Time
}

// IsEmpty reports whether the update changes nothing
func (u *ActionUpdate) IsEmpty() bool {
	return u.Status == nil &&
		u.AssignedTo == nil &&
		u.Priority == nil &&
		u.Title == nil &&
		u.Description == nil &&
		u.DueDate == nil
}

// Apply merges the present fields of u into a copy of a and returns it.
// Identity fields and timestamps are never touched.
func (u *ActionUpdate) Apply(a *Action) *Action {
	merged := *a
	if u.Status != nil {
		merged.Status = *u.Status
	}
	if u.AssignedTo != nil {
		if *u.AssignedTo == "" {
			merged.AssignedTo = nil
			merged.AssignedToName = nil
		} else {
			merged.AssignedTo = ptr(*u.AssignedTo)
		}
	}
	if u.Priority != nil {
		merged.Priority = *u.Priority
	}
	if u.Title != nil {
		merged.Title = *u.Title
	}
	if u.Description != nil {
		merged.Description = ptr(*u.Description)
	}
	if u.DueDate != nil {
		merged.DueDate = ptr(*u.DueDate)
	}
	return &merged
}

// ActionScope restricts action queries. Rows outside TenantID/SiteID are
// never visible. When OwnerID is set, only rows created by or assigned to
// that user are visible.
type ActionScope struct {
	TenantID string
	SiteID   string
	OwnerID  string
}

// Matches reports whether a falls inside the scope
func (s ActionScope) Matches(a *Action) bool {
	if a.TenantID != s.TenantID || a.SiteID != s.SiteID {
		return false
	}
	if s.OwnerID == "" {
		return true
	}
	return a.CreatedBy == s.OwnerID || a.IsAssignedTo(s.OwnerID)
}

func ptr[T any](v T) *T {
	return &v
}
