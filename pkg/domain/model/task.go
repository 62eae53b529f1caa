package model

import (
	"time"

	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

// DefaultTaskStatus is applied when a new task does not specify a status
const DefaultTaskStatus = "pending"

// Task is a lightweight work item. Unlike Action it is not scoped to a
// tenant or site.
type Task struct {
	ID          int64
	Title       string
	Description *string
	Status      string
	DueDate     *time.Time
	AssignedTo  *string
	TeamID      *types.TeamID
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Resolved by the repository on read
	AssignedToName *string
	TeamName       *string
}

// ValidateTaskCreate validates a task create payload. Task payloads use
// camelCase keys.
func ValidateTaskCreate(p Payload) (*Task, error) {
	title, _ := p["title"].(string)
	if title == "" {
		return nil, invalid("title", "title is required")
	}

	task := &Task{
		Title:  title,
		Status: DefaultTaskStatus,
	}

	if v, ok := p.lookup("description"); ok {
		s, isStr := v.(string)
		if !isStr {
			return nil, invalid("description", "description must be a string")
		}
		task.Description = &s
	}

	if v, ok := p.lookup("status"); ok {
		s, isStr := v.(string)
		if !isStr || s == "" {
			return nil, invalid("status", "status must be a non-empty string")
		}
		task.Status = s
	}

	if v, ok := p.lookup("dueDate"); ok {
		s, isStr := v.(string)
		if !isStr {
			return nil, invalid("dueDate", "dueDate must be a valid date")
		}
		if s != "" {
			t, err := ParseDate(s)
			if err != nil {
				return nil, invalid("dueDate", "dueDate must be a valid date")
			}
			task.DueDate = &t
		}
	}

	if v, ok := p.lookup("assignedTo"); ok {
		s, isStr := v.(string)
		if !isStr {
			return nil, invalid("assignedTo", "assignedTo must be a string user id")
		}
		if s != "" {
			task.AssignedTo = &s
		}
	}

	if v, ok := p.lookup("teamId"); ok {
		s, isStr := v.(string)
		if !isStr {
			return nil, invalid("teamId", "teamId must be a string")
		}
		if s != "" {
			id := types.TeamID(s)
			task.TeamID = &id
		}
	}

	return task, nil
}
