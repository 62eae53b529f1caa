package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

// Payload is a decoded JSON request body. A key mapped to nil (JSON null)
// is treated the same as a missing key.
type Payload map[string]any

func (p Payload) lookup(key string) (any, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

const minTitleLength = 3

var (
	priorityMessage = "priority must be one of " + joinValues(types.AllPriorities())
	statusMessage   = "status must be one of " + joinValues(types.AllActionStatuses())
)

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ValidateActionCreate validates a create payload. Fields are checked in a
// fixed order and the first failure is returned.
func ValidateActionCreate(p Payload) (*ActionCreate, error) {
	out := &ActionCreate{}

	title, ok := p.lookup(FieldTitle)
	s, isStr := title.(string)
	if !ok || !isStr || !longEnough(s) {
		return nil, invalid(FieldTitle, "title is required (min 3 chars)")
	}
	out.Title = s

	desc, err := validateDescription(p)
	if err != nil {
		return nil, err
	}
	out.Description = desc

	priority, err := validatePriority(p)
	if err != nil {
		return nil, err
	}
	out.Priority = priority

	assignee, err := validateAssignee(p)
	if err != nil {
		return nil, err
	}
	if assignee != nil && *assignee != "" {
		out.AssignedTo = assignee
	}

	due, err := validateDueDate(p)
	if err != nil {
		return nil, err
	}
	out.DueDate = due

	return out, nil
}

// ValidateActionUpdate validates a partial update payload. Every field is
// optional; present fields follow the same rules as create.
func ValidateActionUpdate(p Payload) (*ActionUpdate, error) {
	out := &ActionUpdate{}

	if v, ok := p.lookup(FieldStatus); ok {
		s, _ := v.(string)
		status, err := types.ParseActionStatus(s)
		if err != nil {
			return nil, invalid(FieldStatus, statusMessage)
		}
		out.Status = &status
	}

	priority, err := validatePriority(p)
	if err != nil {
		return nil, err
	}
	out.Priority = priority

	if v, ok := p.lookup(FieldTitle); ok {
		s, isStr := v.(string)
		if !isStr || !longEnough(s) {
			return nil, invalid(FieldTitle, "title must be at least 3 characters")
		}
		out.Title = &s
	}

	desc, err := validateDescription(p)
	if err != nil {
		return nil, err
	}
	out.Description = desc

	assignee, err := validateAssignee(p)
	if err != nil {
		return nil, err
	}
	out.AssignedTo = assignee

	due, err := validateDueDate(p)
	if err != nil {
		return nil, err
	}
	out.DueDate = due

	return out, nil
}

func validateDescription(p Payload) (*string, error) {
	v, ok := p.lookup(FieldDescription)
	if !ok {
		return nil, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return nil, invalid(FieldDescription, "description must be a string")
	}
	return &s, nil
}

func validatePriority(p Payload) (*types.Priority, error) {
	v, ok := p.lookup(FieldPriority)
	if !ok {
		return nil, nil
	}
	s, _ := v.(string)
	priority, err := types.ParsePriority(s)
	if err != nil {
		return nil, invalid(FieldPriority, priorityMessage)
	}
	return &priority, nil
}

func validateAssignee(p Payload) (*string, error) {
	v, ok := p.lookup(FieldAssignedTo)
	if !ok {
		return nil, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return nil, invalid(FieldAssignedTo, "assigned_to must be a string user id")
	}
	return &s, nil
}

func validateDueDate(p Payload) (*time.Time, error) {
	v, ok := p.lookup(FieldDueDate)
	if !ok {
		return nil, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return nil, invalid(FieldDueDate, "due_date must be a valid date")
	}
	if s == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, invalid(FieldDueDate, "due_date must be a valid date")
	}
	return &t, nil
}

// ParseDate parses an RFC 3339 timestamp, a date and time separated by a
// space, or a plain calendar date. Values without a zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func longEnough(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= minTitleLength
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
