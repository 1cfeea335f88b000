package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidTask = errors.New("invalid task")

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// DueDateLayout is the calendar-date format used for Task.DueDate.
const DueDateLayout = "2006-01-02"

type Task struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	DueDate          string    `json:"dueDate,omitempty"`
	Priority         Priority  `json:"priority"`
	Status           Status    `json:"status"`
	CalendarEventURL string    `json:"calendarEventUrl,omitempty"`
	DriveFileURL     string    `json:"driveFileUrl,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewTask holds the caller-supplied fields of a task about to be created.
// The store assigns ID, owner, timestamps and the initial todo status.
type NewTask struct {
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	DueDate          string   `json:"dueDate,omitempty"`
	Priority         Priority `json:"priority,omitempty"`
	CalendarEventURL string   `json:"calendarEventUrl,omitempty"`
	DriveFileURL     string   `json:"driveFileUrl,omitempty"`
}

// Normalize trims the title and fills in the default priority.
func (n *NewTask) Normalize() {
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
}

func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if n.Priority != "" && !n.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, n.Priority)
	}
	return validateDueDate(n.DueDate)
}

// TaskPatch is a partial update.
// nil pointer => no change; empty string on an optional field => clear it.
type TaskPatch struct {
	Title            *string   `json:"title,omitempty"`
	Description      *string   `json:"description,omitempty"`
	DueDate          *string   `json:"dueDate,omitempty"`
	Priority         *Priority `json:"priority,omitempty"`
	Status           *Status   `json:"status,omitempty"`
	CalendarEventURL *string   `json:"calendarEventUrl,omitempty"`
	DriveFileURL     *string   `json:"driveFileUrl,omitempty"`
}

func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidTask)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, *p.Status)
	}
	if p.DueDate != nil {
		return validateDueDate(*p.DueDate)
	}
	return nil
}

// Apply copies the set fields of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.CalendarEventURL != nil {
		t.CalendarEventURL = *p.CalendarEventURL
	}
	if p.DriveFileURL != nil {
		t.DriveFileURL = *p.DriveFileURL
	}
}

func validateDueDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DueDateLayout, s); err != nil {
		return fmt.Errorf("%w: due date %q must be YYYY-MM-DD", ErrInvalidTask, s)
	}
	return nil
}

// TaskFilter narrows List results. Zero value lists everything in creation order.
type TaskFilter struct {
	Status Status
	SortBy string
	Desc   bool
}
