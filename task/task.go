// Package task defines the task model and the persisted task store with
// multi-session time tracking.
package task

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus maps spoken or typed status text to a Status.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "todo", "to do", "open":
		return StatusPending, true
	case "in-progress", "in progress", "in_progress", "started", "doing":
		return StatusInProgress, true
	case "completed", "complete", "done", "finished":
		return StatusCompleted, true
	case "cancelled", "canceled", "cancel":
		return StatusCancelled, true
	}
	return "", false
}

// Priority determines task scheduling order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Weight ranks priorities from 1 (low) to 4 (urgent). Unknown values weigh as medium.
func (p Priority) Weight() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 2
	}
}

// ParsePriority maps text such as "high" or "urgent priority" to a Priority.
func ParsePriority(s string) (Priority, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, "priority"))
	switch s {
	case "low":
		return PriorityLow, true
	case "medium", "normal":
		return PriorityMedium, true
	case "high", "important":
		return PriorityHigh, true
	case "urgent", "critical", "asap":
		return PriorityUrgent, true
	}
	return "", false
}

// TimeEntry is a closed work session. Entries are never mutated once created.
type TimeEntry struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  int       `json:"duration"` // minutes
}

// Task is a unit of work.
//
// TotalTimeSpent always equals the sum of TimeEntries durations; a running
// session (CurrentSessionStart) is not counted until the timer is stopped.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Project     string     `json:"project,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	ExtractedFrom    string `json:"extractedFrom,omitempty"` // message id, may dangle
	EstimatedMinutes *int   `json:"estimatedMinutes,omitempty"`
	ActualMinutes    *int   `json:"actualMinutes,omitempty"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	TimeEntries         []TimeEntry `json:"timeEntries"`
	TotalTimeSpent      int         `json:"totalTimeSpent"`
	IsActiveTimer       bool        `json:"isActiveTimer"`
	CurrentSessionStart *time.Time  `json:"currentSessionStart,omitempty"`
}

// SessionMinutes returns committed time plus the running session, if any.
func (t *Task) SessionMinutes(now time.Time) int {
	total := t.TotalTimeSpent
	if t.IsActiveTimer && t.CurrentSessionStart != nil {
		total += minutesBetween(*t.CurrentSessionStart, now)
	}
	return total
}

// HasTag reports whether the task carries tag (case-insensitive).
func (t *Task) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if strings.EqualFold(tg, tag) {
			return true
		}
	}
	return false
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title            *string
	Description      *string
	Priority         *Priority
	Status           *Status
	DueDate          *time.Time
	ClearDueDate     bool
	Project          *string
	Tags             *[]string
	EstimatedMinutes *int
}

// Filter controls which tasks are returned by List.
type Filter struct {
	Status  *Status
	Project string
	Tag     string
}

func (f Filter) match(t *Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Project != "" && !strings.EqualFold(t.Project, f.Project) {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) {
		return false
	}
	return true
}

// CompletionRecorder receives tasks that have just transitioned to completed.
type CompletionRecorder interface {
	TrackCompletion(ctx context.Context, t *Task) error
}

var (
	// ErrValidation is returned when a create or edit would leave a task invalid.
	ErrValidation = errors.New("invalid task")

	// ErrNotFound is returned by Get for unknown ids. Update and Delete treat
	// unknown ids as silent no-ops instead.
	ErrNotFound = errors.New("task not found")
)

// minutesBetween rounds the elapsed time between a and b to whole minutes.
func minutesBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Minutes()))
}

func timePtr(t time.Time) *time.Time { return &t }
