package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoCodeAlone/taskvoice/storage"
)

// Store is the mutable task collection. Every mutation loads the full
// collection through the adapter, applies the change and saves it back, so a
// single Store should own a given adapter per process.
type Store struct {
	adapter  storage.Adapter
	recorder CompletionRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder sets the analytics sink notified on completion.
func WithRecorder(r CompletionRecorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store persisting through a.
func NewStore(a storage.Adapter, opts ...Option) *Store {
	s := &Store{
		adapter: a,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) load(ctx context.Context) ([]Task, error) {
	tasks, err := storage.LoadAll[Task](ctx, s.adapter, storage.CollectionTasks)
	if err != nil {
		s.logger.Error("load tasks", zap.Error(err))
		return nil, err
	}
	return tasks, nil
}

func (s *Store) save(ctx context.Context, tasks []Task) error {
	if err := storage.SaveAll(ctx, s.adapter, storage.CollectionTasks, tasks); err != nil {
		s.logger.Error("save tasks", zap.Int("count", len(tasks)), zap.Error(err))
		return err
	}
	return nil
}

func indexOf(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Create assigns an ID and timestamps to t and persists it. Priority and
// status default to medium and pending.
func (s *Store) Create(ctx context.Context, t Task) (*Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return nil, fmt.Errorf("create task: empty title: %w", ErrValidation)
	}
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t.ID = uuid.New().String()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.TimeEntries = []TimeEntry{}
	t.TotalTimeSpent = 0
	t.IsActiveTimer = false
	t.CurrentSessionStart = nil
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Status == StatusInProgress {
		t.StartedAt = timePtr(now)
	}
	if t.Status == StatusCompleted && t.CompletedAt == nil {
		t.CompletedAt = timePtr(now)
	}

	tasks = append(tasks, t)
	if err := s.save(ctx, tasks); err != nil {
		return nil, err
	}
	if t.Project != "" {
		if _, err := s.AddProject(ctx, t.Project, ""); err != nil {
			s.logger.Warn("learn project", zap.String("project", t.Project), zap.Error(err))
		}
	}
	s.logger.Debug("task created", zap.String("id", t.ID), zap.String("title", t.Title))
	return &t, nil
}

// Get retrieves a task by ID.
func (s *Store) Get(ctx context.Context, id string) (*Task, error) {
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return &tasks[i], nil
}

// List returns tasks matching filter in creation order.
func (s *Store) List(ctx context.Context, filter Filter) ([]Task, error) {
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Task, 0, len(tasks))
	for i := range tasks {
		if filter.match(&tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out, nil
}

// ActiveTimers returns tasks whose timer is currently running.
func (s *Store) ActiveTimers(ctx context.Context) ([]Task, error) {
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Task
	for _, t := range tasks {
		if t.IsActiveTimer {
			out = append(out, t)
		}
	}
	return out, nil
}

func validatePatch(p Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("update task: empty title: %w", ErrValidation)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("update task: unknown priority %q: %w", *p.Priority, ErrValidation)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("update task: unknown status %q: %w", *p.Status, ErrValidation)
	}
	return nil
}

// apply merges p into t and reports whether t just became completed.
func apply(t *Task, p Patch, now time.Time) (completed bool) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		t.DueDate = timePtr(*p.DueDate)
	}
	if p.Project != nil {
		t.Project = *p.Project
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.EstimatedMinutes != nil {
		t.EstimatedMinutes = p.EstimatedMinutes
	}
	if p.Status != nil && *p.Status != t.Status {
		prev := t.Status
		t.Status = *p.Status
		switch t.Status {
		case StatusInProgress:
			if t.StartedAt == nil {
				t.StartedAt = timePtr(now)
			}
		case StatusCompleted:
			t.CompletedAt = timePtr(now)
			if t.StartedAt != nil {
				actual := minutesBetween(*t.StartedAt, now)
				t.ActualMinutes = &actual
			}
			completed = true
		}
		if prev == StatusCompleted && t.Status != StatusCompleted {
			t.CompletedAt = nil
		}
	}
	t.UpdatedAt = now
	return completed
}

// Update merges p into the task with the given id. An unknown id is a silent
// no-op and returns (nil, nil).
func (s *Store) Update(ctx context.Context, id string, p Patch) (*Task, error) {
	if err := validatePatch(p); err != nil {
		return nil, err
	}
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		s.logger.Debug("update of unknown task ignored", zap.String("id", id))
		return nil, nil
	}
	completed := apply(&tasks[i], p, s.now())
	if err := s.save(ctx, tasks); err != nil {
		return nil, err
	}
	updated := tasks[i]
	if completed {
		s.trackCompletion(ctx, &updated)
	}
	return &updated, nil
}

// BulkUpdate applies p to every known id and persists the result in a single
// write. Unknown ids are skipped.
func (s *Store) BulkUpdate(ctx context.Context, ids []string, p Patch) ([]Task, error) {
	if err := validatePatch(p); err != nil {
		return nil, err
	}
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var updated []Task
	var completed []int
	for _, id := range ids {
		i := indexOf(tasks, id)
		if i < 0 {
			continue
		}
		if apply(&tasks[i], p, now) {
			completed = append(completed, len(updated))
		}
		updated = append(updated, tasks[i])
	}
	if len(updated) == 0 {
		return nil, nil
	}
	if err := s.save(ctx, tasks); err != nil {
		return nil, err
	}
	for _, j := range completed {
		s.trackCompletion(ctx, &updated[j])
	}
	return updated, nil
}

func (s *Store) trackCompletion(ctx context.Context, t *Task) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.TrackCompletion(ctx, t); err != nil {
		s.logger.Warn("record completion", zap.String("id", t.ID), zap.Error(err))
	}
}

// Delete removes the task with the given id. Analytics recorded for it are
// kept. An unknown id is a silent no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.BulkDelete(ctx, []string{id})
	return err
}

// BulkDelete removes every known id in a single write and returns how many
// tasks were removed.
func (s *Store) BulkDelete(ctx context.Context, ids []string) (int, error) {
	tasks, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := tasks[:0]
	for _, t := range tasks {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	removed := len(tasks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// StartTimer opens a work session on the task. Starting an already running
// timer leaves the current session untouched. Other tasks' timers are not
// affected.
func (s *Store) StartTimer(ctx context.Context, id string) (*Task, error) {
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return nil, nil
	}
	t := &tasks[i]
	if t.IsActiveTimer {
		return t, nil
	}
	now := s.now()
	t.IsActiveTimer = true
	t.CurrentSessionStart = timePtr(now)
	t.UpdatedAt = now
	if err := s.save(ctx, tasks); err != nil {
		return nil, err
	}
	return t, nil
}

// StopTimer closes the running session into a TimeEntry and recomputes
// TotalTimeSpent. Stopping a task without a running timer is a no-op.
func (s *Store) StopTimer(ctx context.Context, id string) (*Task, error) {
	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return nil, nil
	}
	t := &tasks[i]
	if !t.IsActiveTimer || t.CurrentSessionStart == nil {
		return t, nil
	}
	now := s.now()
	start := *t.CurrentSessionStart
	if now.Before(start) {
		now = start
	}
	t.TimeEntries = append(t.TimeEntries, TimeEntry{
		ID:        uuid.New().String(),
		StartTime: start,
		EndTime:   now,
		Duration:  minutesBetween(start, now),
	})
	total := 0
	for _, e := range t.TimeEntries {
		total += e.Duration
	}
	t.TotalTimeSpent = total
	t.IsActiveTimer = false
	t.CurrentSessionStart = nil
	t.UpdatedAt = now
	if err := s.save(ctx, tasks); err != nil {
		return nil, err
	}
	return t, nil
}
