// Package analytics derives productivity patterns, energy windows, time
// estimates and task ordering from the history of completed tasks.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoCodeAlone/taskvoice/storage"
	"github.com/GoCodeAlone/taskvoice/task"
)

// TaskAnalytics is an append-only fact recorded when a task is completed.
type TaskAnalytics struct {
	ID            string        `json:"id"`
	TaskID        string        `json:"taskId"`
	ActualMinutes int           `json:"actualMinutes"`
	CompletedAt   time.Time     `json:"completedAt"`
	Priority      task.Priority `json:"priority"`
	Tags          []string      `json:"tags"`
	Project       string        `json:"project,omitempty"`
	HourOfDay     int           `json:"hourOfDay"`
	DayOfWeek     int           `json:"dayOfWeek"`
}

// Engine records completions and recomputes every derived view from the full
// analytics history on each call.
type Engine struct {
	adapter storage.Adapter
	logger  *zap.Logger
	now     func() time.Time
	loc     *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone hour-of-day and day-of-week are computed in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// NewEngine creates an Engine persisting records through a.
func NewEngine(a storage.Adapter, opts ...Option) *Engine {
	e := &Engine{
		adapter: a,
		logger:  zap.NewNop(),
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Records returns every recorded completion in recording order.
func (e *Engine) Records(ctx context.Context) ([]TaskAnalytics, error) {
	records, err := storage.LoadAll[TaskAnalytics](ctx, e.adapter, storage.CollectionAnalytics)
	if err != nil {
		e.logger.Error("load analytics", zap.Error(err))
		return nil, err
	}
	return records, nil
}

// TrackCompletion appends one record for t. It is a no-op unless t is
// completed and has both StartedAt and CompletedAt set.
func (e *Engine) TrackCompletion(ctx context.Context, t *task.Task) error {
	if t == nil || t.Status != task.StatusCompleted || t.StartedAt == nil || t.CompletedAt == nil {
		return nil
	}
	records, err := e.Records(ctx)
	if err != nil {
		return err
	}
	completed := t.CompletedAt.In(e.loc)
	rec := TaskAnalytics{
		ID:            uuid.New().String(),
		TaskID:        t.ID,
		ActualMinutes: int(t.CompletedAt.Sub(*t.StartedAt).Round(time.Minute) / time.Minute),
		CompletedAt:   *t.CompletedAt,
		Priority:      t.Priority,
		Tags:          append([]string{}, t.Tags...),
		Project:       t.Project,
		HourOfDay:     completed.Hour(),
		DayOfWeek:     int(completed.Weekday()),
	}
	records = append(records, rec)
	if err := storage.SaveAll(ctx, e.adapter, storage.CollectionAnalytics, records); err != nil {
		e.logger.Error("save analytics", zap.String("task", t.ID), zap.Error(err))
		return err
	}
	e.logger.Debug("completion tracked",
		zap.String("task", t.ID),
		zap.Int("minutes", rec.ActualMinutes),
		zap.Int("hour", rec.HourOfDay))
	return nil
}

// ProductivityPatterns aggregates the history into 24 hourly buckets.
func (e *Engine) ProductivityPatterns(ctx context.Context) ([]ProductivityPattern, error) {
	records, err := e.Records(ctx)
	if err != nil {
		return nil, err
	}
	return Patterns(records), nil
}

// EnergyWindows classifies the hourly patterns into energy windows.
func (e *Engine) EnergyWindows(ctx context.Context) ([]EnergyWindow, error) {
	records, err := e.Records(ctx)
	if err != nil {
		return nil, err
	}
	return Windows(Patterns(records)), nil
}

// EstimateTaskTime estimates how long t will take from similar completions.
func (e *Engine) EstimateTaskTime(ctx context.Context, t task.Task) (TaskEstimation, error) {
	records, err := e.Records(ctx)
	if err != nil {
		return TaskEstimation{}, err
	}
	return Estimate(records, t), nil
}

// CalculateTaskOrder scores pending tasks for the current hour and returns
// them best first.
func (e *Engine) CalculateTaskOrder(ctx context.Context, tasks []task.Task) ([]Recommendation, error) {
	records, err := e.Records(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now().In(e.loc)
	level := LevelAt(Windows(Patterns(records)), now.Hour())
	return Order(tasks, records, level, now), nil
}

// Summary reports totals over the whole history.
func (e *Engine) Summary(ctx context.Context) (Summary, error) {
	records, err := e.Records(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records), nil
}
