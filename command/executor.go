package command

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GoCodeAlone/taskvoice/internal/when"
	"github.com/GoCodeAlone/taskvoice/notify"
	"github.com/GoCodeAlone/taskvoice/task"
)

// ErrNoMatch is returned when a command names no recognizable task, or when
// the text is not a command at all.
var ErrNoMatch = errors.New("no matching task")

// Notifier is the voice and notification output used for celebrations.
type Notifier interface {
	Speak(text string)
	Notify(title, body string, kind notify.Kind)
}

// Outcome is the result of executing a command.
type Outcome struct {
	Command Command
	Message string
	Tasks   []task.Task
}

// Executor applies parsed commands to a task store.
type Executor struct {
	store    *task.Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	rng      *rand.Rand
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithNotifier sets where completion celebrations are sent.
func WithNotifier(n Notifier) ExecutorOption {
	return func(e *Executor) { e.notifier = n }
}

// WithLogger sets the executor's logger.
func WithLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// WithExecutorClock overrides time.Now for agenda scoping.
func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// WithRand sets the source used to pick celebration phrases.
func WithRand(r *rand.Rand) ExecutorOption {
	return func(e *Executor) { e.rng = r }
}

// NewExecutor creates an Executor over store.
func NewExecutor(store *task.Store, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var celebrations = []string{
	"Nice work! %q is done.",
	"Great job finishing %q.",
	"%q is off your list. Well done!",
	"Done and dusted: %q.",
}

// Execute applies cmd.
func (e *Executor) Execute(ctx context.Context, cmd Command) (*Outcome, error) {
	out := &Outcome{Command: cmd}
	p := cmd.Parameters
	e.logger.Debug("execute command",
		zap.String("type", string(cmd.Type)),
		zap.String("action", cmd.Action),
		zap.Float64("confidence", cmd.Confidence))

	switch cmd.Type {
	case TypeQuickTask:
		created, err := e.store.Create(ctx, task.Task{Title: p.Title})
		if err != nil {
			return nil, err
		}
		out.Tasks = []task.Task{*created}
		out.Message = fmt.Sprintf("Added %q to your tasks.", created.Title)

	case TypeMarkComplete:
		return e.complete(ctx, out, p.TaskIdentifier)

	case TypeChangePriority:
		if p.Priority == "" {
			return nil, fmt.Errorf("change priority: %w", task.ErrValidation)
		}
		return e.edit(ctx, out, p.TaskIdentifier, task.Patch{Priority: &p.Priority},
			"Set %q to %s priority.", p.Priority)

	case TypeSearchTasks:
		all, err := e.store.List(ctx, task.Filter{})
		if err != nil {
			return nil, err
		}
		for _, m := range FindTasksByIdentifier(all, p.Query) {
			out.Tasks = append(out.Tasks, m.Task)
		}
		out.Message = fmt.Sprintf("Found %d %s matching %q.", len(out.Tasks), plural(len(out.Tasks), "task"), p.Query)

	case TypeStartTimer:
		if cmd.Action == "stop" {
			return e.stopTimer(ctx, out, p.TaskIdentifier)
		}
		t, err := e.resolve(ctx, p.TaskIdentifier, true)
		if err != nil {
			return nil, err
		}
		started, err := e.store.StartTimer(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out.Tasks = []task.Task{*started}
		out.Message = fmt.Sprintf("Timer started for %q.", started.Title)

	case TypeShowAgenda:
		return e.agenda(ctx, out, p.Scope)

	case TypeEditTitle:
		if p.NewValue == "" {
			return nil, fmt.Errorf("edit title: %w", task.ErrValidation)
		}
		return e.edit(ctx, out, p.TaskIdentifier, task.Patch{Title: &p.NewValue},
			"Renamed %q to %q.", p.NewValue)

	case TypeEditDescription:
		if p.NewValue == "" {
			return nil, fmt.Errorf("edit description: %w", task.ErrValidation)
		}
		return e.edit(ctx, out, p.TaskIdentifier, task.Patch{Description: &p.NewValue},
			"Updated the description of %q.")

	case TypeEditProject:
		if p.NewValue == "" {
			return nil, fmt.Errorf("edit project: %w", task.ErrValidation)
		}
		if _, err := e.store.AddProject(ctx, p.NewValue, ""); err != nil {
			return nil, err
		}
		return e.edit(ctx, out, p.TaskIdentifier, task.Patch{Project: &p.NewValue},
			"Moved %q to %s.", p.NewValue)

	case TypeEditTags:
		if len(p.Tags) == 0 {
			return nil, fmt.Errorf("edit tags: %w", task.ErrValidation)
		}
		t, err := e.resolve(ctx, p.TaskIdentifier, false)
		if err != nil {
			return nil, err
		}
		tags := append([]string{}, t.Tags...)
		for _, tag := range p.Tags {
			if !t.HasTag(tag) {
				tags = append(tags, tag)
			}
		}
		return e.apply(ctx, out, t, task.Patch{Tags: &tags},
			fmt.Sprintf("Tagged %q with %s.", t.Title, strings.Join(p.Tags, ", ")))

	case TypeEditDueDate:
		if p.DueDate == nil {
			return nil, fmt.Errorf("edit due date %q: %w", p.NewValue, task.ErrValidation)
		}
		return e.edit(ctx, out, p.TaskIdentifier, task.Patch{DueDate: p.DueDate},
			"%q is now due %s.", p.DueDate.Format("Mon Jan 2"))

	case TypeEditStatus:
		if p.Status == "" {
			return nil, fmt.Errorf("edit status %q: %w", p.NewValue, task.ErrValidation)
		}
		if p.Status == task.StatusCompleted {
			return e.complete(ctx, out, p.TaskIdentifier)
		}
		return e.edit(ctx, out, p.TaskIdentifier, task.Patch{Status: &p.Status},
			"%q is now %s.", p.Status)

	default:
		return nil, fmt.Errorf("not a command: %q: %w", cmd.OriginalText, ErrNoMatch)
	}
	return out, nil
}

// resolve returns the best match for identifier. With preferOpen, completed
// and cancelled tasks are only used when no open task matches.
func (e *Executor) resolve(ctx context.Context, identifier string, preferOpen bool) (*task.Task, error) {
	all, err := e.store.List(ctx, task.Filter{})
	if err != nil {
		return nil, err
	}
	matches := FindTasksByIdentifier(all, identifier)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%q: %w", identifier, ErrNoMatch)
	}
	if preferOpen {
		for _, m := range matches {
			if isOpen(m.Task.Status) {
				return &m.Task, nil
			}
		}
	}
	return &matches[0].Task, nil
}

// edit resolves identifier and applies patch. format receives the task title
// first, then args.
func (e *Executor) edit(ctx context.Context, out *Outcome, identifier string, patch task.Patch, format string, args ...any) (*Outcome, error) {
	t, err := e.resolve(ctx, identifier, false)
	if err != nil {
		return nil, err
	}
	return e.apply(ctx, out, t, patch, fmt.Sprintf(format, append([]any{t.Title}, args...)...))
}

func (e *Executor) apply(ctx context.Context, out *Outcome, t *task.Task, patch task.Patch, msg string) (*Outcome, error) {
	updated, err := e.store.Update(ctx, t.ID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("task %s vanished: %w", t.ID, ErrNoMatch)
	}
	out.Tasks = []task.Task{*updated}
	out.Message = msg
	return out, nil
}

func (e *Executor) complete(ctx context.Context, out *Outcome, identifier string) (*Outcome, error) {
	t, err := e.resolve(ctx, identifier, true)
	if err != nil {
		return nil, err
	}
	if t.Status == task.StatusCompleted {
		out.Tasks = []task.Task{*t}
		out.Message = fmt.Sprintf("%q is already done.", t.Title)
		return out, nil
	}
	if t.IsActiveTimer {
		if _, err := e.store.StopTimer(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	done := task.StatusCompleted
	if _, err := e.apply(ctx, out, t, task.Patch{Status: &done}, ""); err != nil {
		return nil, err
	}
	out.Message = fmt.Sprintf(celebrations[e.rng.IntN(len(celebrations))], t.Title)
	if e.notifier != nil {
		e.notifier.Speak(out.Message)
		e.notifier.Notify("Task completed", t.Title, notify.KindSuccess)
	}
	return out, nil
}

func (e *Executor) stopTimer(ctx context.Context, out *Outcome, identifier string) (*Outcome, error) {
	var targets []task.Task
	if identifier == "" {
		active, err := e.store.ActiveTimers(ctx)
		if err != nil {
			return nil, err
		}
		targets = active
	} else {
		t, err := e.resolve(ctx, identifier, true)
		if err != nil {
			return nil, err
		}
		targets = []task.Task{*t}
	}
	if len(targets) == 0 {
		out.Message = "No timer is running."
		return out, nil
	}

	var parts []string
	for _, t := range targets {
		stopped, err := e.store.StopTimer(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out.Tasks = append(out.Tasks, *stopped)
		if n := len(stopped.TimeEntries); n > 0 && t.IsActiveTimer {
			parts = append(parts, fmt.Sprintf("%q after %d min (%d min total)",
				stopped.Title, stopped.TimeEntries[n-1].Duration, stopped.TotalTimeSpent))
		}
	}
	if len(parts) == 0 {
		out.Message = "No timer is running."
		return out, nil
	}
	out.Message = "Stopped " + strings.Join(parts, ", ") + "."
	return out, nil
}

func (e *Executor) agenda(ctx context.Context, out *Outcome, scope string) (*Outcome, error) {
	all, err := e.store.List(ctx, task.Filter{})
	if err != nil {
		return nil, err
	}
	now := e.now()
	var cutoff *time.Time
	if scope != "" {
		if t, ok := when.Resolve(scope, now); ok {
			end := endOfDay(t)
			cutoff = &end
		}
	}

	for _, t := range all {
		if !isOpen(t.Status) {
			continue
		}
		if cutoff != nil && (t.DueDate == nil || t.DueDate.After(*cutoff)) {
			continue
		}
		out.Tasks = append(out.Tasks, t)
	}
	sort.SliceStable(out.Tasks, func(i, j int) bool {
		a, b := out.Tasks[i], out.Tasks[j]
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.Priority.Weight() > b.Priority.Weight()
	})

	if len(out.Tasks) == 0 {
		out.Message = "Your agenda is clear."
		return out, nil
	}
	titles := make([]string, 0, 3)
	for i, t := range out.Tasks {
		if i == 3 {
			break
		}
		titles = append(titles, t.Title)
	}
	out.Message = fmt.Sprintf("You have %d open %s. First up: %s.",
		len(out.Tasks), plural(len(out.Tasks), "task"), strings.Join(titles, ", "))
	return out, nil
}

func isOpen(s task.Status) bool {
	return s == task.StatusPending || s == task.StatusInProgress
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
