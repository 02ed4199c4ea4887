package assistant

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GoCodeAlone/taskvoice/analytics"
	"github.com/GoCodeAlone/taskvoice/notify"
	"github.com/GoCodeAlone/taskvoice/task"
)

// Recommend ranks the pending tasks for the current hour.
func (a *Assistant) Recommend(ctx context.Context) ([]analytics.Recommendation, error) {
	pending := task.StatusPending
	tasks, err := a.tasks.List(ctx, task.Filter{Status: &pending})
	if err != nil {
		return nil, err
	}
	return a.analytics.CalculateTaskOrder(ctx, tasks)
}

// RemindDue sends a reminder for every open task due within the given
// duration, overdue ones included, and returns those tasks earliest first.
func (a *Assistant) RemindDue(ctx context.Context, within time.Duration) ([]task.Task, error) {
	tasks, err := a.tasks.List(ctx, task.Filter{})
	if err != nil {
		return nil, err
	}
	now := a.now()
	horizon := now.Add(within)

	var due []task.Task
	for _, t := range tasks {
		if !open(t.Status) || t.DueDate == nil || t.DueDate.After(horizon) {
			continue
		}
		due = append(due, t)
	}
	slices.SortStableFunc(due, func(x, y task.Task) int {
		return x.DueDate.Compare(*y.DueDate)
	})

	for _, t := range due {
		if t.DueDate.Before(now) {
			a.notifier.Notify("Overdue", fmt.Sprintf("%q was due %s.", t.Title, t.DueDate.Format("Mon Jan 2 15:04")), notify.KindReminder)
			continue
		}
		a.notifier.Notify("Due soon", fmt.Sprintf("%q is due %s.", t.Title, t.DueDate.Format("Mon Jan 2 15:04")), notify.KindReminder)
	}
	a.logger.Debug("reminders sent", zap.Int("count", len(due)), zap.Duration("within", within))
	return due, nil
}

// StatusReport summarizes open work and the completion history in a few
// spoken sentences.
func (a *Assistant) StatusReport(ctx context.Context) (string, error) {
	tasks, err := a.tasks.List(ctx, task.Filter{})
	if err != nil {
		return "", err
	}
	sum, err := a.analytics.Summary(ctx)
	if err != nil {
		return "", err
	}

	now := a.now()
	var pending, inProgress, overdue int
	for _, t := range tasks {
		switch t.Status {
		case task.StatusPending:
			pending++
		case task.StatusInProgress:
			inProgress++
		default:
			continue
		}
		if t.DueDate != nil && t.DueDate.Before(now) {
			overdue++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %s pending and %d in progress.", plural(pending, "task"), inProgress)
	switch overdue {
	case 0:
	case 1:
		b.WriteString(" 1 is overdue.")
	default:
		fmt.Fprintf(&b, " %d are overdue.", overdue)
	}
	if sum.TotalCompleted > 0 {
		fmt.Fprintf(&b, " You've completed %s with %d min tracked.", plural(sum.TotalCompleted, "task"), sum.TotalMinutes)
	}
	if sum.MostProductiveHour >= 0 {
		fmt.Fprintf(&b, " You're most productive around %d:00.", sum.MostProductiveHour)
	}
	if top := sum.TopProject(); top != "" {
		fmt.Fprintf(&b, " Most of that was for %s.", top)
	}
	return b.String(), nil
}

func open(s task.Status) bool {
	return s == task.StatusPending || s == task.StatusInProgress
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
