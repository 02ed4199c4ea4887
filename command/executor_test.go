package command

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/taskvoice/notify"
	"github.com/GoCodeAlone/taskvoice/storage"
	"github.com/GoCodeAlone/taskvoice/task"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type notification struct {
	title, body string
	kind        notify.Kind
}

type fakeNotifier struct {
	spoken   []string
	notified []notification
}

func (f *fakeNotifier) Speak(text string) { f.spoken = append(f.spoken, text) }

func (f *fakeNotifier) Notify(title, body string, kind notify.Kind) {
	f.notified = append(f.notified, notification{title, body, kind})
}

type harness struct {
	store    *task.Store
	exec     *Executor
	parser   *Parser
	clock    *testClock
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := &testClock{t: now}
	n := &fakeNotifier{}
	store := task.NewStore(storage.NewMemoryAdapter(), task.WithClock(clk.Now))
	return &harness{
		store:  store,
		parser: NewParser(WithClock(clk.Now)),
		exec: NewExecutor(store,
			WithNotifier(n),
			WithExecutorClock(clk.Now),
			WithRand(rand.New(rand.NewPCG(1, 2)))),
		clock:    clk,
		notifier: n,
	}
}

func (h *harness) add(t *testing.T, tk task.Task) *task.Task {
	t.Helper()
	created, err := h.store.Create(context.Background(), tk)
	require.NoError(t, err)
	return created
}

func (h *harness) run(t *testing.T, text string) (*Outcome, error) {
	t.Helper()
	return h.exec.Execute(context.Background(), h.parser.Parse(text))
}

func (h *harness) get(t *testing.T, id string) *task.Task {
	t.Helper()
	got, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return got
}

func TestFindTasksByIdentifier(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Title: "Buy groceries"},
		{ID: "2", Title: "Review the project proposal"},
		{ID: "3", Title: "Call mom", Description: "ask about the proposal"},
		{ID: "4", Title: "Pay bills", Tags: []string{"finance"}},
		{ID: "5", Title: "Ship it", Project: "Launch"},
		{ID: "6", Title: "Quarterly report"},
	}

	got := FindTasksByIdentifier(tasks, "proposal")
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].Task.ID)
	assert.GreaterOrEqual(t, got[0].Score, 0.8)
	assert.Equal(t, "3", got[1].Task.ID)
	assert.InDelta(t, 0.4, got[1].Score, 1e-9)

	// a lone tag hit scores exactly 0.3, which is not enough
	assert.Empty(t, FindTasksByIdentifier(tasks, "finance"))

	got = FindTasksByIdentifier(tasks, "launch")
	require.Len(t, got, 1)
	assert.InDelta(t, 0.6, got[0].Score, 1e-9)

	got = FindTasksByIdentifier(tasks, "Quarterly summary")
	require.Len(t, got, 1)
	assert.Equal(t, "6", got[0].Task.ID)
	assert.InDelta(t, 0.4, got[0].Score, 1e-9)

	assert.Nil(t, FindTasksByIdentifier(tasks, "  "))
}

func TestExecute_QuickTask(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "add task: buy milk")
	require.NoError(t, err)
	assert.Equal(t, `Added "Buy milk" to your tasks.`, out.Message)

	all, err := h.store.List(context.Background(), task.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Buy milk", all[0].Title)
	assert.Equal(t, task.StatusPending, all[0].Status)
}

func TestExecute_MarkCompleteCelebrates(t *testing.T) {
	h := newHarness(t)
	h.add(t, task.Task{Title: "Buy groceries"})
	review := h.add(t, task.Task{Title: "Review the project proposal"})

	out, err := h.run(t, "mark complete: proposal")
	require.NoError(t, err)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, review.ID, out.Tasks[0].ID)
	assert.Equal(t, task.StatusCompleted, out.Tasks[0].Status)
	assert.Contains(t, out.Message, `"Review the project proposal"`)

	assert.Equal(t, []string{out.Message}, h.notifier.spoken)
	assert.Equal(t, []notification{{"Task completed", "Review the project proposal", notify.KindSuccess}}, h.notifier.notified)

	out, err = h.run(t, "mark complete: proposal")
	require.NoError(t, err)
	assert.Equal(t, `"Review the project proposal" is already done.`, out.Message)
	assert.Len(t, h.notifier.spoken, 1)
}

func TestExecute_CompletePrefersOpenTask(t *testing.T) {
	h := newHarness(t)
	h.add(t, task.Task{Title: "Email Bob", Status: task.StatusCompleted})
	alice := h.add(t, task.Task{Title: "Email Alice"})

	out, err := h.run(t, "mark complete: email")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, out.Tasks[0].ID)
	assert.Equal(t, task.StatusCompleted, h.get(t, alice.ID).Status)
}

func TestExecute_CompleteStopsRunningTimer(t *testing.T) {
	h := newHarness(t)
	report := h.add(t, task.Task{Title: "Write the report"})

	out, err := h.run(t, "start timer for the report")
	require.NoError(t, err)
	assert.Equal(t, `Timer started for "Write the report".`, out.Message)
	assert.True(t, h.get(t, report.ID).IsActiveTimer)

	h.clock.Advance(30 * time.Minute)
	_, err = h.run(t, "I finished the report")
	require.NoError(t, err)

	got := h.get(t, report.ID)
	assert.Equal(t, task.StatusCompleted, got.Status)
	assert.False(t, got.IsActiveTimer)
	assert.Equal(t, 30, got.TotalTimeSpent)
	assert.Len(t, got.TimeEntries, 1)
}

func TestExecute_StopTimer(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "stop the timer")
	require.NoError(t, err)
	assert.Equal(t, "No timer is running.", out.Message)

	h.add(t, task.Task{Title: "Write the report"})
	_, err = h.run(t, "start timer for report")
	require.NoError(t, err)
	h.clock.Advance(25 * time.Minute)

	out, err = h.run(t, "stop the timer")
	require.NoError(t, err)
	assert.Equal(t, `Stopped "Write the report" after 25 min (25 min total).`, out.Message)

	active, err := h.store.ActiveTimers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestExecute_Edits(t *testing.T) {
	h := newHarness(t)
	report := h.add(t, task.Task{Title: "Draft report"})
	ctx := context.Background()

	out, err := h.run(t, "rename the report task to quarterly summary")
	require.NoError(t, err)
	assert.Equal(t, `Renamed "Draft report" to "Quarterly summary".`, out.Message)
	assert.Equal(t, "Quarterly summary", h.get(t, report.ID).Title)

	out, err = h.run(t, "set priority of the summary to urgent")
	require.NoError(t, err)
	assert.Equal(t, `Set "Quarterly summary" to urgent priority.`, out.Message)
	assert.Equal(t, task.PriorityUrgent, h.get(t, report.ID).Priority)

	_, err = h.run(t, "change the description of summary to include charts")
	require.NoError(t, err)
	assert.Equal(t, "Include charts", h.get(t, report.ID).Description)

	out, err = h.run(t, "move the summary to the website redesign project")
	require.NoError(t, err)
	assert.Equal(t, `Moved "Quarterly summary" to Website Redesign.`, out.Message)
	assert.Equal(t, "Website Redesign", h.get(t, report.ID).Project)
	names, err := h.store.ProjectNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "Website Redesign")

	_, err = h.run(t, "tag the summary with finance and q4")
	require.NoError(t, err)
	_, err = h.run(t, "add tag finance to summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance", "q4"}, h.get(t, report.ID).Tags)

	_, err = h.run(t, "the summary is due tomorrow")
	require.NoError(t, err)
	due := h.get(t, report.ID).DueDate
	require.NotNil(t, due)
	assert.True(t, due.Equal(now.AddDate(0, 0, 1)))

	_, err = h.run(t, "mark the summary as in progress")
	require.NoError(t, err)
	got := h.get(t, report.ID)
	assert.Equal(t, task.StatusInProgress, got.Status)
	assert.NotNil(t, got.StartedAt)

	out, err = h.run(t, "cancel the summary")
	require.NoError(t, err)
	assert.Equal(t, `"Quarterly summary" is now cancelled.`, out.Message)
	assert.Equal(t, task.StatusCancelled, h.get(t, report.ID).Status)
}

func TestExecute_Errors(t *testing.T) {
	h := newHarness(t)
	h.add(t, task.Task{Title: "Pay taxes"})

	_, err := h.run(t, "mark complete: spaceship")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = h.run(t, "hey there")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = h.run(t, "postpone taxes until someday maybe")
	assert.ErrorIs(t, err, task.ErrValidation)

	_, err = h.exec.Execute(context.Background(), Command{Type: TypeEditTitle, Parameters: Parameters{TaskIdentifier: "taxes"}})
	assert.ErrorIs(t, err, task.ErrValidation)
}

func TestExecute_Search(t *testing.T) {
	h := newHarness(t)
	h.add(t, task.Task{Title: "Write the report"})
	h.add(t, task.Task{Title: "Buy milk"})

	out, err := h.run(t, "search for report")
	require.NoError(t, err)
	assert.Equal(t, `Found 1 task matching "report".`, out.Message)
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, "Write the report", out.Tasks[0].Title)
}

func TestExecute_Agenda(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "show my agenda")
	require.NoError(t, err)
	assert.Equal(t, "Your agenda is clear.", out.Message)

	tomorrow := now.AddDate(0, 0, 1)
	later := now.Add(2 * time.Hour)
	h.add(t, task.Task{Title: "Pay rent", DueDate: &tomorrow})
	h.add(t, task.Task{Title: "Call mom", Priority: task.PriorityHigh})
	h.add(t, task.Task{Title: "File taxes", DueDate: &later})
	h.add(t, task.Task{Title: "Old chore", Status: task.StatusCompleted})

	out, err = h.run(t, "show my agenda")
	require.NoError(t, err)
	assert.Equal(t, "You have 3 open tasks. First up: File taxes, Pay rent, Call mom.", out.Message)

	out, err = h.run(t, "what's on my agenda today?")
	require.NoError(t, err)
	assert.Equal(t, "You have 1 open task. First up: File taxes.", out.Message)
	require.Len(t, out.Tasks, 1)
	assert.True(t, strings.HasPrefix(out.Tasks[0].Title, "File"))
}
