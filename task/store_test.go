package task

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/GoCodeAlone/taskvoice/storage"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func strPtr(s string) *string          { return &s }
func statusPtr(s Status) *Status       { return &s }
func priorityPtr(p Priority) *Priority { return &p }

type recorder struct{ tasks []Task }

func (r *recorder) TrackCompletion(_ context.Context, t *Task) error {
	r.tasks = append(r.tasks, *t)
	return nil
}

func newSQLiteAdapter(t *testing.T) *storage.SQLiteAdapter {
	t.Helper()
	f, err := os.CreateTemp("", "taskvoice-task-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	f.Close()
	path := f.Name()
	t.Cleanup(func() { os.Remove(path) })

	a, err := storage.NewSQLiteAdapter(path)
	if err != nil {
		t.Fatalf("NewSQLiteAdapter: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func newTestStore(t *testing.T) (*Store, *fakeClock, *recorder) {
	t.Helper()
	clock := newClock()
	rec := &recorder{}
	return NewStore(newSQLiteAdapter(t), WithClock(clock.Now), WithRecorder(rec)), clock, rec
}

// ---------------------------------------------------------------------------
// Create / Get / List
// ---------------------------------------------------------------------------

func TestStore_CreateAndGet(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, Task{
		Title:    "  Send the invoice ",
		Priority: PriorityHigh,
		Tags:     []string{"finance", "email"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create returned empty ID")
	}
	if created.Title != "Send the invoice" {
		t.Errorf("Title = %q, want trimmed title", created.Title)
	}
	if created.Status != StatusPending {
		t.Errorf("Status = %q, want pending", created.Status)
	}
	if !created.CreatedAt.Equal(clock.Now()) || !created.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("timestamps = %v / %v, want %v", created.CreatedAt, created.UpdatedAt, clock.Now())
	}
	if created.TotalTimeSpent != 0 || created.IsActiveTimer || len(created.TimeEntries) != 0 {
		t.Errorf("timer fields not reset: %+v", created)
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Priority != PriorityHigh {
		t.Errorf("Priority = %q, want high", got.Priority)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "finance" {
		t.Errorf("Tags = %v, want [finance email]", got.Tags)
	}
}

func TestStore_CreateDefaults(t *testing.T) {
	store, _, _ := newTestStore(t)
	created, err := store.Create(context.Background(), Task{Title: "water plants"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Priority != PriorityMedium {
		t.Errorf("Priority = %q, want medium", created.Priority)
	}
	if created.Tags == nil {
		t.Error("Tags should be an empty slice, not nil")
	}
}

func TestStore_CreateRejectsEmptyTitle(t *testing.T) {
	store, _, _ := newTestStore(t)
	_, err := store.Create(context.Background(), Task{Title: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Create err = %v, want ErrValidation", err)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store, _, _ := newTestStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get err = %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	for _, task := range []Task{
		{Title: "t1", Project: "Website", Tags: []string{"design"}},
		{Title: "t2", Project: "website", Status: StatusCompleted},
		{Title: "t3", Project: "Garden", Tags: []string{"Design"}},
	} {
		if _, err := store.Create(ctx, task); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 || all[0].Title != "t1" || all[2].Title != "t3" {
		t.Errorf("List all = %v, want t1..t3 in creation order", all)
	}

	byProject, _ := store.List(ctx, Filter{Project: "WEBSITE"})
	if len(byProject) != 2 {
		t.Errorf("List project: got %d, want 2", len(byProject))
	}

	pending, _ := store.List(ctx, Filter{Status: statusPtr(StatusPending)})
	if len(pending) != 2 {
		t.Errorf("List pending: got %d, want 2", len(pending))
	}

	tagged, _ := store.List(ctx, Filter{Tag: "design"})
	if len(tagged) != 2 {
		t.Errorf("List tag: got %d, want 2", len(tagged))
	}
}

func TestStore_CreateLearnsProjects(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = store.Create(ctx, Task{Title: "a", Project: "Website"})
	_, _ = store.Create(ctx, Task{Title: "b", Project: "website"})
	_, _ = store.Create(ctx, Task{Title: "c", Project: "Garden"})

	names, err := store.ProjectNames(ctx)
	if err != nil {
		t.Fatalf("ProjectNames: %v", err)
	}
	if len(names) != 2 || names[0] != "Website" || names[1] != "Garden" {
		t.Errorf("ProjectNames = %v, want [Website Garden]", names)
	}
}

// ---------------------------------------------------------------------------
// Update / status transitions
// ---------------------------------------------------------------------------

func TestStore_Update(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "orig"})

	clock.Advance(time.Minute)
	due := clock.Now().Add(48 * time.Hour)
	updated, err := store.Update(ctx, created.ID, Patch{
		Title:    strPtr("updated"),
		Priority: priorityPtr(PriorityUrgent),
		DueDate:  &due,
		Tags:     &[]string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "updated" || updated.Priority != PriorityUrgent {
		t.Errorf("Update result = %+v", updated)
	}
	if !updated.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, clock.Now())
	}

	got, _ := store.Get(ctx, created.ID)
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, due)
	}
	if len(got.Tags) != 2 {
		t.Errorf("Tags = %v", got.Tags)
	}

	cleared, _ := store.Update(ctx, created.ID, Patch{ClearDueDate: true})
	if cleared.DueDate != nil {
		t.Errorf("DueDate after clear = %v, want nil", cleared.DueDate)
	}
}

func TestStore_Update_NotFoundIsNoop(t *testing.T) {
	store, _, _ := newTestStore(t)
	got, err := store.Update(context.Background(), "nonexistent", Patch{Title: strPtr("x")})
	if err != nil {
		t.Fatalf("Update unknown id: %v", err)
	}
	if got != nil {
		t.Fatalf("Update unknown id returned %+v, want nil", got)
	}
}

func TestStore_Update_RejectsEmptyTitle(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "keep me"})

	if _, err := store.Update(ctx, created.ID, Patch{Title: strPtr(" ")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("Update err = %v, want ErrValidation", err)
	}
	got, _ := store.Get(ctx, created.ID)
	if got.Title != "keep me" {
		t.Errorf("Title mutated to %q despite validation failure", got.Title)
	}
}

func TestStore_Update_StartedAtSetOnce(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "write report"})

	clock.Advance(10 * time.Minute)
	first, _ := store.Update(ctx, created.ID, Patch{Status: statusPtr(StatusInProgress)})
	if first.StartedAt == nil || !first.StartedAt.Equal(clock.Now()) {
		t.Fatalf("StartedAt = %v, want %v", first.StartedAt, clock.Now())
	}
	startedAt := *first.StartedAt

	clock.Advance(10 * time.Minute)
	_, _ = store.Update(ctx, created.ID, Patch{Status: statusPtr(StatusPending)})
	clock.Advance(10 * time.Minute)
	again, _ := store.Update(ctx, created.ID, Patch{Status: statusPtr(StatusInProgress)})
	if !again.StartedAt.Equal(startedAt) {
		t.Errorf("StartedAt overwritten: %v, want %v", again.StartedAt, startedAt)
	}
}

func TestStore_Update_CompletionRecordsAnalytics(t *testing.T) {
	store, clock, rec := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "write report"})

	_, _ = store.Update(ctx, created.ID, Patch{Status: statusPtr(StatusInProgress)})
	clock.Advance(90 * time.Minute)
	done, err := store.Update(ctx, created.ID, Patch{Status: statusPtr(StatusCompleted)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(clock.Now()) {
		t.Errorf("CompletedAt = %v, want %v", done.CompletedAt, clock.Now())
	}
	if done.ActualMinutes == nil || *done.ActualMinutes != 90 {
		t.Errorf("ActualMinutes = %v, want 90", done.ActualMinutes)
	}
	if len(rec.tasks) != 1 || rec.tasks[0].ID != created.ID {
		t.Fatalf("recorded completions = %v, want one for %s", rec.tasks, created.ID)
	}

	// Re-saving the same status is not a new completion.
	_, _ = store.Update(ctx, created.ID, Patch{Status: statusPtr(StatusCompleted)})
	if len(rec.tasks) != 1 {
		t.Errorf("recorded completions = %d after no-op status, want 1", len(rec.tasks))
	}
}

func TestStore_Update_ReopenClearsCompletedAt(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "x", Status: StatusCompleted})
	if created.CompletedAt == nil {
		t.Fatal("CompletedAt should be set when created completed")
	}
	reopened, _ := store.Update(ctx, created.ID, Patch{Status: statusPtr(StatusPending)})
	if reopened.CompletedAt != nil {
		t.Errorf("CompletedAt = %v after reopen, want nil", reopened.CompletedAt)
	}
}

// ---------------------------------------------------------------------------
// Delete / bulk operations
// ---------------------------------------------------------------------------

func TestStore_Delete(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "to delete"})

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected ErrNotFound getting deleted task")
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete of unknown id should be a no-op, got %v", err)
	}
}

func TestStore_BulkUpdate(t *testing.T) {
	store, _, rec := newTestStore(t)
	ctx := context.Background()
	a, _ := store.Create(ctx, Task{Title: "a", Status: StatusInProgress})
	b, _ := store.Create(ctx, Task{Title: "b"})

	updated, err := store.BulkUpdate(ctx, []string{a.ID, "stale-id", b.ID}, Patch{Status: statusPtr(StatusCompleted)})
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("BulkUpdate updated %d tasks, want 2", len(updated))
	}
	for _, u := range updated {
		if u.Status != StatusCompleted || u.CompletedAt == nil {
			t.Errorf("task %s not completed: %+v", u.Title, u)
		}
	}
	if len(rec.tasks) != 2 {
		t.Errorf("recorded completions = %d, want 2", len(rec.tasks))
	}
}

func TestStore_BulkDelete(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := store.Create(ctx, Task{Title: "a"})
	b, _ := store.Create(ctx, Task{Title: "b"})
	c, _ := store.Create(ctx, Task{Title: "c"})

	n, err := store.BulkDelete(ctx, []string{a.ID, c.ID, "missing"})
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if n != 2 {
		t.Errorf("BulkDelete removed %d, want 2", n)
	}
	left, _ := store.List(ctx, Filter{})
	if len(left) != 1 || left[0].ID != b.ID {
		t.Errorf("remaining = %v, want only b", left)
	}
}

// ---------------------------------------------------------------------------
// Timers
// ---------------------------------------------------------------------------

func TestStore_TimerSessionsAccumulate(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "deep work"})

	sessions := []time.Duration{25 * time.Minute, 40*time.Minute + 29*time.Second, 90 * time.Second}
	wantSum := 0
	for i, d := range sessions {
		started, err := store.StartTimer(ctx, created.ID)
		if err != nil {
			t.Fatalf("StartTimer: %v", err)
		}
		if !started.IsActiveTimer || started.CurrentSessionStart == nil {
			t.Fatalf("session %d: timer not active after start", i)
		}
		clock.Advance(d)
		stopped, err := store.StopTimer(ctx, created.ID)
		if err != nil {
			t.Fatalf("StopTimer: %v", err)
		}
		if stopped.IsActiveTimer || stopped.CurrentSessionStart != nil {
			t.Fatalf("session %d: timer still active after stop", i)
		}
		if len(stopped.TimeEntries) != i+1 {
			t.Fatalf("session %d: %d entries, want %d", i, len(stopped.TimeEntries), i+1)
		}
		e := stopped.TimeEntries[i]
		if e.EndTime.Before(e.StartTime) {
			t.Errorf("entry %d ends before it starts", i)
		}
		wantSum += e.Duration
		if stopped.TotalTimeSpent != wantSum {
			t.Errorf("session %d: TotalTimeSpent = %d, want %d", i, stopped.TotalTimeSpent, wantSum)
		}
		clock.Advance(time.Hour)
	}

	got, _ := store.Get(ctx, created.ID)
	durations := []int{}
	for _, e := range got.TimeEntries {
		durations = append(durations, e.Duration)
	}
	want := []int{25, 40, 2}
	for i := range want {
		if durations[i] != want[i] {
			t.Errorf("durations = %v, want %v", durations, want)
			break
		}
	}
}

func TestStore_StartTimerIsIdempotent(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "x"})

	first, _ := store.StartTimer(ctx, created.ID)
	start := *first.CurrentSessionStart
	clock.Advance(5 * time.Minute)
	second, _ := store.StartTimer(ctx, created.ID)
	if !second.CurrentSessionStart.Equal(start) {
		t.Errorf("second start moved session start to %v", second.CurrentSessionStart)
	}
	clock.Advance(5 * time.Minute)
	stopped, _ := store.StopTimer(ctx, created.ID)
	if len(stopped.TimeEntries) != 1 || stopped.TimeEntries[0].Duration != 10 {
		t.Errorf("entries = %+v, want one 10 minute entry", stopped.TimeEntries)
	}
}

func TestStore_StopWithoutStartIsNoop(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "x"})
	stopped, err := store.StopTimer(ctx, created.ID)
	if err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	if len(stopped.TimeEntries) != 0 || stopped.TotalTimeSpent != 0 {
		t.Errorf("stop without start created entries: %+v", stopped)
	}
}

func TestStore_TimersOnSeveralTasks(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := store.Create(ctx, Task{Title: "a"})
	b, _ := store.Create(ctx, Task{Title: "b"})
	_, _ = store.StartTimer(ctx, a.ID)
	_, _ = store.StartTimer(ctx, b.ID)

	active, err := store.ActiveTimers(ctx)
	if err != nil {
		t.Fatalf("ActiveTimers: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active timers = %d, want 2", len(active))
	}
}

func TestStore_SessionMinutes(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()
	created, _ := store.Create(ctx, Task{Title: "x"})
	_, _ = store.StartTimer(ctx, created.ID)
	clock.Advance(30 * time.Minute)
	_, _ = store.StopTimer(ctx, created.ID)
	running, _ := store.StartTimer(ctx, created.ID)
	clock.Advance(12 * time.Minute)

	if got := running.SessionMinutes(clock.Now()); got != 42 {
		t.Errorf("SessionMinutes = %d, want 42", got)
	}
	if running.TotalTimeSpent != 30 {
		t.Errorf("TotalTimeSpent = %d, running session must not be committed", running.TotalTimeSpent)
	}
}

// ---------------------------------------------------------------------------
// Persistence round trip
// ---------------------------------------------------------------------------

func TestStore_RoundTripThroughSQLite(t *testing.T) {
	adapter := newSQLiteAdapter(t)
	clock := newClock()
	ctx := context.Background()

	writer := NewStore(adapter, WithClock(clock.Now))
	due := time.Date(2026, 5, 8, 17, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	created, err := writer.Create(ctx, Task{
		Title:    "Review the project proposal",
		Priority: PriorityUrgent,
		DueDate:  &due,
		Tags:     []string{"review", "work", "proposal"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _ = writer.Update(ctx, created.ID, Patch{Status: statusPtr(StatusInProgress)})
	_, _ = writer.StartTimer(ctx, created.ID)
	clock.Advance(20 * time.Minute)
	want, _ := writer.StopTimer(ctx, created.ID)

	reader := NewStore(adapter)
	got, err := reader.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != want.ID || got.Status != want.Status || got.Priority != want.Priority {
		t.Errorf("identity fields differ: got %+v want %+v", got, want)
	}
	gotTags := append([]string{}, got.Tags...)
	wantTags := append([]string{}, want.Tags...)
	sort.Strings(gotTags)
	sort.Strings(wantTags)
	for i := range wantTags {
		if gotTags[i] != wantTags[i] {
			t.Errorf("tags = %v, want %v", got.Tags, want.Tags)
			break
		}
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("created/updated differ after round trip")
	}
	if !got.DueDate.Equal(*want.DueDate) || !got.StartedAt.Equal(*want.StartedAt) {
		t.Errorf("due/started differ after round trip")
	}
	if !got.TimeEntries[0].StartTime.Equal(want.TimeEntries[0].StartTime) ||
		!got.TimeEntries[0].EndTime.Equal(want.TimeEntries[0].EndTime) {
		t.Errorf("time entry instants differ after round trip")
	}
}
