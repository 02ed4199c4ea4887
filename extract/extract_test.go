package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/taskvoice/task"
)

// Wednesday 2026-10-14 10:30 UTC.
var now = time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC)

func newExtractor(projects ...string) *Extractor {
	return New(WithClock(func() time.Time { return now }), WithProjects(projects...))
}

func TestExtract_QuarterlyReport(t *testing.T) {
	res := newExtractor().Extract("I need to finish the quarterly report by Friday, it's urgent", nil)

	assert.Equal(t, IntentTaskCreation, res.Intent)
	require.Len(t, res.Tasks, 1)
	c := res.Tasks[0]
	assert.True(t, strings.HasPrefix(strings.ToLower(c.Title), "finish the quarterly report"), "title %q", c.Title)
	assert.Equal(t, "F", c.Title[:1])
	assert.Equal(t, task.PriorityUrgent, c.Priority)
	require.NotNil(t, c.DueDate)
	assert.Equal(t, time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC), *c.DueDate)
	assert.Contains(t, c.Tags, "writing")
	assert.Equal(t, FamilyDirect, c.Family)
	assert.GreaterOrEqual(t, res.Confidence, 0.7)
}

func TestExtract_NoIndicatorsNoTasks(t *testing.T) {
	e := newExtractor()
	for _, u := range []string{
		"hey how's it going",
		"what's on my agenda",
		"how am I doing this week",
		"tell me about the Apollo project",
		"buy milk",
		"",
	} {
		t.Run(u, func(t *testing.T) {
			res := e.Extract(u, nil)
			assert.Empty(t, res.Tasks)
			assert.NotNil(t, res.Tasks)
		})
	}
}

func TestExtract_ConfidenceBounds(t *testing.T) {
	e := newExtractor()
	tests := []struct {
		utterance string
		want      float64
	}{
		{"um uh", 0.1},
		{"ok", 0.2},
		{"I have to go.", 0.7},
		{"tell me a story please", 0.5},
		{"um, I need to call the bank about the loan", 0.8},
		{"I need to call the bank about the loan", 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			c := e.Extract(tt.utterance, nil).Confidence
			assert.InDelta(t, tt.want, c, 1e-9)
			assert.GreaterOrEqual(t, c, 0.1)
			assert.LessOrEqual(t, c, 1.0)
		})
	}
}

func TestExtract_MultipleCandidates(t *testing.T) {
	res := newExtractor().Extract("I need to buy milk. Remind me to call the dentist tomorrow.", nil)

	require.Len(t, res.Tasks, 2)
	assert.Equal(t, "Buy milk", res.Tasks[0].Title)
	assert.Equal(t, FamilyDirect, res.Tasks[0].Family)
	assert.Equal(t, "Call the dentist tomorrow", res.Tasks[1].Title)
	assert.Equal(t, FamilyReminder, res.Tasks[1].Family)
	for _, c := range res.Tasks {
		require.NotNil(t, c.DueDate)
		assert.Equal(t, now.AddDate(0, 0, 1), *c.DueDate)
		assert.Equal(t, []string{"call", "shopping", "health"}, c.Tags)
	}
}

func TestExtract_OverlapsAndDuplicatesDropped(t *testing.T) {
	e := newExtractor()

	res := e.Extract("Make sure to finish the slides", nil)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "Finish the slides", res.Tasks[0].Title)
	assert.Equal(t, FamilyReminder, res.Tasks[0].Family)

	res = e.Extract("I need to call Bob. Don't forget to call Bob.", nil)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "Call Bob", res.Tasks[0].Title)
}

func TestExtract_ShortTitlesDropped(t *testing.T) {
	res := newExtractor().Extract("I have to go.", nil)
	assert.Empty(t, res.Tasks)
}

func TestExtract_Meeting(t *testing.T) {
	res := newExtractor().Extract("Schedule a meeting with Sarah on Monday", nil)

	assert.Equal(t, IntentTaskCreation, res.Intent)
	require.Len(t, res.Tasks, 1)
	c := res.Tasks[0]
	assert.Equal(t, "Meeting with Sarah on Monday", c.Title)
	assert.Equal(t, FamilyMeeting, c.Family)
	require.NotNil(t, c.DueDate)
	assert.Equal(t, time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC), *c.DueDate)
	assert.Equal(t, []string{"meeting"}, c.Tags)
}

func TestExtract_Deadline(t *testing.T) {
	res := newExtractor().Extract("The budget review is due tomorrow", nil)

	assert.Equal(t, IntentGeneral, res.Intent)
	require.Len(t, res.Tasks, 1)
	c := res.Tasks[0]
	assert.Equal(t, "The budget review", c.Title)
	assert.Equal(t, FamilyDeadline, c.Family)
	assert.Equal(t, []string{"finance", "review"}, c.Tags)
}

func TestExtract_ProjectFromHistory(t *testing.T) {
	e := newExtractor("Garden")
	history := []Turn{
		{Role: "user", Content: "Let's talk about the garden plans"},
		{Role: "assistant", Content: "Sure, what's next?"},
	}
	res := e.Extract("I need to order more seeds", history)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "Garden", res.Tasks[0].Project)
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		utterance string
		want      Intent
	}{
		{"I need to water the plants", IntentTaskCreation},
		{"I need help with the budget", IntentTaskCreation},
		{"remind me about the dentist", IntentTaskCreation},
		{"what's on my agenda", IntentTaskQuery},
		{"show me my tasks", IntentTaskQuery},
		{"mark the report as done", IntentTaskUpdate},
		{"I just finished the slides", IntentTaskUpdate},
		{"tell me about the Apollo project", IntentProjectDiscussion},
		{"how am I doing", IntentStatusCheck},
		{"hey how's it going", IntentCasual},
		{"thanks a lot", IntentCasual},
		{"what can you do", IntentHelp},
		{"the weather is nice", IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.utterance))
		})
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		text string
		want task.Priority
	}{
		{"do this asap", task.PriorityUrgent},
		{"it's critical", task.PriorityUrgent},
		{"this is important", task.PriorityHigh},
		{"high priority please", task.PriorityHigh},
		{"low priority", task.PriorityLow},
		{"whenever you get a chance", task.PriorityLow},
		{"it's not urgent", task.PriorityLow},
		{"not that important really", task.PriorityLow},
		{"not urgent but important", task.PriorityHigh},
		{"just a normal thing", task.PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Priority(tt.text))
		})
	}
}

func TestProject(t *testing.T) {
	e := newExtractor("Website", "Website Redesign")
	assert.Equal(t, "Website Redesign", e.Project("work on the website redesign copy"))
	assert.Equal(t, "Website", e.Project("fix the website footer"))
	assert.Equal(t, "Apollo", e.Project("update the docs for the Apollo project"))
	assert.Equal(t, "Mars Rover", e.Project("The Mars Rover project needs love"))
	assert.Equal(t, "", e.Project("this project is fun"))
	assert.Equal(t, "", e.Project("nothing here"))
}

func TestTags(t *testing.T) {
	assert.Equal(t, []string{"q3", "work", "email"}, Tags("#Q3 need to email the client"))
	assert.Equal(t, []string{"urgent"}, Tags("#urgent #Urgent"))
	assert.Equal(t, []string{}, Tags("nothing topical"))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Water the plants", CleanTitle("  to   water the plants "))
	assert.Equal(t, "Éclair tasting", CleanTitle("éclair tasting"))
	assert.Equal(t, "", CleanTitle("   "))
}

func TestCandidateTask(t *testing.T) {
	due := now.Add(time.Hour)
	c := Candidate{Title: "Buy milk", Priority: task.PriorityLow, DueDate: &due, Project: "Home", Tags: []string{"shopping"}}
	got := c.Task()
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, task.StatusPending, got.Status)
	assert.Equal(t, task.PriorityLow, got.Priority)
	assert.Equal(t, &due, got.DueDate)
	assert.Equal(t, []string{"shopping"}, got.Tags)
}
