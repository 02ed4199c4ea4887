// Package extract classifies utterances and pulls candidate tasks out of free
// text using ordered pattern tables.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/GoCodeAlone/taskvoice/internal/textutil"
	"github.com/GoCodeAlone/taskvoice/internal/when"
	"github.com/GoCodeAlone/taskvoice/task"
)

// Indicators gate task extraction: without one of them no task is extracted.
var Indicators = []string{
	"need to", "have to", "should", "must", "want to", "plan to",
	"remind me to", "don't forget to", "make sure to", "schedule",
	"deadline", "due", "finish", "complete", "work on",
}

// Family names the kind of phrasing a candidate was extracted from.
type Family string

const (
	FamilyDirect   Family = "direct"
	FamilyReminder Family = "reminder"
	FamilyProject  Family = "project-work"
	FamilyMeeting  Family = "meeting"
	FamilyDeadline Family = "deadline"

	// FamilyRemote marks candidates proposed by a remote model.
	FamilyRemote Family = "remote"
)

type taskPattern struct {
	family Family
	re     *regexp.Regexp // group 1 is the task text
}

// Applied in order; a match overlapping an earlier accepted span is dropped.
var taskPatterns = []taskPattern{
	{FamilyDirect, regexp.MustCompile(`(?i)\b(?:need|have|want|plan|got)\s+to\s+([^.!?,;]+)`)},
	{FamilyDirect, regexp.MustCompile(`(?i)\b(?:should|must)\s+([^.!?,;]+)`)},
	{FamilyReminder, regexp.MustCompile(`(?i)\b(?:remind\s+me\s+to|don'?t\s+forget\s+to|make\s+sure\s+to|remember\s+to)\s+([^.!?,;]+)`)},
	{FamilyProject, regexp.MustCompile(`(?i)\bwork\s+on\s+([^.!?,;]+)`)},
	{FamilyMeeting, regexp.MustCompile(`(?i)\bschedule\s+(?:a\s+|an\s+)?([^.!?,;]+)`)},
	{FamilyMeeting, regexp.MustCompile(`(?i)\b((?:meeting|call|sync)\s+with\s+[^.!?,;]+)`)},
	{FamilyDeadline, regexp.MustCompile(`(?i)\b(?:finish|complete)\s+([^.!?,;]+)`)},
	{FamilyDeadline, regexp.MustCompile(`(?i)\bdeadline\s+(?:for|on)\s+([^.!?,;]+)`)},
	{FamilyDeadline, regexp.MustCompile(`(?i)([^.!?,;]+?)\s+(?:is\s+|are\s+)?due\b`)},
}

const minTitleLen = 4

var (
	leadingTo = regexp.MustCompile(`(?i)^to\s+`)

	// Negations are rewritten before the priority scan so that "not urgent"
	// does not land in the urgent bucket.
	negatedPriority = regexp.MustCompile(`(?i)\bnot\s+(?:very\s+|that\s+)?(?:urgent|important|critical)\b`)

	urgentWords = regexp.MustCompile(`(?i)\b(urgent|urgently|asap|as\s+soon\s+as\s+possible|immediately|critical|emergency|right\s+away)\b`)
	highWords   = regexp.MustCompile(`(?i)\b(important|high[\s-]priority|top\s+priority|crucial|soon)\b`)
	lowWords    = regexp.MustCompile(`(?i)\b(low[\s-]priority|whenever|someday|eventually|no\s+rush|when\s+i\s+(have|get)\s+(the\s+)?time)\b`)

	hashtag        = regexp.MustCompile(`#([\p{L}\d_-]+)`)
	namedProject   = regexp.MustCompile(`\b((?:[A-Z][\w-]*\s+)*[A-Z][\w-]*)\s+[Pp]roject\b`)
	projectLeaders = map[string]bool{"the": true, "this": true, "that": true, "my": true, "our": true, "a": true, "an": true, "i": true, "for": true, "on": true}
)

type topic struct {
	tag string
	re  *regexp.Regexp
}

var topics = []topic{
	{"work", regexp.MustCompile(`(?i)\b(work|office|client|boss|colleague)\b`)},
	{"personal", regexp.MustCompile(`(?i)\b(personal|family|home|kids)\b`)},
	{"meeting", regexp.MustCompile(`(?i)\b(meeting|meet|sync|standup)\b`)},
	{"call", regexp.MustCompile(`(?i)\b(call|phone|ring)\b`)},
	{"email", regexp.MustCompile(`(?i)\b(email|e-mail|inbox|reply)\b`)},
	{"shopping", regexp.MustCompile(`(?i)\b(buy|shop|shopping|groceries|order)\b`)},
	{"health", regexp.MustCompile(`(?i)\b(doctor|dentist|gym|workout|exercise|run)\b`)},
	{"finance", regexp.MustCompile(`(?i)\b(pay|bill|bills|invoice|budget|tax|taxes)\b`)},
	{"writing", regexp.MustCompile(`(?i)\b(write|draft|report|document|blog)\b`)},
	{"review", regexp.MustCompile(`(?i)\b(review|proofread|feedback)\b`)},
	{"planning", regexp.MustCompile(`(?i)\b(plan|planning|organize|prepare)\b`)},
}

// Turn is one prior message of the conversation.
type Turn struct {
	Role    string
	Content string
}

// Candidate is a task proposed by the extractor; it has no identity yet.
type Candidate struct {
	Title    string        `json:"title"`
	Priority task.Priority `json:"priority"`
	DueDate  *time.Time    `json:"dueDate,omitempty"`
	Project  string        `json:"project,omitempty"`
	Tags     []string      `json:"tags"`
	Family   Family        `json:"family"`
}

// Task converts c into a task ready for task.Store.Create.
func (c Candidate) Task() task.Task {
	return task.Task{
		Title:    c.Title,
		Priority: c.Priority,
		Status:   task.StatusPending,
		DueDate:  c.DueDate,
		Project:  c.Project,
		Tags:     append([]string{}, c.Tags...),
	}
}

// Result is the outcome of Extract.
type Result struct {
	Intent     Intent      `json:"intent"`
	Tasks      []Candidate `json:"tasks"`
	Confidence float64     `json:"confidence"`
}

// Extractor turns utterances into intents and candidate tasks.
type Extractor struct {
	projects []string
	now      func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithProjects seeds the learned project names.
func WithProjects(names ...string) Option {
	return func(e *Extractor) { e.SetProjects(names) }
}

// WithClock overrides time.Now for due-date resolution.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetProjects replaces the learned project names. Longer names are matched
// first so "Website Redesign" wins over "Website".
func (e *Extractor) SetProjects(names []string) {
	e.projects = append([]string{}, names...)
	sort.SliceStable(e.projects, func(i, j int) bool { return len(e.projects[i]) > len(e.projects[j]) })
}

// Extract classifies utterance and extracts candidate tasks. history supplies
// project context when the utterance itself names none.
func (e *Extractor) Extract(utterance string, history []Turn) Result {
	res := Result{
		Intent: ClassifyIntent(utterance),
		Tasks:  []Candidate{},
	}

	hasIndicators := textutil.ContainsAny(utterance, Indicators)
	if hasIndicators {
		res.Tasks = e.candidates(utterance, history)
	}
	res.Confidence = confidence(utterance, hasIndicators, len(res.Tasks))
	return res
}

func (e *Extractor) candidates(utterance string, history []Turn) []Candidate {
	type span struct{ start, end int }
	var taken []span
	overlaps := func(s span) bool {
		for _, t := range taken {
			if s.start < t.end && t.start < s.end {
				return true
			}
		}
		return false
	}

	priority := Priority(utterance)
	project := e.Project(utterance)
	if project == "" {
		project = e.projectFromHistory(history)
	}
	tags := Tags(utterance)
	var due *time.Time
	if t, ok := when.Resolve(utterance, e.now()); ok {
		due = &t
	}

	var out []Candidate
	seen := map[string]bool{}
	for _, p := range taskPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(utterance, -1) {
			s := span{m[2], m[3]}
			if s.start < 0 || overlaps(s) {
				continue
			}
			title := CleanTitle(utterance[s.start:s.end])
			if len(title) < minTitleLen {
				continue
			}
			key := strings.ToLower(title)
			if seen[key] {
				continue
			}
			seen[key] = true
			taken = append(taken, s)
			out = append(out, Candidate{
				Title:    title,
				Priority: priority,
				DueDate:  due,
				Project:  project,
				Tags:     append([]string{}, tags...),
				Family:   p.family,
			})
		}
	}
	if out == nil {
		return []Candidate{}
	}
	return out
}

// CleanTitle strips a leading "to", collapses whitespace and capitalizes the
// first letter.
func CleanTitle(s string) string {
	s = textutil.CollapseSpace(s)
	s = strings.TrimSpace(leadingTo.ReplaceAllString(s, ""))
	return textutil.CapitalizeFirst(s)
}

// Priority scans text for priority keywords. Buckets are checked urgent, high,
// low; medium is the default.
func Priority(text string) task.Priority {
	text = negatedPriority.ReplaceAllString(text, "low priority")
	switch {
	case urgentWords.MatchString(text):
		return task.PriorityUrgent
	case highWords.MatchString(text):
		return task.PriorityHigh
	case lowWords.MatchString(text):
		return task.PriorityLow
	default:
		return task.PriorityMedium
	}
}

// Project returns the first learned project named in text, or a capitalized
// name followed by "project".
func (e *Extractor) Project(text string) string {
	lower := strings.ToLower(text)
	for _, name := range e.projects {
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	for _, m := range namedProject.FindAllStringSubmatch(text, -1) {
		words := strings.Fields(m[1])
		for len(words) > 0 && projectLeaders[strings.ToLower(words[0])] {
			words = words[1:]
		}
		if len(words) > 0 {
			return strings.Join(words, " ")
		}
	}
	return ""
}

func (e *Extractor) projectFromHistory(history []Turn) string {
	const lookback = 6
	for i := len(history) - 1; i >= 0 && i >= len(history)-lookback; i-- {
		lower := strings.ToLower(history[i].Content)
		for _, name := range e.projects {
			if name != "" && strings.Contains(lower, strings.ToLower(name)) {
				return name
			}
		}
	}
	return ""
}

// Tags collects hashtags and topical keywords from text, deduplicated.
func Tags(text string) []string {
	var tags []string
	for _, m := range hashtag.FindAllStringSubmatch(text, -1) {
		tags = append(tags, strings.ToLower(m[1]))
	}
	for _, t := range topics {
		if t.re.MatchString(text) {
			tags = append(tags, t.tag)
		}
	}
	tags = textutil.Dedupe(tags)
	if tags == nil {
		return []string{}
	}
	return tags
}

func confidence(utterance string, hasIndicators bool, taskCount int) float64 {
	c := 0.5
	if hasIndicators {
		c += 0.2
	}
	if taskCount > 0 {
		c += 0.2
	}
	if len(strings.TrimSpace(utterance)) < 10 {
		c -= 0.3
	}
	if textutil.HasFiller(utterance) {
		c -= 0.1
	}
	return textutil.Clamp(c, 0.1, 1.0)
}
