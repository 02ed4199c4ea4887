// Package command parses short imperative utterances into discrete task
// commands and applies them to the task store.
package command

import (
	"regexp"
	"strings"
	"time"

	"github.com/GoCodeAlone/taskvoice/internal/textutil"
	"github.com/GoCodeAlone/taskvoice/internal/when"
	"github.com/GoCodeAlone/taskvoice/task"
)

// Type identifies a command.
type Type string

const (
	TypeQuickTask       Type = "quick_task"
	TypeMarkComplete    Type = "mark_complete"
	TypeChangePriority  Type = "change_priority"
	TypeSearchTasks     Type = "search_tasks"
	TypeStartTimer      Type = "start_timer"
	TypeShowAgenda      Type = "show_agenda"
	TypeEditTitle       Type = "edit_title"
	TypeEditDescription Type = "edit_description"
	TypeEditProject     Type = "edit_project"
	TypeEditTags        Type = "edit_tags"
	TypeEditDueDate     Type = "edit_due_date"
	TypeEditStatus      Type = "edit_status"
	TypeNone            Type = "none"
)

// QuickThreshold is the confidence at which text is treated as a command
// rather than free-form conversation.
const QuickThreshold = 0.6

// Parameters carries the values captured from the utterance. Which fields are
// set depends on the command type.
type Parameters struct {
	Title          string        `json:"title,omitempty"`
	TaskIdentifier string        `json:"taskIdentifier,omitempty"`
	NewValue       string        `json:"newValue,omitempty"`
	Query          string        `json:"query,omitempty"`
	Scope          string        `json:"scope,omitempty"`
	Priority       task.Priority `json:"priority,omitempty"`
	Status         task.Status   `json:"status,omitempty"`
	DueDate        *time.Time    `json:"dueDate,omitempty"`
	Tags           []string      `json:"tags,omitempty"`
}

// Command is a parsed utterance.
type Command struct {
	Type         Type       `json:"type"`
	Action       string     `json:"action"`
	Parameters   Parameters `json:"parameters"`
	Confidence   float64    `json:"confidence"`
	OriginalText string     `json:"originalText"`
}

// rule is one pattern of a command group. id and value are capture group
// indexes (0 when absent); the primary group is id, or value when id is 0.
// A rule whose captured id matches skip is passed over.
type rule struct {
	re     *regexp.Regexp
	action string
	id     int
	value  int
	skip   *regexp.Regexp
}

type group struct {
	typ      Type
	keywords []string
	rules    []rule
}

// statusPhrase keeps "mark the status of X to done" out of mark complete.
var statusPhrase = regexp.MustCompile(`(?i)^(?:the\s+)?status\b`)

const weekdayAlt = `(?:this\s+|next\s+)?(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)`

// groups is evaluated in declaration order; within a group rules are tried in
// order and the first match overall wins.
var groups = []group{
	{TypeQuickTask, []string{"add task", "new task", "create task", "quick task", "add a task"}, []rule{
		{regexp.MustCompile(`(?i)^(?:add|create|new)\s+(?:a\s+)?(?:quick\s+|new\s+)?task(?:\s*:\s*|\s+)(.+)$`), "create", 0, 1, nil},
		{regexp.MustCompile(`(?i)^quick\s+task(?:\s*:\s*|\s+)(.+)$`), "create", 0, 1, nil},
		{regexp.MustCompile(`(?i)^add\s+(.+?)\s+to\s+(?:my\s+)?(?:list|tasks|todos?|to-do\s+list|todo\s+list)$`), "create", 0, 1, nil},
	}},
	{TypeMarkComplete, []string{"mark complete", "mark as complete", "mark done", "complete", "done", "finished"}, []rule{
		{regexp.MustCompile(`(?i)^mark\s+(?:as\s+)?(?:complete|completed|done|finished)(?:\s*:\s*|\s+)(.+)$`), "complete", 1, 0, nil},
		{regexp.MustCompile(`(?i)^mark\s+(.+?)\s+(?:as\s+)?(?:complete|completed|done|finished)$`), "complete", 1, 0, statusPhrase},
		{regexp.MustCompile(`(?i)^(?:complete|finish|finished|i\s+finished|i\s+completed|i(?:'ve|\s+have)?\s+done|done\s+with)(?:\s*:\s*|\s+)(.+)$`), "complete", 1, 0, nil},
	}},
	{TypeChangePriority, []string{"priority"}, []rule{
		{regexp.MustCompile(`(?i)^(?:set|change|make)\s+(?:the\s+)?priority\s+(?:of\s+|for\s+|on\s+)?(.+?)\s+to\s+(low|medium|normal|high|urgent|critical)$`), "set_priority", 1, 2, nil},
		{regexp.MustCompile(`(?i)^make\s+(.+?)\s+(low|medium|normal|high|urgent|critical)(?:\s+priority)?$`), "set_priority", 1, 2, nil},
		{regexp.MustCompile(`(?i)^(?:mark|set)\s+(.+?)\s+as\s+(low|medium|normal|high|urgent|critical)(?:\s+priority)?$`), "set_priority", 1, 2, nil},
	}},
	{TypeSearchTasks, []string{"search", "find"}, []rule{
		{regexp.MustCompile(`(?i)^(?:search|find|look)\s+(?:for\s+)?(?:my\s+)?(?:tasks?\s+)?(?:about\s+|with\s+|containing\s+|for\s+|mentioning\s+)?(.+)$`), "search", 0, 1, nil},
	}},
	{TypeStartTimer, []string{"timer", "start working"}, []rule{
		{regexp.MustCompile(`(?i)^start\s+(?:a\s+|the\s+)?timer\s+(?:for|on)\s+(.+)$`), "start", 1, 0, nil},
		{regexp.MustCompile(`(?i)^(?:start|begin)\s+working\s+on\s+(.+)$`), "start", 1, 0, nil},
		{regexp.MustCompile(`(?i)^(?:stop|pause|end)\s+(?:the\s+)?timer(?:\s+(?:for|on)\s+(.+))?$`), "stop", 1, 0, nil},
		{regexp.MustCompile(`(?i)^(?:stop|quit)\s+working\s+on\s+(.+)$`), "stop", 1, 0, nil},
	}},
	{TypeShowAgenda, []string{"agenda", "schedule"}, []rule{
		{regexp.MustCompile(`(?i)^(?:show\s+(?:me\s+)?|read\s+(?:me\s+)?)?(?:my\s+)?(?:agenda|schedule)(?:\s+for)?(?:\s+(today|tomorrow|this\s+week))?$`), "show", 0, 1, nil},
		{regexp.MustCompile(`(?i)^what'?s\s+(?:on\s+)?(?:my\s+)?(?:agenda|schedule|plate)(?:\s+for)?(?:\s+(today|tomorrow|this\s+week))?$`), "show", 0, 1, nil},
		{regexp.MustCompile(`(?i)^what\s+(?:do\s+i\s+have|is\s+due)\s+(today|tomorrow|this\s+week)$`), "show", 0, 1, nil},
	}},
	{TypeEditTitle, []string{"rename", "title"}, []rule{
		{regexp.MustCompile(`(?i)^rename\s+(.+?)\s+to\s+(.+)$`), "rename", 1, 2, nil},
		{regexp.MustCompile(`(?i)^(?:change|set|update)\s+(?:the\s+)?title\s+(?:of\s+|for\s+)?(.+?)\s+to\s+(.+)$`), "rename", 1, 2, nil},
	}},
	{TypeEditDescription, []string{"description"}, []rule{
		{regexp.MustCompile(`(?i)^(?:change|set|update)\s+(?:the\s+)?description\s+(?:of\s+|for\s+|on\s+)?(.+?)\s+to\s+(.+)$`), "describe", 1, 2, nil},
		{regexp.MustCompile(`(?i)^describe\s+(.+?)\s+as\s+(.+)$`), "describe", 1, 2, nil},
	}},
	{TypeEditProject, []string{"project"}, []rule{
		{regexp.MustCompile(`(?i)^(?:move|assign|put|add)\s+(.+?)\s+(?:to|into|under)\s+(?:the\s+)?project\s+(.+)$`), "move", 1, 2, nil},
		{regexp.MustCompile(`(?i)^(?:move|assign|put|add)\s+(.+?)\s+(?:to|into|under)\s+(?:the\s+)?(.+?)\s+project$`), "move", 1, 2, nil},
		{regexp.MustCompile(`(?i)^(?:set|change)\s+(?:the\s+)?project\s+(?:of\s+|for\s+|on\s+)?(.+?)\s+to\s+(.+)$`), "move", 1, 2, nil},
	}},
	{TypeEditTags, []string{"tag"}, []rule{
		{regexp.MustCompile(`(?i)^add\s+(?:the\s+)?tags?\s+(.+?)\s+to\s+(.+)$`), "tag", 2, 1, nil},
		{regexp.MustCompile(`(?i)^tag\s+(.+?)\s+(?:with|as)\s+(.+)$`), "tag", 1, 2, nil},
		{regexp.MustCompile(`(?i)^(?:set|change)\s+(?:the\s+)?tags\s+(?:of\s+|for\s+|on\s+)?(.+?)\s+to\s+(.+)$`), "tag", 1, 2, nil},
	}},
	{TypeEditDueDate, []string{"due", "deadline", "reschedule", "postpone"}, []rule{
		{regexp.MustCompile(`(?i)^(?:set|change|move)\s+(?:the\s+)?(?:due\s+date|deadline)\s+(?:of\s+|for\s+|on\s+)?(.+?)\s+to\s+(.+)$`), "reschedule", 1, 2, nil},
		{regexp.MustCompile(`(?i)^(?:reschedule|move|postpone|push(?:\s+back)?|delay)\s+(.+?)\s+(?:to|until|till)\s+(.+)$`), "reschedule", 1, 2, nil},
		{regexp.MustCompile(`(?i)^(.+?)\s+is\s+(?:now\s+)?due\s+(today|tomorrow|next\s+week|this\s+week|end\s+of\s+(?:the\s+)?week|` + weekdayAlt + `|on\s+.+)$`), "reschedule", 1, 2, nil},
	}},
	{TypeEditStatus, []string{"status"}, []rule{
		{regexp.MustCompile(`(?i)^(?:set|change|update|mark)\s+(?:the\s+)?status\s+(?:of\s+|for\s+|on\s+)?(.+?)\s+to\s+(.+)$`), "set_status", 1, 2, nil},
		{regexp.MustCompile(`(?i)^mark\s+(.+?)\s+as\s+(pending|todo|to\s+do|open|in\s+progress|in-progress|started|cancelled|canceled)$`), "set_status", 1, 2, nil},
		{regexp.MustCompile(`(?i)^cancel\s+(?:the\s+)?(?:task\s+)?(.+)$`), "cancel", 1, 0, nil},
	}},
}

var (
	trailingPunct  = regexp.MustCompile(`[\s.!?]+$`)
	leadingNoise   = regexp.MustCompile(`(?i)^(?:[\s,.;:!-]+|(?:please|okay|ok|so|can\s+you|could\s+you|would\s+you)\b[\s,]*)+`)
	trailingPlease = regexp.MustCompile(`(?i)[\s,]+please$`)
	tagSplit       = regexp.MustCompile(`\s*(?:,|\band\b|\s)\s*`)
	idNoise        = regexp.MustCompile(`(?i)^(?:the|my|a|an)\s+|\s+(?:task|item|todo)$`)
)

// Parser maps utterances to commands.
type Parser struct {
	now func() time.Time
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithClock overrides time.Now for due-date resolution.
func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) { p.now = now }
}

// NewParser creates a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse returns the first matching command, or a TypeNone command with zero
// confidence when nothing matches.
func (p *Parser) Parse(text string) Command {
	cmd := Command{Type: TypeNone, OriginalText: text, Confidence: 0}
	clean := trailingPunct.ReplaceAllString(textutil.CollapseSpace(text), "")
	if clean == "" {
		return cmd
	}

	subject := textutil.StripFiller(clean)
	subject = leadingNoise.ReplaceAllString(subject, "")
	subject = trailingPlease.ReplaceAllString(subject, "")

	for _, g := range groups {
		for _, r := range g.rules {
			m := r.re.FindStringSubmatch(subject)
			if m == nil {
				continue
			}
			var id, value string
			if r.id > 0 {
				id = strings.TrimSpace(m[r.id])
			}
			if r.skip != nil && r.skip.MatchString(id) {
				continue
			}
			if r.value > 0 {
				value = strings.TrimSpace(m[r.value])
			}
			primary := id
			if r.id == 0 {
				primary = value
			}

			cmd.Type = g.typ
			cmd.Action = r.action
			cmd.Parameters = p.parameters(g.typ, r.action, id, value)
			cmd.Confidence = confidence(clean, g.keywords, primary)
			return cmd
		}
	}
	return cmd
}

// IsQuickCommand reports whether text parses to a command with confidence of
// at least QuickThreshold.
func (p *Parser) IsQuickCommand(text string) bool {
	cmd := p.Parse(text)
	return cmd.Type != TypeNone && cmd.Confidence >= QuickThreshold
}

// ParseDueDate resolves spoken due-date text relative to the parser's clock.
func (p *Parser) ParseDueDate(text string) *time.Time {
	t, ok := when.Resolve(text, p.now())
	if !ok {
		return nil
	}
	return &t
}

func (p *Parser) parameters(typ Type, action, id, value string) Parameters {
	params := Parameters{TaskIdentifier: normalizeIdentifier(id)}
	switch typ {
	case TypeQuickTask:
		params.Title = textutil.CapitalizeFirst(value)
	case TypeSearchTasks:
		params.Query = value
	case TypeShowAgenda:
		params.Scope = strings.ToLower(value)
	case TypeChangePriority:
		params.Priority, _ = task.ParsePriority(value)
		params.NewValue = string(params.Priority)
	case TypeEditTitle, TypeEditDescription:
		params.NewValue = textutil.CapitalizeFirst(value)
	case TypeEditProject:
		params.NewValue = textutil.TitleCase(value)
	case TypeEditTags:
		params.Tags = splitTags(value)
		params.NewValue = strings.Join(params.Tags, ", ")
	case TypeEditDueDate:
		params.NewValue = value
		params.DueDate = p.ParseDueDate(value)
	case TypeEditStatus:
		if action == "cancel" {
			params.Status = task.StatusCancelled
		} else {
			params.Status, _ = task.ParseStatus(value)
		}
		params.NewValue = string(params.Status)
	}
	return params
}

func normalizeIdentifier(id string) string {
	for {
		next := strings.TrimSpace(idNoise.ReplaceAllString(id, ""))
		if next == id || next == "" {
			return id
		}
		id = next
	}
}

func splitTags(s string) []string {
	var tags []string
	for _, part := range tagSplit.Split(s, -1) {
		part = strings.ToLower(strings.TrimLeft(strings.TrimSpace(part), "#"))
		if part != "" {
			tags = append(tags, part)
		}
	}
	return textutil.Dedupe(tags)
}

func confidence(text string, keywords []string, primary string) float64 {
	c := 0.8
	if textutil.ContainsAny(text, keywords) {
		c += 0.1
	}
	if primary != "" && len(primary) < 3 {
		c -= 0.3
	}
	if textutil.HasFiller(text) {
		c -= 0.1
	}
	if strings.Contains(text, ":") || strings.Contains(strings.ToLower(text), " to ") {
		c += 0.1
	}
	return textutil.Clamp(c, 0.1, 1.0)
}
