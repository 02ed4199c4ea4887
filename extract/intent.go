package extract

import "regexp"

// Intent is the coarse purpose of an utterance.
type Intent string

const (
	IntentTaskCreation      Intent = "task_creation"
	IntentTaskQuery         Intent = "task_query"
	IntentTaskUpdate        Intent = "task_update"
	IntentProjectDiscussion Intent = "project_discussion"
	IntentStatusCheck       Intent = "status_check"
	IntentCasual            Intent = "casual_conversation"
	IntentHelp              Intent = "help_request"
	IntentGeneral           Intent = "general_conversation"
)

// IntentRule maps an intent to the patterns that select it.
type IntentRule struct {
	Intent   Intent
	Patterns []*regexp.Regexp
}

// IntentRules is evaluated top to bottom and the first rule with a matching
// pattern wins. Task creation comes first so that "I need help with the
// budget" is read as work to track rather than a help request.
var IntentRules = []IntentRule{
	{IntentTaskCreation, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(need|have|want|plan|got)\s+to\b`),
		regexp.MustCompile(`(?i)\b(should|must)\s+\w+`),
		regexp.MustCompile(`(?i)\b(remind\s+me|don'?t\s+forget|make\s+sure|remember\s+to)\b`),
		regexp.MustCompile(`(?i)\b(add|create|new)\s+(a\s+)?(task|todo|to-do|reminder)\b`),
		regexp.MustCompile(`(?i)\bi\s+need\b`),
		regexp.MustCompile(`(?i)\bschedule\s+(a|an|the)?\s*\w+`),
	}},
	{IntentTaskQuery, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(what|which)('?s|\s+is|\s+are)?\s+(on\s+)?(my\s+)?(tasks?|todos?|to-dos?|list|agenda|schedule|plate)\b`),
		regexp.MustCompile(`(?i)\b(show|list|read)\s+(me\s+)?(all\s+)?(my\s+)?(tasks?|todos?|agenda)\b`),
		regexp.MustCompile(`(?i)\bwhat\s+do\s+i\s+have\b`),
		regexp.MustCompile(`(?i)\b(anything|what'?s)\s+(due|overdue|pending)\b`),
	}},
	{IntentTaskUpdate, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmark\s+.+\s+(as\s+)?(done|complete|completed|finished)\b`),
		regexp.MustCompile(`(?i)\bi\s+(just\s+)?(finished|completed|did|wrapped\s+up)\b`),
		regexp.MustCompile(`(?i)\b(update|change|edit|rename)\s+(the\s+)?(task|priority|due\s+date|deadline|title)\b`),
		regexp.MustCompile(`(?i)\b(reschedule|postpone|push\s+back|cancel|delete)\b`),
	}},
	{IntentProjectDiscussion, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bprojects?\b`),
		regexp.MustCompile(`(?i)\b(milestone|roadmap|sprint|initiative)\b`),
		regexp.MustCompile(`(?i)\bworking\s+on\b`),
	}},
	{IntentStatusCheck, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bhow\s+am\s+i\s+doing\b`),
		regexp.MustCompile(`(?i)\b(my\s+)?(progress|status|productivity|stats|summary)\b`),
		regexp.MustCompile(`(?i)\bhow\s+(productive|much\s+(have\s+)?i\s+(done|completed))\b`),
	}},
	{IntentCasual, []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(hi|hello|hey|yo|good\s+(morning|afternoon|evening))\b`),
		regexp.MustCompile(`(?i)\b(how\s+are\s+you|how'?s\s+it\s+going|what'?s\s+up)\b`),
		regexp.MustCompile(`(?i)\b(thanks|thank\s+you|cheers|bye|goodbye)\b`),
	}},
	{IntentHelp, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bhelp\b`),
		regexp.MustCompile(`(?i)\b(how\s+do\s+i|how\s+does\s+this\s+work|what\s+can\s+you\s+do)\b`),
	}},
}

// ClassifyIntent returns the intent of the first rule matching utterance, or
// IntentGeneral.
func ClassifyIntent(utterance string) Intent {
	for _, rule := range IntentRules {
		for _, p := range rule.Patterns {
			if p.MatchString(utterance) {
				return rule.Intent
			}
		}
	}
	return IntentGeneral
}
