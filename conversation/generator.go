package conversation

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/GoCodeAlone/taskvoice/extract"
)

// Theme is a recurring topic detected in conversation text.
type Theme string

const (
	ThemeProject  Theme = "project"
	ThemeDeadline Theme = "deadline"
	ThemeMeeting  Theme = "meeting"
	ThemePlanning Theme = "planning"
	ThemeReview   Theme = "review"
)

var themePatterns = []struct {
	theme Theme
	re    *regexp.Regexp
}{
	{ThemeProject, regexp.MustCompile(`(?i)\bprojects?\b`)},
	{ThemeDeadline, regexp.MustCompile(`(?i)\b(deadlines?|due|by\s+(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`)},
	{ThemeMeeting, regexp.MustCompile(`(?i)\b(meetings?|call|sync|standup|appointment)\b`)},
	{ThemePlanning, regexp.MustCompile(`(?i)\b(plan|planning|schedule|organi[sz]e|prioriti[sz]e)\b`)},
	{ThemeReview, regexp.MustCompile(`(?i)\b(review|feedback|check\s+over|proofread)\b`)},
}

// Themes returns the themes present in text in a fixed order.
func Themes(text string) []Theme {
	var out []Theme
	for _, tp := range themePatterns {
		if tp.re.MatchString(text) {
			out = append(out, tp.theme)
		}
	}
	return out
}

// templates holds the reply variants for one intent. continuing variants are
// used when the utterance picks up a theme from the recent history and take
// the theme as their only argument.
type templates struct {
	fresh      []string
	continuing []string
}

var responses = map[extract.Intent]templates{
	extract.IntentTaskCreation: {
		fresh: []string{
			"Got it, I'll keep track of that for you.",
			"Noted. I've added that to your list.",
			"Sure thing, that's on your radar now.",
			"Okay, I've captured that.",
		},
		continuing: []string{
			"Adding that to the %s work we were just talking about.",
			"Got it, one more thing for the %s.",
			"Noted, that fits with the %s you mentioned.",
		},
	},
	extract.IntentTaskQuery: {
		fresh: []string{
			"Let me pull up your tasks.",
			"Here's what's on your plate.",
			"Checking your list now.",
		},
		continuing: []string{
			"Here's where things stand on the %s.",
			"Let me check what's left for the %s.",
			"Pulling up everything related to the %s.",
		},
	},
	extract.IntentTaskUpdate: {
		fresh: []string{
			"Okay, I've updated that.",
			"Done, your list is up to date.",
			"Got it, I've made that change.",
		},
		continuing: []string{
			"Updated. That should help with the %s.",
			"Done, the %s is looking better already.",
			"Changed. Anything else for the %s?",
		},
	},
	extract.IntentProjectDiscussion: {
		fresh: []string{
			"Tell me more about this project.",
			"Projects go better with clear next steps. What's the first one?",
			"Sounds like a meaningful project. What's coming up next?",
		},
		continuing: []string{
			"Let's keep going on the %s. What's next?",
			"Picking the %s back up. Where are you with it?",
			"Good to keep the %s moving. Anything blocking you?",
		},
	},
	extract.IntentStatusCheck: {
		fresh: []string{
			"Let me look at how you're doing.",
			"Here's a quick look at your progress.",
			"You've been busy. Let me summarize.",
		},
		continuing: []string{
			"Here's how the %s is going.",
			"Let me check your progress on the %s.",
			"Quick status on the %s coming up.",
		},
	},
	extract.IntentCasual: {
		fresh: []string{
			"Hey! What can I help you get done today?",
			"Hi there. Anything on your mind?",
			"Good to hear from you. What's up?",
		},
		continuing: []string{
			"Hey again. Still thinking about the %s?",
			"Hi! Want to pick up the %s where we left off?",
			"Welcome back. Shall we continue with the %s?",
		},
	},
	extract.IntentHelp: {
		fresh: []string{
			"I can capture tasks, track time and suggest what to work on next. Just tell me what you need to do.",
			"Try saying something like \"remind me to call the dentist tomorrow\" or \"what's on my agenda\".",
			"I turn what you say into tasks, keep timers and learn when you work best. What would you like to try?",
		},
		continuing: []string{
			"Happy to help with the %s. Tell me what needs doing and I'll track it.",
			"For the %s, just list the steps and I'll turn them into tasks.",
			"Let's break the %s into tasks. What's the first step?",
		},
	},
	extract.IntentGeneral: {
		fresh: []string{
			"I hear you.",
			"Okay. Let me know if there's anything to add to your list.",
			"Understood. Anything you need to get done?",
			"Got it. I'm here if you need to plan something.",
		},
		continuing: []string{
			"Okay. Is that related to the %s?",
			"Got it. Anything else for the %s?",
			"Understood. Want to add anything for the %s?",
		},
	},
}

// Generator produces conversational replies from templates. It is not safe
// for concurrent use because it owns its random source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator drawing variants from rng. A nil rng is
// replaced by a time-seeded source.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Generator{rng: rng}
}

// Generate returns the reply to utterance. A continuing variant is chosen
// when the utterance shares a theme with the last six history messages; a
// task-count clause follows when tasks were extracted, and a project clause
// when the intent is a project discussion and memory lists current projects.
func (g *Generator) Generate(utterance string, intent extract.Intent, tasks []extract.Candidate, history []Message, memory UserMemory) string {
	tpl, ok := responses[intent]
	if !ok {
		tpl = responses[extract.IntentGeneral]
	}

	var b strings.Builder
	if theme, ok := sharedTheme(utterance, history); ok {
		fmt.Fprintf(&b, g.pick(tpl.continuing), theme)
	} else {
		b.WriteString(g.pick(tpl.fresh))
	}

	if len(tasks) > 0 {
		b.WriteString(" " + taskClause(tasks))
	}

	if intent == extract.IntentProjectDiscussion && len(memory.CurrentProjects) > 0 {
		b.WriteString(" " + projectClause(memory.CurrentProjects))
	}
	return b.String()
}

func (g *Generator) pick(variants []string) string {
	return variants[g.rng.IntN(len(variants))]
}

func sharedTheme(utterance string, history []Message) (Theme, bool) {
	window := recent(history, historyWindow)
	if len(window) == 0 {
		return "", false
	}
	parts := make([]string, len(window))
	for i, m := range window {
		parts[i] = m.Content
	}
	prior := Themes(strings.Join(parts, " "))
	for _, t := range Themes(utterance) {
		for _, p := range prior {
			if t == p {
				return t, true
			}
		}
	}
	return "", false
}

func taskClause(tasks []extract.Candidate) string {
	if len(tasks) == 1 {
		return fmt.Sprintf("I found 1 task: %q.", tasks[0].Title)
	}
	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = fmt.Sprintf("%q", t.Title)
	}
	return fmt.Sprintf("I found %d tasks: %s.", len(tasks), strings.Join(titles, ", "))
}

func projectClause(projects []string) string {
	switch len(projects) {
	case 1:
		return fmt.Sprintf("How does this fit with %s?", projects[0])
	default:
		return fmt.Sprintf("You're currently juggling %s and %s.",
			strings.Join(projects[:len(projects)-1], ", "), projects[len(projects)-1])
	}
}
