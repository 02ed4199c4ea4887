package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GoCodeAlone/taskvoice/extract"
	"github.com/GoCodeAlone/taskvoice/internal/textutil"
	"github.com/GoCodeAlone/taskvoice/internal/when"
	"github.com/GoCodeAlone/taskvoice/provider"
	"github.com/GoCodeAlone/taskvoice/task"
)

// DegradedMessage is the reply used when the remote model cannot be reached.
const DegradedMessage = "I'm having trouble connecting right now. I'll keep listening, so try again in a moment."

const (
	remoteHistory      = 10
	envelopeConfidence = 0.9
	verbatimConfidence = 0.6
)

const systemPrompt = `You are a voice-driven personal task assistant. Today is %s.%s
Reply with a single JSON object and nothing else:
{"message": "<short spoken reply>",
 "tasks": [{"title": "...", "priority": "low|medium|high|urgent", "dueDate": "YYYY-MM-DD or empty", "project": "...", "tags": ["..."]}],
 "suggestions": ["..."]}
Only include tasks the user clearly wants to track. Keep the message under three sentences.`

// RemoteProcessor answers utterances through a remote model.
type RemoteProcessor struct {
	provider    provider.Provider
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
	now         func() time.Time
}

// RemoteOption configures a RemoteProcessor.
type RemoteOption func(*RemoteProcessor)

// WithModel overrides the provider's default model.
func WithModel(model string) RemoteOption {
	return func(p *RemoteProcessor) { p.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) RemoteOption {
	return func(p *RemoteProcessor) { p.temperature = t }
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) RemoteOption {
	return func(p *RemoteProcessor) { p.maxTokens = n }
}

// WithRemoteLogger sets the processor's logger.
func WithRemoteLogger(l *zap.Logger) RemoteOption {
	return func(p *RemoteProcessor) { p.logger = l }
}

// WithRemoteClock overrides time.Now for due-date resolution.
func WithRemoteClock(now func() time.Time) RemoteOption {
	return func(p *RemoteProcessor) { p.now = now }
}

// NewRemoteProcessor creates a RemoteProcessor over prov.
func NewRemoteProcessor(prov provider.Provider, opts ...RemoteOption) *RemoteProcessor {
	p := &RemoteProcessor{
		provider:    prov,
		temperature: 0.7,
		maxTokens:   500,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// envelope is the JSON shape requested from the model.
type envelope struct {
	Message string `json:"message"`
	Tasks   []struct {
		Title    string   `json:"title"`
		Priority string   `json:"priority"`
		DueDate  string   `json:"dueDate"`
		Project  string   `json:"project"`
		Tags     []string `json:"tags"`
	} `json:"tasks"`
	Suggestions []string `json:"suggestions"`
}

// ProcessMessage implements Processor. Provider failures produce the
// degraded reply with Metadata.Error set.
func (p *RemoteProcessor) ProcessMessage(ctx context.Context, utterance string, history []Message, memory UserMemory) AIResponse {
	start := time.Now()
	now := p.now()
	intent := extract.ClassifyIntent(utterance)

	req := provider.Request{
		SystemPrompt: fmt.Sprintf(systemPrompt, now.Format("Monday, January 2, 2006"), memoryContext(memory)),
		Messages:     chatMessages(history, utterance),
		Model:        p.model,
		Temperature:  p.temperature,
		MaxTokens:    p.maxTokens,
	}

	c, err := p.provider.ChatComplete(ctx, req)
	if err != nil {
		p.logger.Warn("remote completion failed", zap.String("provider", p.provider.Name()), zap.Error(err))
		return AIResponse{
			Message: DegradedMessage,
			Tasks:   []extract.Candidate{},
			Metadata: Metadata{
				ProcessingTime: time.Since(start),
				Intent:         intent,
				Error:          err.Error(),
				Provider:       p.provider.Name(),
			},
		}
	}

	resp := AIResponse{
		Tasks: []extract.Candidate{},
		Metadata: Metadata{
			Intent:     intent,
			Provider:   p.provider.Name(),
			TokensUsed: c.TokensUsed,
		},
	}

	env, ok := parseEnvelope(c.Text)
	if !ok {
		resp.Message = strings.TrimSpace(c.Text)
		resp.Metadata.Confidence = verbatimConfidence
	} else {
		resp.Message = strings.TrimSpace(env.Message)
		resp.Suggestions = env.Suggestions
		resp.Metadata.Confidence = envelopeConfidence
		for _, t := range env.Tasks {
			title := extract.CleanTitle(t.Title)
			if title == "" {
				continue
			}
			prio, ok := task.ParsePriority(t.Priority)
			if !ok {
				prio = task.PriorityMedium
			}
			cand := extract.Candidate{
				Title:    title,
				Priority: prio,
				Project:  strings.TrimSpace(t.Project),
				Tags:     normalizeTags(t.Tags),
				Family:   extract.FamilyRemote,
			}
			if due, ok := when.Resolve(t.DueDate, now); ok {
				cand.DueDate = &due
			}
			resp.Tasks = append(resp.Tasks, cand)
		}
	}
	resp.Metadata.ProcessingTime = time.Since(start)
	return resp
}

func memoryContext(m UserMemory) string {
	var b strings.Builder
	if m.Name != "" {
		fmt.Fprintf(&b, " The user's name is %s.", m.Name)
	}
	if len(m.CurrentProjects) > 0 {
		fmt.Fprintf(&b, " Their current projects: %s.", strings.Join(m.CurrentProjects, ", "))
	}
	return b.String()
}

// chatMessages converts the tail of history plus utterance into provider
// messages. Leading assistant turns are dropped since some backends require
// the exchange to open with the user.
func chatMessages(history []Message, utterance string) []provider.Message {
	window := recent(history, remoteHistory)
	out := make([]provider.Message, 0, len(window)+1)
	for _, m := range window {
		if len(out) == 0 && m.Role != RoleUser {
			continue
		}
		role := provider.RoleUser
		if m.Role == RoleAssistant {
			role = provider.RoleAssistant
		}
		out = append(out, provider.Message{Role: role, Content: m.Content})
	}
	return append(out, provider.Message{Role: provider.RoleUser, Content: utterance})
}

var codeFence = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func parseEnvelope(text string) (envelope, bool) {
	text = strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	var env envelope
	if !strings.HasPrefix(text, "{") {
		return env, false
	}
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return env, false
	}
	if env.Message == "" && len(env.Tasks) == 0 {
		return env, false
	}
	return env, true
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t != "" {
			out = append(out, t)
		}
	}
	return textutil.Dedupe(out)
}
