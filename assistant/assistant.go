// Package assistant is the application service behind every entry point: it
// routes utterances to the command executor or the conversational processor,
// files extracted tasks, keeps the conversation history and surfaces
// reminders and recommendations.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoCodeAlone/taskvoice/analytics"
	"github.com/GoCodeAlone/taskvoice/command"
	"github.com/GoCodeAlone/taskvoice/conversation"
	"github.com/GoCodeAlone/taskvoice/extract"
	"github.com/GoCodeAlone/taskvoice/notify"
	"github.com/GoCodeAlone/taskvoice/task"
)

// Reply is the answer to one utterance.
type Reply struct {
	Text        string                 `json:"text"`
	Command     *command.Command       `json:"command,omitempty"`
	Tasks       []task.Task            `json:"tasks,omitempty"`
	Suggestions []string               `json:"suggestions,omitempty"`
	Metadata    *conversation.Metadata `json:"metadata,omitempty"`
}

// Assistant wires the task store, analytics, conversation history and a
// processor together. Like the store it wraps, it is meant to be owned by a
// single goroutine.
type Assistant struct {
	tasks     *task.Store
	analytics *analytics.Engine
	convs     *conversation.Store
	processor conversation.Processor
	extractor *extract.Extractor
	notifier  command.Notifier
	parser    *command.Parser
	executor  *command.Executor
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithNotifier sets where speech, suggestions and reminders go.
func WithNotifier(n command.Notifier) Option {
	return func(a *Assistant) { a.notifier = n }
}

// WithLogger sets the assistant's logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// WithExtractor registers the extractor used by the local processor so its
// known project names are refreshed before every utterance.
func WithExtractor(e *extract.Extractor) Option {
	return func(a *Assistant) { a.extractor = e }
}

// New creates an Assistant.
func New(tasks *task.Store, engine *analytics.Engine, convs *conversation.Store, processor conversation.Processor, opts ...Option) *Assistant {
	a := &Assistant{
		tasks:     tasks,
		analytics: engine,
		convs:     convs,
		processor: processor,
		notifier:  discard{},
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.parser = command.NewParser(command.WithClock(a.now))
	a.executor = command.NewExecutor(tasks,
		command.WithNotifier(a.notifier),
		command.WithLogger(a.logger.Named("command")),
		command.WithExecutorClock(a.now))
	return a
}

type discard struct{}

func (discard) Speak(string)                     {}
func (discard) Notify(string, string, notify.Kind) {}

// HandleUtterance answers text. Short imperative commands are applied
// directly; anything else goes through the conversational processor, whose
// extracted tasks are created in the store.
func (a *Assistant) HandleUtterance(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Reply{Text: "I didn't catch that."}, nil
	}
	if a.parser.IsQuickCommand(text) {
		return a.handleCommand(ctx, text)
	}
	return a.converse(ctx, text)
}

// Execute applies an already parsed command.
func (a *Assistant) Execute(ctx context.Context, cmd command.Command) (*Reply, error) {
	out, err := a.executor.Execute(ctx, cmd)
	if err != nil {
		if msg, ok := friendly(cmd, err); ok {
			return &Reply{Text: msg, Command: &cmd}, nil
		}
		return nil, err
	}
	return &Reply{Text: out.Message, Command: &cmd, Tasks: out.Tasks}, nil
}

func (a *Assistant) handleCommand(ctx context.Context, text string) (*Reply, error) {
	cmd := a.parser.Parse(text)
	a.logger.Debug("quick command",
		zap.String("type", string(cmd.Type)),
		zap.Float64("confidence", cmd.Confidence))

	reply, err := a.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	meta := &conversation.Metadata{Confidence: cmd.Confidence, Provider: "command"}
	reply.Metadata = meta
	if err := a.record(ctx, text, reply.Text, taskIDs(reply.Tasks), meta); err != nil {
		a.logger.Warn("record command exchange", zap.Error(err))
	}
	a.notifier.Speak(reply.Text)
	return reply, nil
}

func friendly(cmd command.Command, err error) (string, bool) {
	switch {
	case errors.Is(err, command.ErrNoMatch) && cmd.Parameters.TaskIdentifier != "":
		return fmt.Sprintf("I couldn't find a task matching %q.", cmd.Parameters.TaskIdentifier), true
	case errors.Is(err, command.ErrNoMatch):
		return "I couldn't find a task to apply that to.", true
	case errors.Is(err, task.ErrValidation):
		return "I didn't catch the new value. Could you say that again?", true
	}
	return "", false
}

func (a *Assistant) converse(ctx context.Context, text string) (*Reply, error) {
	conv, err := a.convs.Active(ctx)
	if err != nil {
		return nil, err
	}
	memory, err := a.convs.Memory(ctx)
	if err != nil {
		return nil, err
	}
	if a.extractor != nil {
		names, err := a.tasks.ProjectNames(ctx)
		if err != nil {
			return nil, err
		}
		a.extractor.SetProjects(append(names, memory.CurrentProjects...))
	}

	resp := a.processor.ProcessMessage(ctx, text, conv.Messages, memory)
	userID := uuid.New().String()

	reply := &Reply{Text: resp.Message, Suggestions: resp.Suggestions, Metadata: &resp.Metadata}
	for _, c := range resp.Tasks {
		t := c.Task()
		t.ExtractedFrom = userID
		if est, err := a.analytics.EstimateTaskTime(ctx, t); err == nil {
			minutes := est.EstimatedMinutes
			t.EstimatedMinutes = &minutes
		}
		created, err := a.tasks.Create(ctx, t)
		if err != nil {
			a.logger.Warn("create extracted task", zap.String("title", t.Title), zap.Error(err))
			continue
		}
		reply.Tasks = append(reply.Tasks, *created)
	}

	switch resp.Metadata.Intent {
	case extract.IntentStatusCheck:
		if report, err := a.StatusReport(ctx); err == nil {
			reply.Text += " " + report
		}
	case extract.IntentTaskQuery:
		if out, err := a.executor.Execute(ctx, command.Command{Type: command.TypeShowAgenda, Action: "show"}); err == nil {
			reply.Text += " " + out.Message
		}
	}

	_, err = a.convs.Append(ctx, conv.ID,
		conversation.Message{ID: userID, Role: conversation.RoleUser, Content: text},
		conversation.Message{
			Role:           conversation.RoleAssistant,
			Content:        reply.Text,
			ExtractedTasks: taskIDs(reply.Tasks),
			Metadata:       &resp.Metadata,
		})
	if err != nil {
		return nil, err
	}

	a.notifier.Speak(reply.Text)
	for _, s := range reply.Suggestions {
		a.notifier.Notify("Suggestion", s, notify.KindSuggestion)
	}
	return reply, nil
}

func (a *Assistant) record(ctx context.Context, text, answer string, ids []string, meta *conversation.Metadata) error {
	conv, err := a.convs.Active(ctx)
	if err != nil {
		return err
	}
	_, err = a.convs.Append(ctx, conv.ID,
		conversation.Message{Role: conversation.RoleUser, Content: text},
		conversation.Message{Role: conversation.RoleAssistant, Content: answer, ExtractedTasks: ids, Metadata: meta})
	return err
}

func taskIDs(tasks []task.Task) []string {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
