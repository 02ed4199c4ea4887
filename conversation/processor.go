package conversation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GoCodeAlone/taskvoice/extract"
	"github.com/GoCodeAlone/taskvoice/task"
)

// LocalProcessor answers utterances with the pattern extractor and the
// template generator. It needs no network.
type LocalProcessor struct {
	extractor *extract.Extractor
	generator *Generator
	logger    *zap.Logger
}

// LocalOption configures a LocalProcessor.
type LocalOption func(*LocalProcessor)

// WithLocalLogger sets the processor's logger.
func WithLocalLogger(l *zap.Logger) LocalOption {
	return func(p *LocalProcessor) { p.logger = l }
}

// NewLocalProcessor creates a LocalProcessor.
func NewLocalProcessor(e *extract.Extractor, g *Generator, opts ...LocalOption) *LocalProcessor {
	p := &LocalProcessor{extractor: e, generator: g, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessMessage implements Processor.
func (p *LocalProcessor) ProcessMessage(_ context.Context, utterance string, history []Message, memory UserMemory) AIResponse {
	start := time.Now()
	res := p.extractor.Extract(utterance, turns(recent(history, historyWindow)))
	text := p.generator.Generate(utterance, res.Intent, res.Tasks, history, memory)

	p.logger.Debug("processed locally",
		zap.String("intent", string(res.Intent)),
		zap.Int("tasks", len(res.Tasks)),
		zap.Float64("confidence", res.Confidence))

	return AIResponse{
		Message:     text,
		Tasks:       res.Tasks,
		Suggestions: Suggestions(res.Intent, res.Tasks),
		Metadata: Metadata{
			Confidence:     res.Confidence,
			ProcessingTime: time.Since(start),
			Intent:         res.Intent,
			Provider:       "local",
		},
	}
}

// Suggestions proposes follow-ups for freshly extracted tasks.
func Suggestions(intent extract.Intent, tasks []extract.Candidate) []string {
	var out []string
	for _, t := range tasks {
		if t.Priority == task.PriorityUrgent {
			out = append(out, fmt.Sprintf("Start a timer on %q now? It's marked urgent.", t.Title))
			break
		}
	}
	for _, t := range tasks {
		if t.DueDate == nil {
			out = append(out, fmt.Sprintf("Want to set a due date for %q?", t.Title))
			break
		}
	}
	if len(tasks) > 2 {
		out = append(out, "That's a lot at once. Ask me what to work on first.")
	}
	if intent == extract.IntentStatusCheck && len(tasks) == 0 {
		out = append(out, "Ask for your energy windows to see when you work best.")
	}
	return out
}

// FallbackProcessor tries a primary processor and answers with the fallback
// whenever the primary reports an error.
type FallbackProcessor struct {
	primary  Processor
	fallback Processor
	logger   *zap.Logger
}

// NewFallbackProcessor creates a FallbackProcessor.
func NewFallbackProcessor(primary, fallback Processor, logger *zap.Logger) *FallbackProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackProcessor{primary: primary, fallback: fallback, logger: logger}
}

// ProcessMessage implements Processor.
func (p *FallbackProcessor) ProcessMessage(ctx context.Context, utterance string, history []Message, memory UserMemory) AIResponse {
	resp := p.primary.ProcessMessage(ctx, utterance, history, memory)
	if !resp.Degraded() {
		return resp
	}
	p.logger.Warn("remote processing failed, answering locally",
		zap.String("provider", resp.Metadata.Provider),
		zap.String("error", resp.Metadata.Error))
	return p.fallback.ProcessMessage(ctx, utterance, history, memory)
}
