// Package notify provides the fire-and-forget voice and notification output
// the assistant uses for completion celebrations, suggestions and reminders.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind classifies an event.
type Kind string

const (
	KindSpeech     Kind = "speech"     // text to be read aloud
	KindInfo       Kind = "info"
	KindSuccess    Kind = "success"    // completion celebrations
	KindReminder   Kind = "reminder"   // due-soon tasks
	KindSuggestion Kind = "suggestion" // follow-ups offered by the assistant
)

// Event is one speak or notify call.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler receives delivered events. Errors are logged, never returned to the
// caller of Speak or Notify.
type Handler func(ctx context.Context, ev *Event) error

// Service fans events out to subscribed handlers asynchronously and keeps a
// bounded history. Events are delivered one at a time in publish order. It is
// safe for concurrent use.
type Service struct {
	mu       sync.RWMutex
	handlers []handlerEntry
	history  []*Event
	maxHist  int
	nextID   int
	closed   bool
	speech   bool
	queue    []delivery
	draining bool

	wg     sync.WaitGroup
	logger *zap.Logger
	now    func() time.Time
}

type handlerEntry struct {
	id      int
	handler Handler
}

// delivery is a queued event with the handlers subscribed when it was published.
type delivery struct {
	ev      *Event
	targets []Handler
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for handler failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithHistory caps the number of retained events.
func WithHistory(n int) Option {
	return func(s *Service) { s.maxHist = n }
}

// WithSpeech enables or disables Speak. Notify is unaffected.
func WithSpeech(enabled bool) Option {
	return func(s *Service) { s.speech = enabled }
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service with speech enabled and a 200-event history cap.
func NewService(opts ...Option) *Service {
	s := &Service{
		maxHist: 200,
		speech:  true,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak queues text to be read aloud.
func (s *Service) Speak(text string) {
	if !s.speech || text == "" {
		return
	}
	s.publish(&Event{Kind: KindSpeech, Body: text})
}

// Notify queues a visual notification.
func (s *Service) Notify(title, body string, kind Kind) {
	if kind == "" {
		kind = KindInfo
	}
	s.publish(&Event{Kind: kind, Title: title, Body: body})
}

func (s *Service) publish(ev *Event) {
	ev.ID = uuid.New().String()
	ev.Timestamp = s.now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("event dropped after close", zap.String("kind", string(ev.Kind)))
		return
	}
	s.history = append(s.history, ev)
	if len(s.history) > s.maxHist {
		s.history = s.history[len(s.history)-s.maxHist:]
	}
	targets := make([]Handler, 0, len(s.handlers))
	for _, e := range s.handlers {
		targets = append(targets, e.handler)
	}
	s.wg.Add(1)
	s.queue = append(s.queue, delivery{ev: ev, targets: targets})
	start := !s.draining
	s.draining = true
	s.mu.Unlock()

	if start {
		go s.drain()
	}
}

// drain delivers queued events in order and exits once the queue is empty.
// At most one drain runs at a time.
func (s *Service) drain() {
	ctx := context.Background()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		d := s.queue[0]
		s.queue[0] = delivery{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		for _, h := range d.targets {
			if err := h(ctx, d.ev); err != nil {
				s.logger.Warn("notification handler failed",
					zap.String("kind", string(d.ev.Kind)),
					zap.String("event", d.ev.ID),
					zap.Error(err))
			}
		}
		s.wg.Done()
	}
}

// Subscribe registers h for every future event. The returned function
// unsubscribes it.
func (s *Service) Subscribe(h Handler) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, handlerEntry{id: id, handler: h})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		filtered := s.handlers[:0]
		for _, e := range s.handlers {
			if e.id != id {
				filtered = append(filtered, e)
			}
		}
		s.handlers = filtered
	}
}

// History returns up to limit most recent events in chronological order. A
// limit of zero returns everything retained.
func (s *Service) History(limit int) []*Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.history) > limit {
		start = len(s.history) - limit
	}
	out := make([]*Event, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

// Wait blocks until every event published so far has been delivered.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close stops accepting events and waits for queued events to be delivered.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// WriterSink returns a Handler printing events as single lines to w.
func WriterSink(w io.Writer) Handler {
	var mu sync.Mutex
	return func(_ context.Context, ev *Event) error {
		mu.Lock()
		defer mu.Unlock()
		var err error
		switch {
		case ev.Kind == KindSpeech:
			_, err = fmt.Fprintf(w, "say: %s\n", ev.Body)
		case ev.Title != "":
			_, err = fmt.Fprintf(w, "[%s] %s: %s\n", ev.Kind, ev.Title, ev.Body)
		default:
			_, err = fmt.Fprintf(w, "[%s] %s\n", ev.Kind, ev.Body)
		}
		return err
	}
}
