package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoCodeAlone/taskvoice/internal/textutil"
	"github.com/GoCodeAlone/taskvoice/storage"
)

const titleLength = 50

// Store persists conversations and the user memory.
type Store struct {
	adapter storage.Adapter
	logger  *zap.Logger
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store's logger.
func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithStoreClock overrides time.Now.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store persisting through a.
func NewStore(a storage.Adapter, opts ...StoreOption) *Store {
	s := &Store{adapter: a, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every conversation, oldest first.
func (s *Store) List(ctx context.Context) ([]Conversation, error) {
	convs, err := storage.LoadAll[Conversation](ctx, s.adapter, storage.CollectionConversations)
	if err != nil {
		s.logger.Error("load conversations", zap.Error(err))
		return nil, err
	}
	return convs, nil
}

// Active returns the active conversation, starting a new one if there is none.
func (s *Store) Active(ctx context.Context) (*Conversation, error) {
	convs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(convs) - 1; i >= 0; i-- {
		if convs[i].IsActive {
			return &convs[i], nil
		}
	}
	now := s.now()
	c := Conversation{
		ID:        uuid.New().String(),
		Title:     "New conversation",
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
	if err := s.save(ctx, append(convs, c)); err != nil {
		return nil, err
	}
	return &c, nil
}

// Append adds msgs to the conversation with the given id, assigning ids and
// timestamps where missing. The first user message becomes the title.
func (s *Store) Append(ctx context.Context, id string, msgs ...Message) (*Conversation, error) {
	convs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].ID != id {
			continue
		}
		c := &convs[i]
		now := s.now()
		for _, m := range msgs {
			if m.ID == "" {
				m.ID = uuid.New().String()
			}
			if m.Timestamp.IsZero() {
				m.Timestamp = now
			}
			if c.Title == "New conversation" && m.Role == RoleUser {
				c.Title = title(m.Content)
			}
			c.Messages = append(c.Messages, m)
		}
		c.UpdatedAt = now
		if err := s.save(ctx, convs); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("conversation %s: not found", id)
}

// Archive marks the active conversation inactive so the next call to Active
// starts a fresh one.
func (s *Store) Archive(ctx context.Context) error {
	convs, err := s.List(ctx)
	if err != nil {
		return err
	}
	changed := false
	for i := range convs {
		if convs[i].IsActive {
			convs[i].IsActive = false
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(ctx, convs)
}

// Memory loads the user memory; a missing document yields the zero value.
func (s *Store) Memory(ctx context.Context) (UserMemory, error) {
	var m UserMemory
	if _, err := storage.LoadOne(ctx, s.adapter, storage.CollectionPreferences, &m); err != nil {
		s.logger.Error("load user memory", zap.Error(err))
		return UserMemory{}, err
	}
	return m, nil
}

// SaveMemory replaces the stored user memory.
func (s *Store) SaveMemory(ctx context.Context, m UserMemory) error {
	if err := storage.SaveOne(ctx, s.adapter, storage.CollectionPreferences, m); err != nil {
		s.logger.Error("save user memory", zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) save(ctx context.Context, convs []Conversation) error {
	if err := storage.SaveAll(ctx, s.adapter, storage.CollectionConversations, convs); err != nil {
		s.logger.Error("save conversations", zap.Int("count", len(convs)), zap.Error(err))
		return err
	}
	return nil
}

func title(content string) string {
	t := textutil.CollapseSpace(content)
	if r := []rune(t); len(r) > titleLength {
		t = string(r[:titleLength]) + "..."
	}
	return t
}
