// Package storage defines the keyed-collection persistence contract the task
// manager core reads and writes through, plus SQLite and in-memory adapters.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection names a persisted collection.
type Collection string

const (
	CollectionTasks         Collection = "tasks"
	CollectionConversations Collection = "conversations"
	CollectionProjects      Collection = "projects"
	CollectionAnalytics     Collection = "analytics"
	CollectionPreferences   Collection = "preferences"
	CollectionTemplates     Collection = "templates"
)

// Adapter loads and saves whole collections as JSON documents. A collection
// that was never saved loads as nil data and no error.
type Adapter interface {
	// Load returns the raw JSON payload last saved under c.
	Load(ctx context.Context, c Collection) ([]byte, error)

	// Save replaces the payload stored under c.
	Save(ctx context.Context, c Collection, data []byte) error
}

// LoadAll decodes the collection c into a slice of T.
func LoadAll[T any](ctx context.Context, a Adapter, c Collection) ([]T, error) {
	data, err := a.Load(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c, err)
	}
	return items, nil
}

// SaveAll encodes items and stores them as collection c.
func SaveAll[T any](ctx context.Context, a Adapter, c Collection, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	if err := a.Save(ctx, c, data); err != nil {
		return fmt.Errorf("save %s: %w", c, err)
	}
	return nil
}

// LoadOne decodes a single-document collection (e.g. preferences) into v.
// It reports false when nothing has been saved yet.
func LoadOne(ctx context.Context, a Adapter, c Collection, v any) (bool, error) {
	data, err := a.Load(ctx, c)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", c, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", c, err)
	}
	return true, nil
}

// SaveOne stores v as a single-document collection.
func SaveOne(ctx context.Context, a Adapter, c Collection, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	if err := a.Save(ctx, c, data); err != nil {
		return fmt.Errorf("save %s: %w", c, err)
	}
	return nil
}
