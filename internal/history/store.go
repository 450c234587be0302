package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

const DefaultMaxItems = 100

type StoreOptions struct {
	Slot Slot
	// MaxItems keeps only the most recent items. Zero disables the cap.
	MaxItems int
}

// Store is the in-memory history list backed by a Slot. Every mutation
// rewrites the whole slot before it becomes visible.
type Store struct {
	slot     Slot
	maxItems int

	mu    sync.RWMutex
	items []Item
}

func NewStore(opts StoreOptions) *Store {
	return &Store{
		slot:     opts.Slot,
		maxItems: opts.MaxItems,
		items:    []Item{},
	}
}

// Load replaces the in-memory list with the slot contents. A payload that
// does not decode as a list is discarded and the store starts empty.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.slot.Read(ctx)
	if err != nil {
		return err
	}

	items := []Item{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			slog.Warn("Discarding corrupt history", "slot", s.slot.Name(), "error", err)
			items = []Item{}
		}
	}
	if items == nil {
		items = []Item{}
	}

	s.mu.Lock()
	s.items = s.trim(items)
	s.mu.Unlock()

	slog.Debug("History loaded", "slot", s.slot.Name(), "items", len(items))
	return nil
}

func (s *Store) Append(ctx context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Item, 0, len(s.items)+1)
	next = append(next, item)
	next = append(next, s.items...)

	return s.commit(ctx, s.trim(next))
}

// Remove deletes the item with id. It reports whether anything was removed;
// an unknown id leaves the slot untouched.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != id {
			next = append(next, item)
		}
	}
	if len(next) == len(s.items) {
		return false, nil
	}

	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, []Item{})
}

// List returns a copy of the items, newest first.
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Item, len(s.items))
	copy(result, s.items)
	return result
}

func (s *Store) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// commit persists next and only then swaps it in. Callers hold mu.
func (s *Store) commit(ctx context.Context, next []Item) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.slot.Write(ctx, data); err != nil {
		return err
	}

	s.items = next
	return nil
}

func (s *Store) trim(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
	if s.maxItems > 0 && len(items) > s.maxItems {
		items = items[:s.maxItems]
	}
	return items
}
