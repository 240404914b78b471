package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"taskchat-backend/internal/model"
	"taskchat-backend/internal/storage"
	"taskchat-backend/pkg/logger"

	"github.com/google/uuid"
)

const TodosKey = "todos"

// TodoStore owns an ordered todo list, newest first. Every mutation that
// changes the list writes the whole list to the storage slot before the
// lock is released, then runs the after-change hooks.
type TodoStore struct {
	mu      sync.Mutex
	items   []model.TodoItem
	storage storage.Storage
	newID   func() string
	hooks   []func(ctx context.Context, items []model.TodoItem)
}

type TodoOption func(*TodoStore)

func WithIDGenerator(fn func() string) TodoOption {
	return func(s *TodoStore) {
		s.newID = fn
	}
}

// WithAfterChange runs fn after the slot write of every effective mutation.
// fn gets its own copy of the list and runs outside the store's lock, so it
// may call back into the store.
func WithAfterChange(fn func(ctx context.Context, items []model.TodoItem)) TodoOption {
	return func(s *TodoStore) {
		s.hooks = append(s.hooks, fn)
	}
}

// NewTodoStore hydrates the list from the slot. A missing or unreadable
// slot yields an empty list.
func NewTodoStore(ctx context.Context, store storage.Storage, opts ...TodoOption) *TodoStore {
	s := &TodoStore{
		storage: store,
		newID:   newTodoID,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.items = s.hydrate(ctx)
	return s
}

func newTodoID() string {
	// v7 ids sort by creation time
	return uuid.Must(uuid.NewV7()).String()
}

func (s *TodoStore) hydrate(ctx context.Context) []model.TodoItem {
	raw, err := s.storage.Get(ctx, TodosKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			logger.Warnf("Error loading todos: %v", err)
		}
		return []model.TodoItem{}
	}

	var items []model.TodoItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warnf("Error parsing stored todos, starting empty: %v", err)
		return []model.TodoItem{}
	}
	if items == nil {
		items = []model.TodoItem{}
	}

	logger.Debugf("Loaded %d todos", len(items))
	return items
}

func (s *TodoStore) persist(ctx context.Context, items []model.TodoItem) {
	data, err := json.Marshal(items)
	if err != nil {
		logger.Errorf("Error encoding todos: %v", err)
		return
	}

	if err := s.storage.Set(ctx, TodosKey, string(data)); err != nil {
		logger.Errorf("Error saving todos: %v", err)
	}
}

// Add prepends a new open item. Blank text is ignored and reports false.
func (s *TodoStore) Add(ctx context.Context, text string) (model.TodoItem, bool) {
	if strings.TrimSpace(text) == "" {
		return model.TodoItem{}, false
	}

	s.mu.Lock()
	item := model.TodoItem{
		ID:        s.newID(),
		Text:      text,
		Completed: false,
	}
	s.items = addTodo(s.items, item)
	s.persist(ctx, s.items)
	snapshot := cloneItems(s.items)
	s.mu.Unlock()

	s.runHooks(ctx, snapshot)
	return item, true
}

func (s *TodoStore) Toggle(ctx context.Context, id string) bool {
	s.mu.Lock()
	items, found := toggleTodo(s.items, id)
	if !found {
		s.mu.Unlock()
		return false
	}
	s.items = items
	s.persist(ctx, s.items)
	snapshot := cloneItems(s.items)
	s.mu.Unlock()

	s.runHooks(ctx, snapshot)
	return true
}

func (s *TodoStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	items, found := deleteTodo(s.items, id)
	if !found {
		s.mu.Unlock()
		return false
	}
	s.items = items
	s.persist(ctx, s.items)
	snapshot := cloneItems(s.items)
	s.mu.Unlock()

	s.runHooks(ctx, snapshot)
	return true
}

func (s *TodoStore) Items() []model.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneItems(s.items)
}

func (s *TodoStore) runHooks(ctx context.Context, items []model.TodoItem) {
	for _, hook := range s.hooks {
		hook(ctx, cloneItems(items))
	}
}

func cloneItems(items []model.TodoItem) []model.TodoItem {
	out := make([]model.TodoItem, len(items))
	copy(out, items)
	return out
}

func (s *TodoStore) Stats() model.TodoStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return todoStats(s.items)
}

func addTodo(items []model.TodoItem, item model.TodoItem) []model.TodoItem {
	out := make([]model.TodoItem, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

func toggleTodo(items []model.TodoItem, id string) ([]model.TodoItem, bool) {
	out := make([]model.TodoItem, len(items))
	copy(out, items)

	for i := range out {
		if out[i].ID == id {
			out[i].Completed = !out[i].Completed
			return out, true
		}
	}
	return items, false
}

func deleteTodo(items []model.TodoItem, id string) ([]model.TodoItem, bool) {
	out := make([]model.TodoItem, 0, len(items))
	found := false

	for _, item := range items {
		if item.ID == id {
			found = true
			continue
		}
		out = append(out, item)
	}
	if !found {
		return items, false
	}
	return out, true
}

func todoStats(items []model.TodoItem) model.TodoStats {
	stats := model.TodoStats{Total: len(items)}
	for _, item := range items {
		if item.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	return stats
}
