package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mzurek/zakupy/internal/models"
)

// MemoryStore is an in-memory implementation of the user and item
// stores with the same semantics as PostgresStore. Used by tests and
// usable as a throwaway dev backend.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by id
	items map[string]*memoryItem  // keyed by id
	seq   int64
}

type memoryItem struct {
	models.Item
	seq int64 // insertion order, breaks added_at ties
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.User),
		items: make(map[string]*memoryItem),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, username, hashedPassword string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, ErrUsernameTaken
		}
	}
	u := &models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Password:  hashedPassword,
		CreatedAt: time.Now(),
	}
	s.users[u.ID] = u
	out := *u
	out.Password = ""
	return &out, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	out.Password = ""
	return &out, nil
}

func (s *MemoryStore) ListItems(_ context.Context, userID string) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []*memoryItem
	for _, it := range s.items {
		if it.UserID == userID {
			owned = append(owned, it)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].Completed != owned[j].Completed {
			return !owned[i].Completed
		}
		return owned[i].seq > owned[j].seq
	})
	items := []models.Item{}
	for _, it := range owned {
		items = append(items, it.Item)
	}
	return items, nil
}

func (s *MemoryStore) AddItem(_ context.Context, userID string, req models.AddItemRequest) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.insertLocked(userID, req)
	out := it.Item
	return &out, nil
}

func (s *MemoryStore) insertLocked(userID string, req models.AddItemRequest) *memoryItem {
	now := time.Now()
	s.seq++
	it := &memoryItem{
		Item: models.Item{
			ID:          uuid.New().String(),
			UserID:      userID,
			Text:        req.Text,
			Quantity:    req.Quantity,
			Unit:        req.Unit,
			Description: req.Description,
			Completed:   req.Completed,
			AddedAt:     now,
			UpdatedAt:   now,
		},
		seq: s.seq,
	}
	if req.Completed {
		t := now
		it.CompletedAt = &t
	}
	s.items[it.ID] = it
	return it
}

func (s *MemoryStore) UpdateItem(_ context.Context, userID, itemID string, patch models.ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok || it.UserID != userID {
		return ErrNotFound
	}
	if patch.Text != nil {
		it.Text = *patch.Text
	}
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		it.Unit = *patch.Unit
	}
	if patch.Description != nil {
		it.Description = *patch.Description
	}
	if patch.Completed != nil {
		it.Completed = *patch.Completed
		if *patch.Completed {
			t := time.Now()
			it.CompletedAt = &t
		} else {
			it.CompletedAt = nil
		}
	}
	it.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeleteItem(_ context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok || it.UserID != userID {
		return ErrNotFound
	}
	delete(s.items, itemID)
	return nil
}

func (s *MemoryStore) DeleteChecked(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, it := range s.items {
		if it.UserID == userID && it.Completed {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, it := range s.items {
		if it.UserID == userID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ReplaceItems(_ context.Context, userID string, items []models.AddItemRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if it.UserID == userID {
			delete(s.items, id)
		}
	}
	for _, req := range items {
		s.insertLocked(userID, req)
	}
	return nil
}
