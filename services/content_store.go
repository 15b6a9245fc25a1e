package services

import (
	"errors"
	"sort"
	"sync"

	"onusone/models"
)

var ErrContentNotFound = errors.New("content not found")

// ContentStore is the engine's view of tracked content. Reads return copies;
// all mutation goes through Update so that burn sweeps and API writes are
// serialized per store.
type ContentStore interface {
	List() []models.ContentItem
	ListBoard(board string) []models.ContentItem
	Get(id string) (models.ContentItem, error)
	Put(item models.ContentItem)
	Update(id string, fn func(*models.ContentItem) error) (models.ContentItem, error)
}

// MemoryContentStore is the default in-process store. The hosting network
// can swap in its own implementation behind the ContentStore interface.
type MemoryContentStore struct {
	mu    sync.RWMutex
	items map[string]*models.ContentItem
}

func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{
		items: make(map[string]*models.ContentItem),
	}
}

func (s *MemoryContentStore) List() []models.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryContentStore) ListBoard(board string) []models.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ContentItem
	for _, item := range s.items {
		if item.Board == board {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryContentStore) Get(id string) (models.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return models.ContentItem{}, ErrContentNotFound
	}
	return *item, nil
}

func (s *MemoryContentStore) Put(item models.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := item
	s.items[item.ID] = &copied
}

// Update applies fn to the stored item under the store lock. If fn returns
// an error the item is left unchanged.
func (s *MemoryContentStore) Update(id string, fn func(*models.ContentItem) error) (models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return models.ContentItem{}, ErrContentNotFound
	}

	scratch := *item
	scratch.BurnHistory = append([]models.BurnRecord(nil), item.BurnHistory...)
	if err := fn(&scratch); err != nil {
		return models.ContentItem{}, err
	}
	s.items[id] = &scratch
	return scratch, nil
}
