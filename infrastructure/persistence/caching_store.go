package persistence

import (
	"context"
	"sync"
	"time"

	"mindboard/application/ports"
	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
)

type cacheItem struct {
	doc       *aggregates.Document
	expiresAt time.Time
}

// CachingStore keeps loaded documents for a TTL. Writes through it update or
// evict the cached copy; writes made behind its back are seen after the TTL.
type CachingStore struct {
	inner ports.DocumentStore
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	items map[string]cacheItem
}

// NewCachingStore wraps inner with a read cache
func NewCachingStore(inner ports.DocumentStore, ttl time.Duration) *CachingStore {
	return &CachingStore{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheItem),
	}
}

var _ ports.DocumentStore = (*CachingStore)(nil)

// Load serves from cache when fresh
func (s *CachingStore) Load(ctx context.Context, id string) (*aggregates.Document, error) {
	if doc, ok := s.get(id); ok {
		return doc, nil
	}

	doc, err := s.inner.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(id, doc)
	return copyDocument(doc)
}

// Save writes through and refreshes the cached node list
func (s *CachingStore) Save(ctx context.Context, id string, nodes []entities.Node) error {
	if err := s.inner.Save(ctx, id, nodes); err != nil {
		s.evict(id)
		return err
	}

	s.mu.Lock()
	if item, ok := s.items[id]; ok {
		item.doc.ReplaceNodes(nodes)
	}
	s.mu.Unlock()
	return nil
}

// Create writes through
func (s *CachingStore) Create(ctx context.Context, doc *aggregates.Document) error {
	return s.inner.Create(ctx, doc)
}

// List always goes to the inner store
func (s *CachingStore) List(ctx context.Context) ([]ports.DocumentSummary, error) {
	return s.inner.List(ctx)
}

// Delete writes through and evicts
func (s *CachingStore) Delete(ctx context.Context, id string) error {
	s.evict(id)
	return s.inner.Delete(ctx, id)
}

func (s *CachingStore) get(id string) (*aggregates.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok || s.now().After(item.expiresAt) {
		return nil, false
	}
	doc, err := copyDocument(item.doc)
	if err != nil {
		return nil, false
	}
	return doc, true
}

func (s *CachingStore) set(id string, doc *aggregates.Document) {
	kept, err := copyDocument(doc)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, key)
		}
	}
	s.items[id] = cacheItem{doc: kept, expiresAt: now.Add(s.ttl)}
}

func (s *CachingStore) evict(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func copyDocument(doc *aggregates.Document) (*aggregates.Document, error) {
	return aggregates.ReconstructDocument(
		doc.ID().String(), doc.Title(), doc.AuthorID(), doc.Nodes(), doc.CreatedAt(), doc.UpdatedAt(),
	)
}
