// Package memory provides an in-process DocumentStore for tests and the
// default CLI driver.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mindboard/application/ports"
	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
	pkgerrors "mindboard/pkg/errors"
)

type document struct {
	title     string
	authorID  string
	nodes     []entities.Node
	createdAt time.Time
	updatedAt time.Time
}

// DocumentStore keeps documents in a map. Every read and write copies the
// node list so callers never share a backing array with the store.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*document
	now  func() time.Time
}

// NewDocumentStore creates an empty store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]*document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.DocumentStore = (*DocumentStore)(nil)

// Load returns a copy of the stored document
func (s *DocumentStore) Load(ctx context.Context, id string) (*aggregates.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("document %s not found", id))
	}
	return aggregates.ReconstructDocument(id, d.title, d.authorID, d.nodes, d.createdAt, d.updatedAt)
}

// Save replaces the node list of an existing document
func (s *DocumentStore) Save(ctx context.Context, id string, nodes []entities.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.docs[id]
	if !ok {
		return pkgerrors.NewNotFound(fmt.Sprintf("document %s not found", id))
	}
	d.nodes = entities.CloneNodes(nodes)
	d.updatedAt = s.now()
	return nil
}

// Create stores a new document; an existing id is a validation error
func (s *DocumentStore) Create(ctx context.Context, doc *aggregates.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := doc.ID().String()
	if _, exists := s.docs[id]; exists {
		return pkgerrors.NewValidation(fmt.Sprintf("document %s already exists", id))
	}
	s.docs[id] = &document{
		title:     doc.Title(),
		authorID:  doc.AuthorID(),
		nodes:     doc.Nodes(),
		createdAt: doc.CreatedAt(),
		updatedAt: doc.UpdatedAt(),
	}
	return nil
}

// List returns summaries, most recently updated first
func (s *DocumentStore) List(ctx context.Context) ([]ports.DocumentSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	summaries := make([]ports.DocumentSummary, 0, len(s.docs))
	for id, d := range s.docs {
		summaries = append(summaries, ports.DocumentSummary{
			ID:        id,
			Title:     d.title,
			AuthorID:  d.authorID,
			NodeCount: len(d.nodes),
			UpdatedAt: d.updatedAt,
		})
	}
	s.mu.RUnlock()

	ports.SortSummaries(summaries)
	return summaries, nil
}

// Delete removes a document
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return pkgerrors.NewNotFound(fmt.Sprintf("document %s not found", id))
	}
	delete(s.docs, id)
	return nil
}
