package ports

import (
	"context"
	"sort"
	"time"

	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
)

// SaveFunc is the editor's persistence callback. It is invoked after every
// committed history entry, undo and redo included, and is fire-and-forget:
// the editor neither waits for it nor observes its outcome.
type SaveFunc func(documentID string, nodes []entities.Node)

// DocumentStore defines the interface for document persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type DocumentStore interface {
	// Load retrieves a document with its node list; NotFound if absent
	Load(ctx context.Context, id string) (*aggregates.Document, error)

	// Save replaces the node list of an existing document
	Save(ctx context.Context, id string, nodes []entities.Node) error

	// Create persists a new document
	Create(ctx context.Context, doc *aggregates.Document) error

	// List returns summaries of every stored document, newest first
	List(ctx context.Context) ([]DocumentSummary, error)

	// Delete removes a document; NotFound if absent
	Delete(ctx context.Context, id string) error
}

// DocumentSummary is a listing row
type DocumentSummary struct {
	ID        string
	Title     string
	AuthorID  string
	NodeCount int
	UpdatedAt time.Time
}

// SortSummaries orders a listing newest first, breaking ties by id
func SortSummaries(summaries []DocumentSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}
