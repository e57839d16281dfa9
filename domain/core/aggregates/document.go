package aggregates

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"mindboard/domain/config"
	"mindboard/domain/core/entities"
	"mindboard/domain/core/valueobjects"
	pkgerrors "mindboard/pkg/errors"
)

// DocumentID represents a unique document identifier
type DocumentID string

// NewDocumentID creates a new random DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// String returns the string representation
func (id DocumentID) String() string {
	return string(id)
}

// Document wraps a title, an author reference and the ordered node list.
// Node order is insertion order and doubles as z-order: later nodes draw on top.
type Document struct {
	id        DocumentID
	title     string
	authorID  string
	nodes     []entities.Node
	createdAt time.Time
	updatedAt time.Time
}

// NewDocument creates an empty document
func NewDocument(title, authorID string) (*Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.NewValidation("document title required")
	}

	now := time.Now().UTC()
	return &Document{
		id:        NewDocumentID(),
		title:     title,
		authorID:  authorID,
		nodes:     []entities.Node{},
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructDocument recreates a document from stored data
func ReconstructDocument(
	id string,
	title string,
	authorID string,
	nodes []entities.Node,
	createdAt time.Time,
	updatedAt time.Time,
) (*Document, error) {
	if id == "" {
		return nil, pkgerrors.NewValidation("required fields missing for document reconstruction")
	}

	return &Document{
		id:        DocumentID(id),
		title:     title,
		authorID:  authorID,
		nodes:     entities.CloneNodes(nodes),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// SeedRoot gives an empty document its central root node at the origin.
// Documents that already hold nodes are left alone.
func (d *Document) SeedRoot(cfg *config.DomainConfig) {
	if len(d.nodes) > 0 {
		return
	}
	root := entities.NewDefaultNode(entities.RootBody{}, valueobjects.Point{}, cfg)
	d.nodes = append(d.nodes, root.WithID(valueobjects.NewNodeID()))
	d.updatedAt = time.Now().UTC()
}

// ID returns the document's unique identifier
func (d *Document) ID() DocumentID {
	return d.id
}

// Title returns the document's title
func (d *Document) Title() string {
	return d.title
}

// AuthorID returns the author reference
func (d *Document) AuthorID() string {
	return d.authorID
}

// Nodes returns a copy of the node list in z-order
func (d *Document) Nodes() []entities.Node {
	return entities.CloneNodes(d.nodes)
}

// CreatedAt returns when the document was created
func (d *Document) CreatedAt() time.Time {
	return d.createdAt
}

// UpdatedAt returns when the document was last saved
func (d *Document) UpdatedAt() time.Time {
	return d.updatedAt
}

// ReplaceNodes stores a new node list, as the save path does
func (d *Document) ReplaceNodes(nodes []entities.Node) {
	d.nodes = entities.CloneNodes(nodes)
	d.updatedAt = time.Now().UTC()
}
