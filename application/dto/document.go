package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
	"mindboard/domain/core/valueobjects"
	"mindboard/pkg/utils"
)

// PointRecord is the wire shape of a position
type PointRecord struct {
	X float64 `json:"x" dynamodbav:"x"`
	Y float64 `json:"y" dynamodbav:"y"`
}

// SizeRecord is the wire shape of a size
type SizeRecord struct {
	Width  float64 `json:"width" dynamodbav:"width" validate:"gt=0"`
	Height float64 `json:"height" dynamodbav:"height" validate:"gt=0"`
}

// NodeRecord is the stored form of a node
type NodeRecord struct {
	ID        string      `json:"id" dynamodbav:"id" validate:"required"`
	Kind      string      `json:"kind" dynamodbav:"kind" validate:"required,oneof=root node note text shape sticker comment"`
	Label     string      `json:"label" dynamodbav:"label"`
	Position  PointRecord `json:"position" dynamodbav:"position"`
	Size      SizeRecord  `json:"size" dynamodbav:"size"`
	ParentID  *string     `json:"parentId" dynamodbav:"parentId,omitempty"`
	ShapeKind string      `json:"shapeKind,omitempty" dynamodbav:"shapeKind,omitempty" validate:"omitempty,oneof=rectangle circle diamond triangle"`
	Color     string      `json:"color" dynamodbav:"color"`
}

// DocumentRecord is the stored form of a document
type DocumentRecord struct {
	ID        string       `json:"id" validate:"required"`
	Title     string       `json:"title" validate:"required,max=200"`
	AuthorID  string       `json:"authorId"`
	Nodes     []NodeRecord `json:"nodes" validate:"dive"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// FromNode converts a domain node into its record
func FromNode(n entities.Node) NodeRecord {
	pos, size := n.Position(), n.Size()
	rec := NodeRecord{
		ID:       n.ID().String(),
		Kind:     string(n.Kind()),
		Label:    n.Label(),
		Position: PointRecord{X: pos.X, Y: pos.Y},
		Size:     SizeRecord{Width: size.Width, Height: size.Height},
		Color:    n.Color(),
	}
	if n.HasParent() {
		parent := n.ParentID().String()
		rec.ParentID = &parent
	}
	if shape, ok := n.Shape(); ok {
		rec.ShapeKind = string(shape)
	}
	return rec
}

// FromNodes converts a node list, keeping z-order
func FromNodes(nodes []entities.Node) []NodeRecord {
	records := make([]NodeRecord, len(nodes))
	for i, n := range nodes {
		records[i] = FromNode(n)
	}
	return records
}

// ToNode validates a record and converts it into a domain node
func (r NodeRecord) ToNode() (entities.Node, error) {
	if err := utils.ValidateStruct(r); err != nil {
		return entities.Node{}, err
	}

	id, err := valueobjects.NewNodeIDFromString(r.ID)
	if err != nil {
		return entities.Node{}, err
	}
	var parentID valueobjects.NodeID
	if r.ParentID != nil && *r.ParentID != "" {
		if parentID, err = valueobjects.NewNodeIDFromString(*r.ParentID); err != nil {
			return entities.Node{}, err
		}
	}

	body, err := entities.BodyFor(entities.Kind(r.Kind), entities.ShapeKind(r.ShapeKind))
	if err != nil {
		return entities.Node{}, err
	}

	return entities.ReconstructNode(
		id,
		body,
		r.Label,
		valueobjects.Point{X: r.Position.X, Y: r.Position.Y},
		valueobjects.Size{Width: r.Size.Width, Height: r.Size.Height},
		parentID,
		r.Color,
	)
}

// ToNodes converts records into domain nodes, failing on the first bad one
func ToNodes(records []NodeRecord) ([]entities.Node, error) {
	nodes := make([]entities.Node, 0, len(records))
	for i, rec := range records {
		n, err := rec.ToNode()
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// NewDocumentRecord converts a document into its record
func NewDocumentRecord(doc *aggregates.Document) DocumentRecord {
	return DocumentRecord{
		ID:        doc.ID().String(),
		Title:     doc.Title(),
		AuthorID:  doc.AuthorID(),
		Nodes:     FromNodes(doc.Nodes()),
		CreatedAt: doc.CreatedAt(),
		UpdatedAt: doc.UpdatedAt(),
	}
}

// ToDocument validates the record and rebuilds the document
func (r DocumentRecord) ToDocument() (*aggregates.Document, error) {
	if err := utils.ValidateStruct(r); err != nil {
		return nil, err
	}
	nodes, err := ToNodes(r.Nodes)
	if err != nil {
		return nil, err
	}
	return aggregates.ReconstructDocument(r.ID, r.Title, r.AuthorID, nodes, r.CreatedAt, r.UpdatedAt)
}

// MarshalNodes encodes a node list as the JSON array stored by row-based stores
func MarshalNodes(nodes []entities.Node) ([]byte, error) {
	return json.Marshal(FromNodes(nodes))
}

// UnmarshalNodes decodes a JSON node array
func UnmarshalNodes(data []byte) ([]entities.Node, error) {
	var records []NodeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode nodes: %w", err)
	}
	return ToNodes(records)
}
