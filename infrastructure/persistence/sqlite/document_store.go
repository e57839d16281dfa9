// Package sqlite stores documents in a single SQLite table, one row per
// document with the node list as a JSON array.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mindboard/application/dto"
	"mindboard/application/ports"
	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
	pkgerrors "mindboard/pkg/errors"
)

//go:embed schema.sql
var schema string

// timeLayout has a fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DocumentStore handles database operations
type DocumentStore struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the database at dbPath and applies the schema
func New(dbPath string) (*DocumentStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// :memory: databases live per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DocumentStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

var _ ports.DocumentStore = (*DocumentStore)(nil)

// Close closes the database connection
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

// Load retrieves a document by id
func (s *DocumentStore) Load(ctx context.Context, id string) (*aggregates.Document, error) {
	var (
		title, authorID, nodesJSON string
		createdAt, updatedAt       string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT title, author_id, nodes_json, created_at, updated_at FROM documents WHERE id = ?",
		id,
	).Scan(&title, &authorID, &nodesJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewNotFound(fmt.Sprintf("document %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	nodes, err := dto.UnmarshalNodes([]byte(nodesJSON))
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}

	created, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return aggregates.ReconstructDocument(id, title, authorID, nodes, created, updated)
}

// Save replaces the node list of an existing document
func (s *DocumentStore) Save(ctx context.Context, id string, nodes []entities.Node) error {
	data, err := dto.MarshalNodes(nodes)
	if err != nil {
		return fmt.Errorf("encode nodes: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET nodes_json = ?, node_count = ?, updated_at = ? WHERE id = ?",
		string(data), len(nodes), formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireRow(res, id)
}

// Create inserts a new document
func (s *DocumentStore) Create(ctx context.Context, doc *aggregates.Document) error {
	nodes := doc.Nodes()
	data, err := dto.MarshalNodes(nodes)
	if err != nil {
		return fmt.Errorf("encode nodes: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (id, title, author_id, nodes_json, node_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		doc.ID().String(), doc.Title(), doc.AuthorID(), string(data), len(nodes),
		formatTime(doc.CreatedAt()), formatTime(doc.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// List returns summaries, most recently updated first
func (s *DocumentStore) List(ctx context.Context) ([]ports.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, author_id, node_count, updated_at FROM documents ORDER BY updated_at DESC, id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	summaries := make([]ports.DocumentSummary, 0)
	for rows.Next() {
		var (
			sum     ports.DocumentSummary
			updated string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.AuthorID, &sum.NodeCount, &updated); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if sum.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return summaries, nil
}

// Delete removes a document
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return pkgerrors.NewNotFound(fmt.Sprintf("document %s not found", id))
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
