package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, kind, template_path, title, category, design_id, file_url, message, field_values, created_at`

// Create inserts a generated document. Duplicate IDs are ignored.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO generated_documents (
    id,
    user_id,
    kind,
    template_path,
    title,
    category,
    design_id,
    file_url,
    message,
    field_values,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING`

	values, err := json.Marshal(doc.Values)
	if err != nil {
		return fmt.Errorf("encode field values: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.Kind,
		doc.TemplatePath,
		doc.Title,
		nullString(doc.Category),
		nullString(doc.DesignID),
		nullString(doc.FileURL),
		nullString(doc.Message),
		values,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	query := `
SELECT ` + selectColumns + `
FROM generated_documents
WHERE user_id = $1 AND id = $2
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userID, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + selectColumns + `
FROM generated_documents
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (Document, error) {
	var doc Document
	var category, designID, fileURL, message sql.NullString
	var values []byte
	if err := s.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Kind,
		&doc.TemplatePath,
		&doc.Title,
		&category,
		&designID,
		&fileURL,
		&message,
		&values,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.Category = category.String
	doc.DesignID = designID.String
	doc.FileURL = fileURL.String
	doc.Message = message.String
	if len(values) > 0 {
		if err := json.Unmarshal(values, &doc.Values); err != nil {
			return Document{}, fmt.Errorf("decode field values: %w", err)
		}
	}
	return doc, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
