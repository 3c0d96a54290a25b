package database

import (
	"context"
	"fmt"

	"imagegen-backend/internal/models"
)

func scanSnippet(row rowScanner) (models.Snippet, error) {
	var s models.Snippet
	err := row.Scan(&s.ID, &s.UUID, &s.UserID, &s.Title, &s.Body, &s.CreatedAt)
	return s, err
}

// ListSnippets returns the caller's snippets, newest first. A non-empty
// pattern is matched case-insensitively against title and body.
func (c *Client) ListSnippets(ctx context.Context, userID int64, pattern string) ([]models.Snippet, error) {
	query := "SELECT id, uuid, user_id, title, snippet, created_at FROM snippets WHERE user_id = $1"
	args := []any{userID}
	if pattern != "" {
		query += " AND (title ILIKE $2 OR snippet ILIKE $2)"
		args = append(args, "%"+pattern+"%")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snippets: %w", err)
	}
	defer rows.Close()

	snippets := []models.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		snippets = append(snippets, s)
	}
	return snippets, rows.Err()
}

func (c *Client) CreateSnippet(ctx context.Context, s *models.Snippet) error {
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO snippets (uuid, user_id, title, snippet, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.UUID, s.UserID, s.Title, s.Body, s.CreatedAt).Scan(&s.ID)
	return mapError(err, "create snippet")
}

func (c *Client) DeleteSnippet(ctx context.Context, snippetUUID string, userID int64) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM snippets WHERE uuid = $1 AND user_id = $2", snippetUUID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete snippet: %w", err)
	}
	return expectOne(res, "delete snippet")
}
