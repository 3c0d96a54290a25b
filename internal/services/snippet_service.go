package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"imagegen-backend/internal/database"
	"imagegen-backend/internal/models"
)

type SnippetService struct {
	snippets SnippetRepository
}

func NewSnippetService(snippets SnippetRepository) *SnippetService {
	return &SnippetService{snippets: snippets}
}

// SearchPattern trims q and strips the LIKE wildcards and escape character
// so the search is always a plain substring match.
func SearchPattern(q string) string {
	return strings.TrimSpace(strings.NewReplacer("%", "", "_", "", `\`, "").Replace(q))
}

func (s *SnippetService) List(ctx context.Context, userID int64, q string) ([]models.Snippet, error) {
	snippets, err := s.snippets.ListSnippets(ctx, userID, SearchPattern(q))
	if err != nil {
		return nil, internal("Failed to list snippets", err)
	}
	return snippets, nil
}

func (s *SnippetService) Create(ctx context.Context, userID int64, req models.CreateSnippetRequest) (*models.Snippet, error) {
	body := strings.TrimSpace(req.Snippet)
	if body == "" {
		return nil, validation("Snippet content is required")
	}

	snippet := &models.Snippet{
		UUID:      uuid.NewString(),
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		snippet.Title = sql.NullString{String: title, Valid: true}
	}
	if err := s.snippets.CreateSnippet(ctx, snippet); err != nil {
		return nil, internal("Failed to create snippet", err)
	}
	return snippet, nil
}

func (s *SnippetService) Delete(ctx context.Context, userID int64, snippetUUID string) error {
	if err := s.snippets.DeleteSnippet(ctx, strings.TrimSpace(snippetUUID), userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("Snippet not found")
		}
		return internal("Failed to delete snippet", err)
	}
	return nil
}
