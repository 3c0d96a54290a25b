package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"imagegen-backend/internal/models"
)

const historyColumns = `id, uuid, create_date, model, image_name, prompt, width, height,
	negative_prompt, n_images, num_steps, resolution, sampler_name, scale,
	image_data_url, provider, response_format, seed, kontext_max_mode, favorite,
	user_id, project_uuid`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (models.HistoryEntry, error) {
	var e models.HistoryEntry
	err := row.Scan(
		&e.ID, &e.UUID, &e.CreateDate, &e.Model, &e.ImageName, &e.Prompt, &e.Width, &e.Height,
		&e.NegativePrompt, &e.NImages, &e.NumSteps, &e.Resolution, &e.SamplerName, &e.Scale,
		&e.ImageDataURL, &e.Provider, &e.ResponseFormat, &e.Seed, &e.KontextMaxMode, &e.Favorite,
		&e.UserID, &e.ProjectUUID,
	)
	return e, err
}

func (c *Client) CreateHistory(ctx context.Context, e *models.HistoryEntry) error {
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO history (
			uuid, create_date, model, image_name, prompt, width, height,
			negative_prompt, n_images, num_steps, resolution, sampler_name, scale,
			image_data_url, provider, response_format, seed, kontext_max_mode, favorite,
			user_id, project_uuid
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id
	`,
		e.UUID, e.CreateDate, e.Model, e.ImageName, e.Prompt, e.Width, e.Height,
		e.NegativePrompt, e.NImages, e.NumSteps, e.Resolution, e.SamplerName, e.Scale,
		e.ImageDataURL, e.Provider, e.ResponseFormat, e.Seed, e.KontextMaxMode, e.Favorite,
		e.UserID, e.ProjectUUID,
	).Scan(&e.ID)
	return mapError(err, "create history entry")
}

func historyWhere(f models.HistoryFilter) (string, []any) {
	clauses := []string{"project_uuid = $1", "user_id = $2"}
	args := []any{f.ProjectUUID, f.UserID}
	if f.FavoritesOnly {
		clauses = append(clauses, "favorite = TRUE")
	}
	return strings.Join(clauses, " AND "), args
}

func (c *Client) ListHistory(ctx context.Context, f models.HistoryFilter) ([]models.HistoryEntry, error) {
	where, args := historyWhere(f)
	query := fmt.Sprintf(`
		SELECT %s FROM history
		WHERE %s
		ORDER BY create_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, historyColumns, where, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (c *Client) CountHistory(ctx context.Context, f models.HistoryFilter) (int, error) {
	where, args := historyWhere(f)
	var total int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history WHERE "+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return total, nil
}

func (c *Client) GetHistory(ctx context.Context, entryUUID string, userID int64) (*models.HistoryEntry, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM history WHERE uuid = $1 AND user_id = $2",
		entryUUID, userID,
	)
	e, err := scanHistory(row)
	if err != nil {
		return nil, mapError(err, "get history entry")
	}
	return &e, nil
}

func (c *Client) GetHistoryByUUIDs(ctx context.Context, uuids []string, userID int64) ([]models.HistoryEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+historyColumns+" FROM history WHERE uuid = ANY($1) AND user_id = $2",
		pq.Array(uuids), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get history entries: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (c *Client) GetHistoryByImageName(ctx context.Context, imageName string, userID int64) (*models.HistoryEntry, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+historyColumns+" FROM history WHERE image_name = $1 AND user_id = $2 ORDER BY id DESC LIMIT 1",
		imageName, userID,
	)
	e, err := scanHistory(row)
	if err != nil {
		return nil, mapError(err, "get history entry by image name")
	}
	return &e, nil
}

func (c *Client) ListImageNames(ctx context.Context, projectUUID string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT image_name FROM history WHERE project_uuid = $1", projectUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list image names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan image name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (c *Client) SetFavorite(ctx context.Context, entryUUID string, userID int64, favorite bool) error {
	res, err := c.db.ExecContext(ctx,
		"UPDATE history SET favorite = $1 WHERE uuid = $2 AND user_id = $3",
		favorite, entryUUID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}
	return expectOne(res, "update favorite")
}

func (c *Client) UpdateHistoryLocation(ctx context.Context, entryUUID string, userID int64, projectUUID, imageName string) error {
	res, err := c.db.ExecContext(ctx,
		"UPDATE history SET project_uuid = $1, image_name = $2 WHERE uuid = $3 AND user_id = $4",
		projectUUID, imageName, entryUUID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update history location: %w", err)
	}
	return expectOne(res, "update history location")
}

func (c *Client) DeleteHistory(ctx context.Context, entryUUID string, userID int64) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM history WHERE uuid = $1 AND user_id = $2", entryUUID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return expectOne(res, "delete history entry")
}

func (c *Client) DeleteProjectHistory(ctx context.Context, projectUUID string, userID int64) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM history WHERE project_uuid = $1 AND user_id = $2", projectUUID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project history: %w", err)
	}
	return nil
}
