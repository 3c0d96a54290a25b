package database

import (
	"context"
	"fmt"

	"imagegen-backend/internal/models"
)

const projectSelect = `
	SELECT p.id, p.uuid, p.name, p.user_id, p.group_uuid, COALESCE(g.name, '')
	FROM projects p
	LEFT JOIN project_groups g ON g.uuid = p.group_uuid
`

func scanProject(row rowScanner) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.UUID, &p.Name, &p.UserID, &p.GroupUUID, &p.GroupName)
	return p, err
}

func (c *Client) ListProjects(ctx context.Context, userID int64) ([]models.Project, error) {
	rows, err := c.db.QueryContext(ctx, projectSelect+" WHERE p.user_id = $1 ORDER BY p.name, p.id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (c *Client) GetProject(ctx context.Context, projectUUID string, userID int64) (*models.Project, error) {
	p, err := scanProject(c.db.QueryRowContext(ctx,
		projectSelect+" WHERE p.uuid = $1 AND p.user_id = $2",
		projectUUID, userID,
	))
	if err != nil {
		return nil, mapError(err, "get project")
	}
	return &p, nil
}

func (c *Client) CreateProject(ctx context.Context, p *models.Project) error {
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO projects (uuid, name, user_id, group_uuid)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.UUID, p.Name, p.UserID, p.GroupUUID).Scan(&p.ID)
	return mapError(err, "create project")
}

func (c *Client) UpdateProject(ctx context.Context, p *models.Project) error {
	res, err := c.db.ExecContext(ctx,
		"UPDATE projects SET name = $1, group_uuid = $2 WHERE uuid = $3 AND user_id = $4",
		p.Name, p.GroupUUID, p.UUID, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return expectOne(res, "update project")
}

func (c *Client) DeleteProject(ctx context.Context, projectUUID string, userID int64) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM projects WHERE uuid = $1 AND user_id = $2", projectUUID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return expectOne(res, "delete project")
}

func (c *Client) CountProjectsInGroup(ctx context.Context, groupUUID string, userID int64) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects WHERE group_uuid = $1 AND user_id = $2",
		groupUUID, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

const groupColumns = "id, uuid, name, user_id, sort_order"

func scanGroup(row rowScanner) (models.ProjectGroup, error) {
	var g models.ProjectGroup
	err := row.Scan(&g.ID, &g.UUID, &g.Name, &g.UserID, &g.SortOrder)
	return g, err
}

func (c *Client) ListGroups(ctx context.Context, userID int64) ([]models.ProjectGroup, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+groupColumns+" FROM project_groups WHERE user_id = $1 ORDER BY sort_order, name, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list project groups: %w", err)
	}
	defer rows.Close()

	groups := []models.ProjectGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (c *Client) GetGroup(ctx context.Context, groupUUID string, userID int64) (*models.ProjectGroup, error) {
	g, err := scanGroup(c.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM project_groups WHERE uuid = $1 AND user_id = $2",
		groupUUID, userID,
	))
	if err != nil {
		return nil, mapError(err, "get project group")
	}
	return &g, nil
}

func (c *Client) FindGroupByName(ctx context.Context, name string, userID int64) (*models.ProjectGroup, error) {
	g, err := scanGroup(c.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM project_groups WHERE name = $1 AND user_id = $2 ORDER BY id LIMIT 1",
		name, userID,
	))
	if err != nil {
		return nil, mapError(err, "find project group")
	}
	return &g, nil
}

func (c *Client) CreateGroup(ctx context.Context, g *models.ProjectGroup) error {
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO project_groups (uuid, name, user_id, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, g.UUID, g.Name, g.UserID, g.SortOrder).Scan(&g.ID)
	return mapError(err, "create project group")
}

func (c *Client) UpdateGroup(ctx context.Context, g *models.ProjectGroup) error {
	res, err := c.db.ExecContext(ctx,
		"UPDATE project_groups SET name = $1, sort_order = $2 WHERE uuid = $3 AND user_id = $4",
		g.Name, g.SortOrder, g.UUID, g.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project group: %w", err)
	}
	return expectOne(res, "update project group")
}

func (c *Client) DeleteGroup(ctx context.Context, groupUUID string, userID int64) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM project_groups WHERE uuid = $1 AND user_id = $2", groupUUID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project group: %w", err)
	}
	return expectOne(res, "delete project group")
}
