package services

import (
	"context"

	"imagegen-backend/internal/models"
)

// HistoryRepository is implemented by database.Client and database.MemoryClient.
type HistoryRepository interface {
	CreateHistory(ctx context.Context, e *models.HistoryEntry) error
	ListHistory(ctx context.Context, f models.HistoryFilter) ([]models.HistoryEntry, error)
	CountHistory(ctx context.Context, f models.HistoryFilter) (int, error)
	GetHistory(ctx context.Context, entryUUID string, userID int64) (*models.HistoryEntry, error)
	GetHistoryByUUIDs(ctx context.Context, uuids []string, userID int64) ([]models.HistoryEntry, error)
	GetHistoryByImageName(ctx context.Context, imageName string, userID int64) (*models.HistoryEntry, error)
	ListImageNames(ctx context.Context, projectUUID string) ([]string, error)
	SetFavorite(ctx context.Context, entryUUID string, userID int64, favorite bool) error
	UpdateHistoryLocation(ctx context.Context, entryUUID string, userID int64, projectUUID, imageName string) error
	DeleteHistory(ctx context.Context, entryUUID string, userID int64) error
	DeleteProjectHistory(ctx context.Context, projectUUID string, userID int64) error
}

type ProjectRepository interface {
	ListProjects(ctx context.Context, userID int64) ([]models.Project, error)
	GetProject(ctx context.Context, projectUUID string, userID int64) (*models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) error
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, projectUUID string, userID int64) error
	CountProjectsInGroup(ctx context.Context, groupUUID string, userID int64) (int, error)

	ListGroups(ctx context.Context, userID int64) ([]models.ProjectGroup, error)
	GetGroup(ctx context.Context, groupUUID string, userID int64) (*models.ProjectGroup, error)
	FindGroupByName(ctx context.Context, name string, userID int64) (*models.ProjectGroup, error)
	CreateGroup(ctx context.Context, g *models.ProjectGroup) error
	UpdateGroup(ctx context.Context, g *models.ProjectGroup) error
	DeleteGroup(ctx context.Context, groupUUID string, userID int64) error
}

type SnippetRepository interface {
	ListSnippets(ctx context.Context, userID int64, pattern string) ([]models.Snippet, error)
	CreateSnippet(ctx context.Context, s *models.Snippet) error
	DeleteSnippet(ctx context.Context, snippetUUID string, userID int64) error
}

// Repository is the full persistence surface the server is wired with.
type Repository interface {
	HistoryRepository
	ProjectRepository
	SnippetRepository
	Ping(ctx context.Context) error
}
