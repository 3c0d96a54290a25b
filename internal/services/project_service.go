package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"imagegen-backend/internal/database"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/storage"
)

const DefaultGroupName = "Default"

type ProjectService struct {
	projects ProjectRepository
	history  HistoryRepository
	store    storage.Store
}

func NewProjectService(projects ProjectRepository, history HistoryRepository, store storage.Store) *ProjectService {
	return &ProjectService{
		projects: projects,
		history:  history,
		store:    store,
	}
}

func (s *ProjectService) ListProjects(ctx context.Context, userID int64) ([]models.Project, error) {
	projects, err := s.projects.ListProjects(ctx, userID)
	if err != nil {
		return nil, internal("Failed to list projects", err)
	}
	return projects, nil
}

// ProjectSummary is a project together with its most recent artifact.
type ProjectSummary struct {
	models.Project
	LastImageName string
	LastCreatedAt time.Time
}

type GroupSummary struct {
	Group    models.ProjectGroup
	Projects []ProjectSummary
}

// Summaries lists every group with its projects and their latest image.
func (s *ProjectService) Summaries(ctx context.Context, userID int64) ([]GroupSummary, error) {
	groups, err := s.projects.ListGroups(ctx, userID)
	if err != nil {
		return nil, internal("Failed to list project summaries", err)
	}
	projects, err := s.projects.ListProjects(ctx, userID)
	if err != nil {
		return nil, internal("Failed to list project summaries", err)
	}

	byGroup := make(map[string][]ProjectSummary, len(groups))
	for _, p := range projects {
		summary := ProjectSummary{Project: p}
		latest, err := s.history.ListHistory(ctx, models.HistoryFilter{ProjectUUID: p.UUID, UserID: userID, Limit: 1})
		if err != nil {
			return nil, internal("Failed to list project summaries", err)
		}
		if len(latest) > 0 {
			summary.LastImageName = latest[0].ImageName
			summary.LastCreatedAt = latest[0].CreateDate
		}
		byGroup[p.GroupUUID] = append(byGroup[p.GroupUUID], summary)
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupSummary{Group: g, Projects: byGroup[g.UUID]})
	}
	return out, nil
}

func (s *ProjectService) GetProject(ctx context.Context, userID int64, projectUUID string) (*models.Project, error) {
	p, err := s.projects.GetProject(ctx, projectUUID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Project not found")
		}
		return nil, internal("Failed to fetch project", err)
	}
	return p, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, userID int64, req models.CreateProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation("Name is required")
	}
	groupUUID := strings.TrimSpace(req.GroupUUID)
	if groupUUID == "" {
		return nil, validation("Group is required")
	}
	group, err := s.projects.GetGroup(ctx, groupUUID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, validation("Group not found")
		}
		return nil, internal("Failed to create project", err)
	}

	projectUUID := strings.TrimSpace(req.UUID)
	if projectUUID == "" {
		projectUUID = uuid.NewString()
	}
	if !storage.ValidName(projectUUID) {
		return nil, validation("Invalid project uuid")
	}

	p := &models.Project{
		UUID:      projectUUID,
		Name:      name,
		UserID:    userID,
		GroupUUID: group.UUID,
		GroupName: group.Name,
	}
	if err := s.projects.CreateProject(ctx, p); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, conflict("Project already exists", err)
		}
		return nil, internal("Failed to create project", err)
	}
	return p, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, userID int64, projectUUID string, req models.UpdateProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation("Name is required")
	}

	p, err := s.projects.GetProject(ctx, projectUUID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Project not found")
		}
		return nil, internal("Failed to update project", err)
	}
	p.Name = name

	if groupUUID := strings.TrimSpace(req.GroupUUID); groupUUID != "" {
		group, err := s.projects.GetGroup(ctx, groupUUID, userID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, notFound("Group not found")
			}
			return nil, internal("Failed to update project", err)
		}
		p.GroupUUID = group.UUID
		p.GroupName = group.Name
	}

	if err := s.projects.UpdateProject(ctx, p); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Project not found")
		}
		return nil, internal("Failed to update project", err)
	}
	return p, nil
}

// DeleteProject removes the project's history, the project and finally its
// artifacts. Artifact removal failures are logged, not returned.
func (s *ProjectService) DeleteProject(ctx context.Context, userID int64, projectUUID string) error {
	if _, err := s.projects.GetProject(ctx, projectUUID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("Project not found")
		}
		return internal("Failed to delete project", err)
	}

	if err := s.history.DeleteProjectHistory(ctx, projectUUID, userID); err != nil {
		return internal("Failed to delete project", err)
	}
	if err := s.projects.DeleteProject(ctx, projectUUID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("Project not found")
		}
		return internal("Failed to delete project", err)
	}

	if err := s.store.RemoveProject(ctx, projectUUID); err != nil {
		slog.Warn("failed to remove project artifacts", "project_uuid", projectUUID, "error", err)
	}
	return nil
}

// ListGroups returns the caller's groups, creating the default group on
// first use.
func (s *ProjectService) ListGroups(ctx context.Context, userID int64) ([]models.ProjectGroup, error) {
	groups, err := s.projects.ListGroups(ctx, userID)
	if err != nil {
		return nil, internal("Failed to list project groups", err)
	}
	if len(groups) > 0 {
		return groups, nil
	}

	g, err := s.ensureDefaultGroup(ctx, userID)
	if err != nil {
		return nil, internal("Failed to list project groups", err)
	}
	return []models.ProjectGroup{*g}, nil
}

func (s *ProjectService) ensureDefaultGroup(ctx context.Context, userID int64) (*models.ProjectGroup, error) {
	g, err := s.projects.FindGroupByName(ctx, DefaultGroupName, userID)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	g = &models.ProjectGroup{
		UUID:   uuid.NewString(),
		Name:   DefaultGroupName,
		UserID: userID,
	}
	if err := s.projects.CreateGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// GroupProjects buckets the caller's projects by group uuid.
func (s *ProjectService) GroupProjects(ctx context.Context, userID int64) (map[string][]models.Project, error) {
	projects, err := s.projects.ListProjects(ctx, userID)
	if err != nil {
		return nil, internal("Failed to list project groups", err)
	}
	out := make(map[string][]models.Project)
	for _, p := range projects {
		out[p.GroupUUID] = append(out[p.GroupUUID], p)
	}
	return out, nil
}

func (s *ProjectService) CreateGroup(ctx context.Context, userID int64, req models.ProjectGroupRequest) (*models.ProjectGroup, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, validation("Name is required")
	}
	g := &models.ProjectGroup{
		UUID:   uuid.NewString(),
		Name:   strings.TrimSpace(*req.Name),
		UserID: userID,
	}
	if req.SortOrder != nil {
		g.SortOrder = *req.SortOrder
	}
	if err := s.projects.CreateGroup(ctx, g); err != nil {
		return nil, internal("Failed to create project group", err)
	}
	return g, nil
}

func (s *ProjectService) UpdateGroup(ctx context.Context, userID int64, groupUUID string, req models.ProjectGroupRequest) (*models.ProjectGroup, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, validation("Name cannot be empty")
	}

	g, err := s.projects.GetGroup(ctx, groupUUID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Project group not found")
		}
		return nil, internal("Failed to update project group", err)
	}
	if req.Name == nil && req.SortOrder == nil {
		return g, nil
	}

	if req.Name != nil {
		g.Name = strings.TrimSpace(*req.Name)
	}
	if req.SortOrder != nil {
		g.SortOrder = *req.SortOrder
	}
	if err := s.projects.UpdateGroup(ctx, g); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Project group not found")
		}
		return nil, internal("Failed to update project group", err)
	}
	return g, nil
}

func (s *ProjectService) DeleteGroup(ctx context.Context, userID int64, groupUUID string) error {
	if _, err := s.projects.GetGroup(ctx, groupUUID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("Project group not found")
		}
		return internal("Failed to delete project group", err)
	}

	n, err := s.projects.CountProjectsInGroup(ctx, groupUUID, userID)
	if err != nil {
		return internal("Failed to delete project group", err)
	}
	if n > 0 {
		return validation("Cannot delete non-empty project group")
	}

	if err := s.projects.DeleteGroup(ctx, groupUUID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("Project group not found")
		}
		return internal("Failed to delete project group", err)
	}
	return nil
}
