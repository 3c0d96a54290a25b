package database

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"imagegen-backend/internal/models"
)

// MemoryClient keeps all records in process. It enforces the same uniqueness
// and reference rules as the Postgres schema.
type MemoryClient struct {
	mu      sync.RWMutex
	nextID  int64
	history map[string]models.HistoryEntry
	project map[string]models.Project
	groups  map[string]models.ProjectGroup
	snippet map[string]models.Snippet
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		history: make(map[string]models.HistoryEntry),
		project: make(map[string]models.Project),
		groups:  make(map[string]models.ProjectGroup),
		snippet: make(map[string]models.Snippet),
	}
}

func (m *MemoryClient) Ping(context.Context) error {
	return nil
}

func (m *MemoryClient) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryClient) CreateHistory(_ context.Context, e *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.history[e.UUID]; ok {
		return fmt.Errorf("create history entry: %w", ErrConflict)
	}
	if _, ok := m.project[e.ProjectUUID]; !ok {
		return fmt.Errorf("failed to create history entry: unknown project %s", e.ProjectUUID)
	}
	e.ID = m.id()
	m.history[e.UUID] = *e
	return nil
}

func (m *MemoryClient) filterHistory(f models.HistoryFilter) []models.HistoryEntry {
	var out []models.HistoryEntry
	for _, e := range m.history {
		if e.ProjectUUID != f.ProjectUUID || e.UserID != f.UserID {
			continue
		}
		if f.FavoritesOnly && !e.Favorite {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.HistoryEntry) int {
		if c := b.CreateDate.Compare(a.CreateDate); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (m *MemoryClient) ListHistory(_ context.Context, f models.HistoryFilter) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.filterHistory(f)
	if f.Offset >= len(all) {
		return []models.HistoryEntry{}, nil
	}
	end := len(all)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return slices.Clone(all[f.Offset:end]), nil
}

func (m *MemoryClient) CountHistory(_ context.Context, f models.HistoryFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.filterHistory(f)), nil
}

func (m *MemoryClient) GetHistory(_ context.Context, entryUUID string, userID int64) (*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.history[entryUUID]
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *MemoryClient) GetHistoryByUUIDs(_ context.Context, uuids []string, userID int64) ([]models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.HistoryEntry
	for _, id := range uuids {
		if e, ok := m.history[id]; ok && e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryClient) GetHistoryByImageName(_ context.Context, imageName string, userID int64) (*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *models.HistoryEntry
	for _, e := range m.history {
		if e.ImageName != imageName || e.UserID != userID {
			continue
		}
		if found == nil || e.ID > found.ID {
			found = &e
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (m *MemoryClient) ListImageNames(_ context.Context, projectUUID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for _, e := range m.history {
		if e.ProjectUUID == projectUUID {
			names = append(names, e.ImageName)
		}
	}
	return names, nil
}

func (m *MemoryClient) SetFavorite(_ context.Context, entryUUID string, userID int64, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.history[entryUUID]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	e.Favorite = favorite
	m.history[entryUUID] = e
	return nil
}

func (m *MemoryClient) UpdateHistoryLocation(_ context.Context, entryUUID string, userID int64, projectUUID, imageName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.history[entryUUID]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	if _, ok := m.project[projectUUID]; !ok {
		return fmt.Errorf("failed to update history location: unknown project %s", projectUUID)
	}
	e.ProjectUUID = projectUUID
	e.ImageName = imageName
	m.history[entryUUID] = e
	return nil
}

func (m *MemoryClient) DeleteHistory(_ context.Context, entryUUID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.history[entryUUID]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(m.history, entryUUID)
	return nil
}

func (m *MemoryClient) DeleteProjectHistory(_ context.Context, projectUUID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.history {
		if e.ProjectUUID == projectUUID && e.UserID == userID {
			delete(m.history, id)
		}
	}
	return nil
}

func (m *MemoryClient) withGroupName(p models.Project) models.Project {
	if g, ok := m.groups[p.GroupUUID]; ok {
		p.GroupName = g.Name
	}
	return p
}

func (m *MemoryClient) ListProjects(_ context.Context, userID int64) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	projects := []models.Project{}
	for _, p := range m.project {
		if p.UserID == userID {
			projects = append(projects, m.withGroupName(p))
		}
	}
	slices.SortFunc(projects, func(a, b models.Project) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return projects, nil
}

func (m *MemoryClient) GetProject(_ context.Context, projectUUID string, userID int64) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.project[projectUUID]
	if !ok || p.UserID != userID {
		return nil, ErrNotFound
	}
	p = m.withGroupName(p)
	return &p, nil
}

func (m *MemoryClient) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.project[p.UUID]; ok {
		return fmt.Errorf("create project: %w", ErrConflict)
	}
	if _, ok := m.groups[p.GroupUUID]; !ok {
		return fmt.Errorf("failed to create project: unknown group %s", p.GroupUUID)
	}
	p.ID = m.id()
	stored := *p
	stored.GroupName = ""
	m.project[p.UUID] = stored
	return nil
}

func (m *MemoryClient) UpdateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.project[p.UUID]
	if !ok || cur.UserID != p.UserID {
		return ErrNotFound
	}
	if _, ok := m.groups[p.GroupUUID]; !ok {
		return fmt.Errorf("failed to update project: unknown group %s", p.GroupUUID)
	}
	cur.Name = p.Name
	cur.GroupUUID = p.GroupUUID
	m.project[p.UUID] = cur
	return nil
}

func (m *MemoryClient) DeleteProject(_ context.Context, projectUUID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.project[projectUUID]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(m.project, projectUUID)
	for id, e := range m.history {
		if e.ProjectUUID == projectUUID {
			delete(m.history, id)
		}
	}
	return nil
}

func (m *MemoryClient) CountProjectsInGroup(_ context.Context, groupUUID string, userID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.project {
		if p.GroupUUID == groupUUID && p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryClient) ListGroups(_ context.Context, userID int64) ([]models.ProjectGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	groups := []models.ProjectGroup{}
	for _, g := range m.groups {
		if g.UserID == userID {
			groups = append(groups, g)
		}
	}
	slices.SortFunc(groups, func(a, b models.ProjectGroup) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return groups, nil
}

func (m *MemoryClient) GetGroup(_ context.Context, groupUUID string, userID int64) (*models.ProjectGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[groupUUID]
	if !ok || g.UserID != userID {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (m *MemoryClient) FindGroupByName(_ context.Context, name string, userID int64) (*models.ProjectGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *models.ProjectGroup
	for _, g := range m.groups {
		if g.Name != name || g.UserID != userID {
			continue
		}
		if found == nil || g.ID < found.ID {
			found = &g
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (m *MemoryClient) CreateGroup(_ context.Context, g *models.ProjectGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[g.UUID]; ok {
		return fmt.Errorf("create project group: %w", ErrConflict)
	}
	g.ID = m.id()
	m.groups[g.UUID] = *g
	return nil
}

func (m *MemoryClient) UpdateGroup(_ context.Context, g *models.ProjectGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.groups[g.UUID]
	if !ok || cur.UserID != g.UserID {
		return ErrNotFound
	}
	cur.Name = g.Name
	cur.SortOrder = g.SortOrder
	m.groups[g.UUID] = cur
	return nil
}

func (m *MemoryClient) DeleteGroup(_ context.Context, groupUUID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupUUID]
	if !ok || g.UserID != userID {
		return ErrNotFound
	}
	for _, p := range m.project {
		if p.GroupUUID == groupUUID {
			return fmt.Errorf("failed to delete project group: group %s still has projects", groupUUID)
		}
	}
	delete(m.groups, groupUUID)
	return nil
}

func (m *MemoryClient) ListSnippets(_ context.Context, userID int64, pattern string) ([]models.Snippet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pattern = strings.ToLower(pattern)
	snippets := []models.Snippet{}
	for _, s := range m.snippet {
		if s.UserID != userID {
			continue
		}
		if pattern != "" &&
			!strings.Contains(strings.ToLower(s.Title.String), pattern) &&
			!strings.Contains(strings.ToLower(s.Body), pattern) {
			continue
		}
		snippets = append(snippets, s)
	}
	slices.SortFunc(snippets, func(a, b models.Snippet) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return snippets, nil
}

func (m *MemoryClient) CreateSnippet(_ context.Context, s *models.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snippet[s.UUID]; ok {
		return fmt.Errorf("create snippet: %w", ErrConflict)
	}
	s.ID = m.id()
	m.snippet[s.UUID] = *s
	return nil
}

func (m *MemoryClient) DeleteSnippet(_ context.Context, snippetUUID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snippet[snippetUUID]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	delete(m.snippet, snippetUUID)
	return nil
}
