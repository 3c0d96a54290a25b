package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"imagegen-backend/internal/database"
	"imagegen-backend/internal/locks"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/storage"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// HistoryQuery carries the raw query-string values of a history listing.
type HistoryQuery struct {
	ProjectUUID string
	Page        string
	PageSize    string
	Favorite    string
}

type HistoryService struct {
	history  HistoryRepository
	projects ProjectRepository
	store    storage.Store
	locker   locks.Locker
}

func NewHistoryService(history HistoryRepository, projects ProjectRepository, store storage.Store, locker locks.Locker) *HistoryService {
	if locker == nil {
		locker = locks.NoopLocker{}
	}
	return &HistoryService{
		history:  history,
		projects: projects,
		store:    store,
		locker:   locker,
	}
}

// NormalizePage returns the 1-based page number; anything unparsable or
// below one becomes 1.
func NormalizePage(raw string) int {
	n, ok := parseNumber(raw)
	if !ok || n == 0 {
		return 1
	}
	return max(1, n)
}

// NormalizePageSize defaults to DefaultPageSize and clamps to [1, MaxPageSize].
func NormalizePageSize(raw string) int {
	n, ok := parseNumber(raw)
	if !ok || n == 0 {
		n = DefaultPageSize
	}
	return max(1, min(MaxPageSize, n))
}

// ParseFavorite accepts "true" and "1", case-insensitively.
func ParseFavorite(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	return v == "true" || v == "1"
}

func parseNumber(raw string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt32 {
		f = math.MaxInt32
	} else if f < math.MinInt32 {
		f = math.MinInt32
	}
	return int(f), true
}

func (s *HistoryService) filter(userID int64, q HistoryQuery) (models.HistoryFilter, int, int, error) {
	projectUUID := strings.TrimSpace(q.ProjectUUID)
	if projectUUID == "" {
		return models.HistoryFilter{}, 0, 0, validation("project_uuid is required")
	}
	page := NormalizePage(q.Page)
	pageSize := NormalizePageSize(q.PageSize)
	return models.HistoryFilter{
		ProjectUUID:   projectUUID,
		UserID:        userID,
		FavoritesOnly: ParseFavorite(q.Favorite),
		Limit:         pageSize,
		Offset:        (page - 1) * pageSize,
	}, page, pageSize, nil
}

func (s *HistoryService) List(ctx context.Context, userID int64, q HistoryQuery) ([]models.HistoryEntry, error) {
	f, _, _, err := s.filter(userID, q)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListHistory(ctx, f)
	if err != nil {
		return nil, internal("Failed to load history", err)
	}
	return entries, nil
}

func (s *HistoryService) Meta(ctx context.Context, userID int64, q HistoryQuery) (*models.HistoryMetaResponse, error) {
	f, page, pageSize, err := s.filter(userID, q)
	if err != nil {
		return nil, err
	}
	total, err := s.history.CountHistory(ctx, f)
	if err != nil {
		return nil, internal("Failed to load history meta", err)
	}
	return &models.HistoryMetaResponse{Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *HistoryService) SetFavorite(ctx context.Context, userID int64, entryUUID string, favorite *bool) (bool, error) {
	entryUUID = strings.TrimSpace(entryUUID)
	if entryUUID == "" {
		return false, validation("uuid is required")
	}
	if favorite == nil {
		return false, validation("favorite is required (boolean)")
	}
	if err := s.history.SetFavorite(ctx, entryUUID, userID, *favorite); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, notFound("History entry not found")
		}
		return false, internal("Failed to update favorite flag", err)
	}
	return *favorite, nil
}

// Move reassigns entries to targetProjectUUID and relocates their artifacts.
// Every id must resolve before anything is changed.
func (s *HistoryService) Move(ctx context.Context, userID int64, entryUUIDs []string, targetProjectUUID string) (int, error) {
	if len(entryUUIDs) == 0 {
		return 0, validation("entryUuids must be a non-empty array")
	}
	target := strings.TrimSpace(targetProjectUUID)
	if target == "" {
		return 0, validation("targetProjectUuid is required")
	}
	ids := normalizeIDs(entryUUIDs)
	if len(ids) == 0 {
		return 0, validation("entryUuids must contain valid ids")
	}

	if _, err := s.projects.GetProject(ctx, target, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, notFound("Target project not found")
		}
		return 0, internal("Failed to move history entries", err)
	}

	lockKeys := make([]string, len(ids))
	for i, id := range ids {
		lockKeys[i] = locks.HistoryKey(id)
	}
	release, err := s.locker.Acquire(ctx, lockKeys...)
	if err != nil {
		if errors.Is(err, locks.ErrLocked) {
			return 0, conflict("History entries are being modified, try again", err)
		}
		return 0, internal("Failed to move history entries", err)
	}
	defer release()

	entries, err := s.history.GetHistoryByUUIDs(ctx, ids, userID)
	if err != nil {
		return 0, internal("Failed to move history entries", err)
	}
	if len(entries) != len(ids) {
		found := make(map[string]bool, len(entries))
		for _, e := range entries {
			found[e.UUID] = true
		}
		var missing []string
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return 0, &Error{
			Kind:    KindNotFound,
			Message: "Entries not found: " + strings.Join(missing, ", "),
			Missing: missing,
		}
	}

	taken, err := s.takenNames(ctx, target)
	if err != nil {
		return 0, internal("Failed to move history entries", err)
	}

	moved := 0
	for _, entry := range entries {
		name := entry.ImageName
		relocated := false
		if entry.ProjectUUID != target {
			name, relocated, err = s.relocate(ctx, entry, target, taken)
			if err != nil {
				return moved, internal("Failed to move history entries", err)
			}
		}
		if err := s.history.UpdateHistoryLocation(ctx, entry.UUID, userID, target, name); err != nil {
			if relocated {
				s.restore(ctx, entry, target, name)
			}
			return moved, internal("Failed to move history entries", err)
		}
		taken[name] = true
		moved++
	}

	slog.Info("history entries moved", "user_id", userID, "target_project_uuid", target, "moved", moved)
	return moved, nil
}

// relocate moves one artifact into target and returns its name there and
// whether a file was actually moved. A missing source keeps the original name.
func (s *HistoryService) relocate(ctx context.Context, entry models.HistoryEntry, target string, taken map[string]bool) (string, bool, error) {
	exists, err := s.store.Exists(ctx, entry.ProjectUUID, entry.ImageName)
	if err != nil {
		return "", false, err
	}
	if !exists {
		slog.Warn("source file missing while moving history entry",
			"entry_uuid", entry.UUID,
			"project_uuid", entry.ProjectUUID,
			"image_name", entry.ImageName,
		)
		return entry.ImageName, false, nil
	}

	name, err := s.uniqueName(ctx, target, entry.ImageName, taken)
	if err != nil {
		return "", false, err
	}
	err = s.store.Move(ctx, entry.ProjectUUID, entry.ImageName, target, name)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("source file vanished while moving history entry", "entry_uuid", entry.UUID)
		return entry.ImageName, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// restore puts an artifact back where its row still points after the row
// update failed. A failure is logged since the row and file now disagree.
func (s *HistoryService) restore(ctx context.Context, entry models.HistoryEntry, target, name string) {
	if err := s.store.Move(ctx, target, name, entry.ProjectUUID, entry.ImageName); err != nil {
		slog.Error("artifact left at destination after failed history update",
			"entry_uuid", entry.UUID,
			"row_location", entry.ProjectUUID+"/"+entry.ImageName,
			"file_location", target+"/"+name,
			"error", err,
		)
	}
}

// uniqueName picks name, or base-1.ext, base-2.ext and so on, whichever is
// first free in the destination project.
func (s *HistoryService) uniqueName(ctx context.Context, projectUUID, name string, taken map[string]bool) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 1; ; n++ {
		if !taken[candidate] {
			exists, err := s.store.Exists(ctx, projectUUID, candidate)
			if err != nil {
				return "", err
			}
			if !exists {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
}

func (s *HistoryService) takenNames(ctx context.Context, projectUUID string) (map[string]bool, error) {
	names, err := s.history.ListImageNames(ctx, projectUUID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	return taken, nil
}

func normalizeIDs(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Delete removes the entry's artifact best-effort, then the entry itself.
func (s *HistoryService) Delete(ctx context.Context, userID int64, entryUUID string) error {
	entryUUID = strings.TrimSpace(entryUUID)
	if entryUUID == "" {
		return validation("uuid is required")
	}

	release, err := s.locker.Acquire(ctx, locks.HistoryKey(entryUUID))
	if err != nil {
		if errors.Is(err, locks.ErrLocked) {
			return conflict("History entry is being modified, try again", err)
		}
		return internal("Failed to delete history entry", err)
	}
	defer release()

	entry, err := s.history.GetHistory(ctx, entryUUID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("History entry not found")
		}
		return internal("Failed to delete history entry", err)
	}

	if entry.ImageName != "" {
		err := s.store.Remove(ctx, entry.ProjectUUID, entry.ImageName)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to delete image file", "entry_uuid", entry.UUID, "image_name", entry.ImageName, "error", err)
		}
	}

	if err := s.history.DeleteHistory(ctx, entryUUID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("History entry not found")
		}
		return internal("Failed to delete history entry", err)
	}
	return nil
}

// Artifact is an open artifact ready to be streamed.
type Artifact struct {
	Body        io.ReadCloser
	ContentType string
}

// OpenArtifact resolves fileName through the caller's history rows. The
// store is never consulted for names the caller does not own.
func (s *HistoryService) OpenArtifact(ctx context.Context, userID int64, fileName string) (*Artifact, error) {
	if fileName == "" || strings.Contains(fileName, "..") || strings.ContainsAny(fileName, `/\`) {
		return nil, validation("Invalid file name")
	}

	entry, err := s.history.GetHistoryByImageName(ctx, fileName, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("File not found")
		}
		return nil, internal("Failed to serve file", err)
	}

	body, err := s.store.Open(ctx, entry.ProjectUUID, fileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return nil, notFound("File not found")
		}
		return nil, internal("Failed to serve file", err)
	}
	return &Artifact{Body: body, ContentType: storage.ContentTypeForName(fileName)}, nil
}
