package services_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"imagegen-backend/internal/database"
	"imagegen-backend/internal/locks"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/provider"
	"imagegen-backend/internal/services"
	"imagegen-backend/internal/storage"
)

const testUser int64 = 7

type fixture struct {
	db       *database.MemoryClient
	store    *storage.LocalStore
	calls    *atomic.Int32
	upstream *httptest.Server
	gen      *services.GenerationService
	history  *services.HistoryService
	projects *services.ProjectService
}

// newFixture wires the services against an in-memory repository, a local
// store under t.TempDir and an upstream that always answers with response.
func newFixture(t *testing.T, status int, response string) *fixture {
	t.Helper()
	f := &fixture{calls: &atomic.Int32{}}
	f.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(f.upstream.Close)

	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "generated"))
	require.NoError(t, err)
	f.store = store
	f.db = database.NewMemoryClient()

	client := provider.NewClient(f.upstream.URL, "test-key", 5*time.Second)
	f.gen = services.NewGenerationService(client, f.store, f.db, f.db)
	f.history = services.NewHistoryService(f.db, f.db, f.store, locks.NoopLocker{})
	f.projects = services.NewProjectService(f.db, f.db, f.store)
	return f
}

func (f *fixture) project(t *testing.T, userID int64, projectUUID string) {
	t.Helper()
	ctx := context.Background()
	groupUUID := "group-" + projectUUID
	require.NoError(t, f.db.CreateGroup(ctx, &models.ProjectGroup{UUID: groupUUID, Name: "G", UserID: userID}))
	require.NoError(t, f.db.CreateProject(ctx, &models.Project{UUID: projectUUID, Name: projectUUID, UserID: userID, GroupUUID: groupUUID}))
}

// entry inserts a history row and, when withFile is set, its artifact.
func (f *fixture) entry(t *testing.T, userID int64, projectUUID, imageName string, created time.Time, withFile bool) models.HistoryEntry {
	t.Helper()
	ctx := context.Background()
	e := models.HistoryEntry{
		UUID:        uuid.NewString(),
		CreateDate:  created,
		Model:       "m",
		Prompt:      "p",
		ImageName:   imageName,
		Width:       64,
		Height:      64,
		UserID:      userID,
		ProjectUUID: projectUUID,
	}
	require.NoError(t, f.db.CreateHistory(ctx, &e))
	if withFile {
		require.NoError(t, f.store.Write(ctx, projectUUID, imageName, []byte(imageName)))
	}
	return e
}

func (f *fixture) files(t *testing.T, projectUUID string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.store.Root(), projectUUID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func kindOf(err error) services.Kind {
	return services.KindOf(err)
}

func ptr[T any](v T) *T {
	return &v
}
