package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"imagegen-backend/internal/database"
	"imagegen-backend/internal/handlers"
	"imagegen-backend/internal/locks"
	"imagegen-backend/internal/models"
	"imagegen-backend/internal/provider"
	"imagegen-backend/internal/services"
	"imagegen-backend/internal/storage"
)

const (
	jwtSecret       = "handlers-test-secret"
	alice     int64 = 1
	bob       int64 = 2
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}

type server struct {
	router *gin.Engine
	db     *database.MemoryClient
	store  *storage.LocalStore
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"` + base64.StdEncoding.EncodeToString(pngBytes) + `"}]}`))
	}))
	t.Cleanup(upstream.Close)

	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "generated"))
	require.NoError(t, err)
	db := database.NewMemoryClient()

	client := provider.NewClient(upstream.URL, "test-key", 5*time.Second)
	router := handlers.NewRouter(handlers.RouterDeps{
		JWTSecret:  jwtSecret,
		DB:         db,
		Generation: services.NewGenerationService(client, store, db, db),
		History:    services.NewHistoryService(db, db, store, locks.NoopLocker{}),
		Projects:   services.NewProjectService(db, db, store),
		Snippets:   services.NewSnippetService(db),
	})
	return &server{router: router, db: db, store: store}
}

func token(t *testing.T, userID int64) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

// do sends body (marshalled to JSON when non-nil) as userID. A zero
// userID sends no credentials.
func (s *server) do(t *testing.T, userID int64, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) project(t *testing.T, userID int64, projectUUID string) {
	t.Helper()
	ctx := context.Background()
	groupUUID := "group-" + projectUUID
	require.NoError(t, s.db.CreateGroup(ctx, &models.ProjectGroup{UUID: groupUUID, Name: "G", UserID: userID}))
	require.NoError(t, s.db.CreateProject(ctx, &models.Project{UUID: projectUUID, Name: projectUUID, UserID: userID, GroupUUID: groupUUID}))
}

func (s *server) entry(t *testing.T, userID int64, projectUUID, imageName string, created time.Time) models.HistoryEntry {
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
	require.NoError(t, s.db.CreateHistory(ctx, &e))
	require.NoError(t, s.store.Write(ctx, projectUUID, imageName, pngBytes))
	return e
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
