package storage_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegen-backend/internal/storage"
)

const testBucket = "artifacts"

// fakeStorageAPI implements the slice of the Supabase Storage REST API the
// store talks to, keeping objects in memory.
type fakeStorageAPI struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes int
}

func (f *fakeStorageAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	objectPrefix := "/storage/v1/object/" + testBucket + "/"
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/storage/v1/object/list/"+testBucket:
		var body struct {
			Limit  int    `json:"limit"`
			Offset int    `json:"offset"`
			Prefix string `json:"prefix"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		var names []string
		for key := range f.objects {
			if rest, ok := strings.CutPrefix(key, body.Prefix); ok && !strings.Contains(rest, "/") {
				names = append(names, rest)
			}
		}
		slices.Sort(names)
		page := []map[string]string{}
		for i := body.Offset; i < len(names) && i < body.Offset+body.Limit; i++ {
			page = append(page, map[string]string{"name": names[i]})
		}
		_ = json.NewEncoder(w).Encode(page)

	case r.Method == http.MethodDelete && r.URL.Path == "/storage/v1/object/"+testBucket:
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, key := range body.Prefixes {
			delete(f.objects, key)
		}
		f.deletes++
		_, _ = w.Write([]byte(`[]`))

	case strings.HasPrefix(r.URL.Path, objectPrefix):
		key := strings.TrimPrefix(r.URL.Path, objectPrefix)
		switch r.Method {
		case http.MethodPost:
			data, _ := io.ReadAll(r.Body)
			f.objects[key] = data
			_, _ = w.Write([]byte(`{"Key":"` + key + `"}`))
		case http.MethodGet, http.MethodHead:
			data, ok := f.objects[key]
			if !ok {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
				return
			}
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newSupabaseStore(t *testing.T) (*storage.SupabaseStore, *fakeStorageAPI) {
	t.Helper()
	api := &fakeStorageAPI{objects: map[string][]byte{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store, err := storage.NewSupabaseStore(srv.URL, "service-key", testBucket)
	require.NoError(t, err)
	return store, api
}

func TestSupabaseStore_WriteOpenExists(t *testing.T) {
	store, _ := newSupabaseStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "p1", "a.png", []byte("png-bytes")))

	ok, err := store.Exists(ctx, "p1", "a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	body, err := store.Open(ctx, "p1", "a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, []byte("png-bytes"), data)

	ok, err = store.Exists(ctx, "p1", "missing.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Open(ctx, "p1", "missing.png")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Remove(ctx, "p1", "missing.png"), storage.ErrNotFound)
}

func TestSupabaseStore_LargeProject(t *testing.T) {
	store, api := newSupabaseStore(t)
	ctx := context.Background()

	const count = 2500
	for i := 0; i < count; i++ {
		api.objects[fmt.Sprintf("projects/big/img-%04d.png", i)] = []byte{byte(i)}
	}
	api.objects["projects/other/keep.png"] = []byte("keep")

	last := fmt.Sprintf("img-%04d.png", count-1)
	ok, err := store.Exists(ctx, "big", last)
	require.NoError(t, err)
	assert.True(t, ok)

	body, err := store.Open(ctx, "big", last)
	require.NoError(t, err)
	require.NoError(t, body.Close())

	require.NoError(t, store.RemoveProject(ctx, "big"))
	assert.Len(t, api.objects, 1)
	assert.Contains(t, api.objects, "projects/other/keep.png")
	assert.Equal(t, 3, api.deletes)
}
