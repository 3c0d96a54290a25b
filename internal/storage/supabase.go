package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	supastorage "github.com/supabase-community/storage-go"
)

// SupabaseStore keeps artifacts in a Supabase Storage bucket under
// projects/{project_uuid}/{name}.
type SupabaseStore struct {
	client  *supastorage.Client
	baseURL string
	bucket  string
}

// listPageSize is the page size used when enumerating a project folder.
const listPageSize = 1000

func NewSupabaseStore(supabaseURL, serviceKey, bucket string) (*SupabaseStore, error) {
	baseURL := strings.TrimSuffix(strings.TrimSpace(supabaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("supabase bucket is required")
	}
	storageURL := baseURL + "/storage/v1"
	client := supastorage.NewClient(storageURL, serviceKey, nil)

	return &SupabaseStore{
		client:  client,
		baseURL: storageURL,
		bucket:  bucket,
	}, nil
}

func (s *SupabaseStore) Write(_ context.Context, projectUUID, name string, data []byte) error {
	if err := checkNames(projectUUID, name); err != nil {
		return err
	}
	contentType := ContentTypeForName(name)
	upsert := false
	_, err := s.client.UploadFile(s.bucket, objectKey(projectUUID, name), bytes.NewReader(data), supastorage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload artifact: %w", err)
	}
	return nil
}

// Exists asks for the object itself instead of listing the project folder.
func (s *SupabaseStore) Exists(ctx context.Context, projectUUID, name string) (bool, error) {
	if err := checkNames(projectUUID, name); err != nil {
		return false, err
	}
	resp, err := s.object(ctx, http.MethodHead, projectUUID, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	resp.Body.Close()
	return true, nil
}

// object issues method against the object endpoint. Missing objects map to
// ErrNotFound; the storage API reports them as 404, or 400 with a not_found
// body on older deployments.
func (s *SupabaseStore) object(ctx context.Context, method, projectUUID, name string) (*http.Response, error) {
	objectURL := s.baseURL + "/object/" + s.bucket + "/" + (&url.URL{Path: objectKey(projectUUID, name)}).EscapedPath()
	req, err := s.client.NewRequest(method, objectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage request: %w", err)
	}
	resp, err := s.client.Do(req.WithContext(ctx), nil)
	if err == nil {
		return resp, nil
	}
	if resp != nil {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
			return nil, ErrNotFound
		}
	}
	return nil, fmt.Errorf("storage request failed: %w", err)
}

func (s *SupabaseStore) Move(ctx context.Context, srcProjectUUID, name, dstProjectUUID, dstName string) error {
	if err := checkNames(srcProjectUUID, name, dstProjectUUID, dstName); err != nil {
		return err
	}
	ok, err := s.Exists(ctx, srcProjectUUID, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if _, err := s.client.MoveFile(s.bucket, objectKey(srcProjectUUID, name), objectKey(dstProjectUUID, dstName)); err != nil {
		return fmt.Errorf("failed to move artifact: %w", err)
	}
	return nil
}

func (s *SupabaseStore) Open(ctx context.Context, projectUUID, name string) (io.ReadCloser, error) {
	if err := checkNames(projectUUID, name); err != nil {
		return nil, err
	}
	resp, err := s.object(ctx, http.MethodGet, projectUUID, name)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *SupabaseStore) Remove(ctx context.Context, projectUUID, name string) error {
	ok, err := s.Exists(ctx, projectUUID, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{objectKey(projectUUID, name)}); err != nil {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}

// RemoveProject enumerates the whole project folder page by page, then
// deletes it in batches of listPageSize keys.
func (s *SupabaseStore) RemoveProject(_ context.Context, projectUUID string) error {
	if err := checkNames(projectUUID); err != nil {
		return err
	}
	names, err := s.list(projectUUID)
	if err != nil {
		return err
	}

	for start := 0; start < len(names); start += listPageSize {
		batch := names[start:min(start+listPageSize, len(names))]
		paths := make([]string, len(batch))
		for i, n := range batch {
			paths[i] = objectKey(projectUUID, n)
		}
		if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
			return fmt.Errorf("failed to remove project artifacts: %w", err)
		}
	}
	return nil
}

func (s *SupabaseStore) list(projectUUID string) ([]string, error) {
	var names []string
	for offset := 0; ; offset += listPageSize {
		files, err := s.client.ListFiles(s.bucket, projectPrefix(projectUUID), supastorage.FileSearchOptions{
			Limit:  listPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list artifacts: %w", err)
		}
		for _, f := range files {
			names = append(names, f.Name)
		}
		if len(files) < listPageSize {
			return names, nil
		}
	}
}
