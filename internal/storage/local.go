package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps artifacts at <root>/<project_uuid>/<name>.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) path(projectUUID, name string) string {
	return filepath.Join(s.root, projectUUID, name)
}

func (s *LocalStore) Write(_ context.Context, projectUUID, name string, data []byte) error {
	if err := checkNames(projectUUID, name); err != nil {
		return err
	}
	dir := filepath.Join(s.root, projectUUID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

func (s *LocalStore) Exists(_ context.Context, projectUUID, name string) (bool, error) {
	if err := checkNames(projectUUID, name); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(projectUUID, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat artifact: %w", err)
}

func (s *LocalStore) Move(_ context.Context, srcProjectUUID, name, dstProjectUUID, dstName string) error {
	if err := checkNames(srcProjectUUID, name, dstProjectUUID, dstName); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(s.root, dstProjectUUID), 0o755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	err := os.Rename(s.path(srcProjectUUID, name), s.path(dstProjectUUID, dstName))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to move artifact: %w", err)
	}
	return nil
}

func (s *LocalStore) Open(_ context.Context, projectUUID, name string) (io.ReadCloser, error) {
	if err := checkNames(projectUUID, name); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(projectUUID, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Remove(_ context.Context, projectUUID, name string) error {
	if err := checkNames(projectUUID, name); err != nil {
		return err
	}
	err := os.Remove(s.path(projectUUID, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}

func (s *LocalStore) RemoveProject(_ context.Context, projectUUID string) error {
	if err := checkNames(projectUUID); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.root, projectUUID)); err != nil {
		return fmt.Errorf("failed to remove project directory: %w", err)
	}
	return nil
}
