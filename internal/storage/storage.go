// Package storage holds generated image binaries, one folder per project.
// The store carries no metadata: history rows are the only index from a
// project to its artifact names.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound    = errors.New("artifact not found")
	ErrInvalidName = errors.New("invalid artifact name")
)

type Store interface {
	// Write stores data under project/name, creating the project folder if needed.
	Write(ctx context.Context, projectUUID, name string, data []byte) error
	Exists(ctx context.Context, projectUUID, name string) (bool, error)
	// Move relocates an artifact. The destination name must already be free.
	Move(ctx context.Context, srcProjectUUID, name, dstProjectUUID, dstName string) error
	Open(ctx context.Context, projectUUID, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, projectUUID, name string) error
	RemoveProject(ctx context.Context, projectUUID string) error
}

// ValidName reports whether s is usable as a single path segment.
func ValidName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return false
	}
	return !strings.Contains(s, "..") && !strings.ContainsAny(s, `/\`)
}

func checkNames(names ...string) error {
	for _, n := range names {
		if !ValidName(n) {
			return ErrInvalidName
		}
	}
	return nil
}

// objectKey is the bucket key used by the remote backends.
func objectKey(projectUUID, name string) string {
	return "projects/" + projectUUID + "/" + name
}

func projectPrefix(projectUUID string) string {
	return "projects/" + projectUUID + "/"
}

// ContentTypeForName maps an artifact extension to the type it is served with.
func ContentTypeForName(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
