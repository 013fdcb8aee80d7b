package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cowriter/vox2midi/errs"
)

// Store persists exported artifacts under a per-user namespace. A user
// can only ever address files inside their own namespace; cross-user
// access control happens above this layer.
type Store interface {
	Put(ctx context.Context, userID, filename string, data []byte) (location string, err error)
	Get(ctx context.Context, userID, filename string) ([]byte, error)
}

// DirStore keeps exports on the local filesystem, one subdirectory per
// user.
type DirStore struct {
	Root string
}

func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &DirStore{Root: root}, nil
}

func (s *DirStore) Put(ctx context.Context, userID, filename string, data []byte) (string, error) {
	if err := validateKey(userID, filename); err != nil {
		return "", err
	}
	dir := filepath.Join(s.Root, userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create user dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func (s *DirStore) Get(ctx context.Context, userID, filename string) ([]byte, error) {
	if err := validateKey(userID, filename); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Root, userID, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return data, nil
}

// validateKey rejects ids and filenames that could escape the user's
// namespace.
func validateKey(userID, filename string) error {
	for _, part := range []string{userID, filename} {
		if part == "" || part == "." || part == ".." ||
			strings.ContainsAny(part, `/\`) {
			return fmt.Errorf("%w: illegal path segment %q", errs.ErrInvalidInput, part)
		}
	}
	return nil
}

// ContentTypeFor returns the MIME type to serve a stored file with.
func ContentTypeFor(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".mid"), strings.HasSuffix(lower, ".midi"):
		return "audio/midi"
	case strings.HasSuffix(lower, ".wav"):
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
