package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"vacation-rental-backend/internal/logger"

	"github.com/google/uuid"
)

// LocalStorage keeps files on the local filesystem and serves them through
// the API's /api/files route.
type LocalStorage struct {
	baseURL string
	dir     string
}

// NewLocalStorage creates the base directory if it doesn't exist
func NewLocalStorage(cfg Config) (*LocalStorage, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		dir:     cfg.Dir,
	}, nil
}

func (s *LocalStorage) Save(ctx context.Context, prefix, ext string, r io.Reader) (string, error) {
	key := uuid.NewString()
	if ext != "" {
		key += "." + strings.TrimPrefix(ext, ".")
	}
	if prefix != "" {
		key = path.Join(prefix, key)
	}
	if err := s.Put(ctx, key, r); err != nil {
		return "", err
	}
	return key, nil
}

// Put writes to a temporary file in the target directory and renames it over
// key, so readers never see a partial file.
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmp := f.Name()

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to store file: %w", err)
	}

	logger.Debug("File stored", "key", key, "size", n)
	return nil
}

func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, int64, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return false, 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) DownloadURL(key string) string {
	return fmt.Sprintf("%s/api/files/%s", s.baseURL, url.PathEscape(key))
}

// resolve maps a key to a path under the base directory, rejecting keys
// that would escape it.
func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}
