package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidKey   = errors.New("invalid storage key")
)

// FileStorage stores generated documents such as invoices and reports
type FileStorage interface {
	// Save writes the content under a new key built from prefix and ext,
	// e.g. "invoices/<uuid>.pdf", and returns the key.
	Save(ctx context.Context, prefix, ext string, r io.Reader) (string, error)

	// Put writes the content under key, replacing any existing file
	Put(ctx context.Context, key string, r io.Reader) error

	// Open returns a reader for the stored file. Callers close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if a file exists and returns its size
	Exists(ctx context.Context, key string) (exists bool, size int64, err error)

	// Delete removes a file; deleting a missing file is not an error
	Delete(ctx context.Context, key string) error

	// DownloadURL returns the public URL that serves the file
	DownloadURL(key string) string
}
