package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"

	apperrors "photometa-api/internal/errors"
)

// FileSource reads uploaded files. Paths are source-specific and built with
// Path from storage-relative paths.
type FileSource interface {
	Path(relative string) string
	Exists(ctx context.Context, path string) bool
	Size(ctx context.Context, path string) (int64, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// cleanRelative roots and cleans a relative path so it cannot escape the
// storage root.
func cleanRelative(relative string) (string, bool) {
	rel := path.Clean("/" + strings.TrimLeft(relative, "/"))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		return "", false
	}
	return rel, true
}

// LocalFileSource serves files from a directory on disk.
type LocalFileSource struct {
	root string
}

func NewLocalFileSource(root string) *LocalFileSource {
	return &LocalFileSource{root: filepath.Clean(root)}
}

func (l *LocalFileSource) Path(relative string) string {
	rel, ok := cleanRelative(relative)
	if !ok {
		return ""
	}
	return filepath.Join(l.root, filepath.FromSlash(rel))
}

func (l *LocalFileSource) Exists(_ context.Context, p string) bool {
	if p == "" {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (l *LocalFileSource) Size(_ context.Context, p string) (int64, error) {
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, apperrors.ErrNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}

func (l *LocalFileSource) Open(_ context.Context, p string) (io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// StorageService serves files from a Google Cloud Storage bucket. Paths are
// object names under an optional prefix.
type StorageService struct {
	client     *storage.Client
	bucketName string
	prefix     string
}

func NewStorageService(client *storage.Client, bucketName, prefix string) *StorageService {
	return &StorageService{
		client:     client,
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
	}
}

func (s *StorageService) Path(relative string) string {
	rel, ok := cleanRelative(relative)
	if !ok {
		return ""
	}
	if s.prefix == "" {
		return rel
	}
	return s.prefix + "/" + rel
}

func (s *StorageService) Exists(ctx context.Context, objectName string) bool {
	if objectName == "" {
		return false
	}
	_, err := s.client.Bucket(s.bucketName).Object(objectName).Attrs(ctx)
	return err == nil
}

func (s *StorageService) Size(ctx context.Context, objectName string) (int64, error) {
	attrs, err := s.client.Bucket(s.bucketName).Object(objectName).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to stat object: %w", err)
	}
	return attrs.Size, nil
}

// Open streams an object from Google Cloud Storage.
func (s *StorageService) Open(ctx context.Context, objectName string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return reader, nil
}
