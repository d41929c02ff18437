// Package upload stores multipart image uploads on local disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrFileTooLarge         = errors.New("file exceeds the upload size limit")
)

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageStore saves uploaded images under a directory with random names so
// uploads can never collide or traverse paths.
type ImageStore struct {
	dir     string
	maxSize int64
}

// NewImageStore creates a store rooted at dir, creating it if needed.
func NewImageStore(dir string, maxSize int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ImageStore{dir: dir, maxSize: maxSize}, nil
}

// Save validates and writes one multipart file, returning the stored file
// name. The original file name only contributes its extension.
func (s *ImageStore) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxSize {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrUnsupportedImageType
	}

	storedFileName := uuid.New().String() + ext
	path := filepath.Join(s.dir, storedFileName)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, s.maxSize+1)); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return storedFileName, nil
}

// Remove deletes a stored file by name. Missing files are ignored.
func (s *ImageStore) Remove(storedFileName string) error {
	if storedFileName == "" {
		return nil
	}
	// Base strips any path segments a stale database row might carry.
	path := filepath.Join(s.dir, filepath.Base(storedFileName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload file: %w", err)
	}
	return nil
}
