package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/wastebill/wastebill-backend/config"
)

var (
	ErrFileTooLarge      = errors.New("file exceeds maximum upload size")
	ErrUnsupportedType   = errors.New("unsupported content type")
	ErrUnknownDriver     = errors.New("unknown storage driver")
	ErrInvalidStorageKey = errors.New("invalid storage key")
)

// SlipContentTypes maps accepted slip image types to file extensions
var SlipContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// StoredObject describes a saved file
type StoredObject struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Storage saves uploaded files and resolves their public URL
type Storage interface {
	Save(ctx context.Context, folder, contentType string, r io.Reader) (*StoredObject, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New picks the backend named by cfg.Driver
func New(cfg *config.StorageConfig) (Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalStorage(cfg.LocalDir, cfg.PublicPath)
	case "s3":
		return NewS3Storage(cfg.Region, cfg.Bucket, cfg.AccessKeyID, cfg.SecretAccessKey, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}

// ValidateFileSize validates the file size
func ValidateFileSize(size, maxSize int64) error {
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, size, maxSize)
	}
	return nil
}

// ValidateContentType returns the extension for an accepted content type
func ValidateContentType(contentType string, allowed map[string]string) (string, error) {
	ext, ok := allowed[NormalizeContentType(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return ext, nil
}

// NormalizeContentType drops parameters and lowercases a MIME type
func NormalizeContentType(contentType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
}

func newKey(folder, contentType string) string {
	ext := SlipContentTypes[NormalizeContentType(contentType)]
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)
}
