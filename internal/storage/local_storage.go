package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wastebill/wastebill-backend/pkg/logger"
)

// LocalStorage writes files under a directory served at publicPath
type LocalStorage struct {
	root       string
	publicPath string
}

func NewLocalStorage(root, publicPath string) (*LocalStorage, error) {
	if root == "" {
		root = "./uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &LocalStorage{
		root:       root,
		publicPath: "/" + strings.Trim(publicPath, "/"),
	}, nil
}

// Root is the directory the router serves statically
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) Save(ctx context.Context, folder, contentType string, r io.Reader) (*StoredObject, error) {
	key := newKey(folder, contentType)
	full := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(full)
		return nil, fmt.Errorf("write file: %w", err)
	}

	logger.Debug("File stored locally", map[string]interface{}{
		"key":   key,
		"bytes": n,
	})

	return &StoredObject{Key: key, URL: s.URL(key)}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return ErrInvalidStorageKey
	}
	err := os.Remove(filepath.Join(s.root, clean))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	return s.publicPath + "/" + strings.TrimLeft(key, "/")
}
