// Package files stores uploaded media on local disk and records attachments
// that point at it.
package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"grandpa/config"
)

const (
	DirAttachments = "attachments"
	DirAvatars     = "profile_avatars"
)

// Storage persists file bytes and returns a key plus the public URL.
type Storage interface {
	Save(ctx context.Context, dir, filename string, src io.Reader) (key, url string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type LocalStorage struct {
	root    string
	baseURL string
}

func NewLocalStorage(cfg *config.Config) *LocalStorage {
	base := cfg.MediaURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &LocalStorage{root: cfg.MediaRoot, baseURL: base}
}

// Root is the directory served under the media URL.
func (s *LocalStorage) Root() string { return s.root }

// Save writes src under dir with a random name that keeps the extension of
// filename.
func (s *LocalStorage) Save(ctx context.Context, dir, filename string, src io.Reader) (string, string, error) {
	key := path.Join(dir, uuid.NewString()+cleanExt(filename))
	dst := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create media directory: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", key, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(dst)
		return "", "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", "", fmt.Errorf("failed to close %s: %w", key, err)
	}

	return key, s.baseURL + key, nil
}

func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+key))))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func cleanExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
