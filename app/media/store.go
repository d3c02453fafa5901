// Package media stores images uploaded with posts on the local filesystem.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("upload is not an image")
	ErrTooLarge = errors.New("upload is too large")
)

// UploadDir is the subdirectory of the media root post images are written to.
const UploadDir = "posts"

// DefaultMaxBytes caps a single upload when no limit is configured.
const DefaultMaxBytes = 5 << 20

var allowed = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Store writes uploads under Root. Paths it returns are relative to Root
// and use forward slashes, so they can be served below /media/.
type Store struct {
	Root     string
	MaxBytes int64
}

func NewStore(root string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{Root: root, MaxBytes: maxBytes}
}

// Save sniffs the content of r and stores it when it is an image. The
// original filename only contributes its base for logging; the stored
// name is random.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload %q: %w", filepath.Base(filename), err)
	}
	if int64(len(data)) > s.MaxBytes {
		return "", fmt.Errorf("%w: limit is %s", ErrTooLarge, humanize.IBytes(uint64(s.MaxBytes)))
	}

	mtype := mimetype.Detect(data)
	if !allowed[baseType(mtype.String())] {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mtype.String())
	}

	dir := filepath.Join(s.Root, UploadDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + mtype.Extension()
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path.Join(UploadDir, name), nil
}

// Remove deletes a previously saved upload. Missing files are ignored.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid media path %q", rel)
	}
	err := os.Remove(filepath.Join(s.Root, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// URL is the public address of a stored file.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/media/" + rel
}

func baseType(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		return strings.TrimSpace(m[:i])
	}
	return m
}
