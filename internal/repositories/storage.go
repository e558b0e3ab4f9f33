package repositories

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStorage abstracts where uploaded profile pictures live. The disk
// backend serves them from the local uploads area; the S3 backend pushes
// them to a bucket fronted by a public base URL.
type ObjectStorage interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Remove(ctx context.Context, name string) error
	PublicURL(name string) string
}

// DiskStorage writes uploads under a local directory that the router serves
// statically at /uploads/.
type DiskStorage struct {
	Dir string
}

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{Dir: dir}, nil
}

func (s *DiskStorage) Save(ctx context.Context, name string, r io.Reader) error {
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return err
	}
	return dst.Close()
}

func (s *DiskStorage) Remove(ctx context.Context, name string) error {
	return os.Remove(filepath.Join(s.Dir, name))
}

func (s *DiskStorage) PublicURL(name string) string {
	return "/uploads/" + name
}

var _ ObjectStorage = (*DiskStorage)(nil)

// SanitizeExt returns a lowercased file extension safe to append to a
// generated object name. Anything that does not look like a short alphanumeric
// extension is dropped.
func SanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
