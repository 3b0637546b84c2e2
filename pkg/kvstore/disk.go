package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// DiskStore persists values as files under a base directory. Key segments
// separated by ':' become nested directories, so each user's state sits in
// its own folder.
type DiskStore struct {
	d *diskv.Diskv
}

// NewDiskStore opens (or creates on first write) a store rooted at basePath.
func NewDiskStore(basePath string) *DiskStore {
	return &DiskStore{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      256 * 1024,
	})}
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, ":")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
		if parts[i] == "" || parts[i] == "." || parts[i] == ".." {
			parts[i] = "%" + parts[i]
		}
	}
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKey(pk *diskv.PathKey) string {
	parts := append(append([]string(nil), pk.Path...), pk.FileName)
	for i, p := range parts {
		switch p {
		case "%", "%.", "%..":
			p = p[1:]
		}
		if u, err := url.PathUnescape(p); err == nil {
			p = u
		}
		parts[i] = p
	}
	return strings.Join(parts, ":")
}

func (s *DiskStore) Get(_ context.Context, key string) ([]byte, error) {
	v, err := s.d.Read(key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, nil
}

func (s *DiskStore) Set(_ context.Context, key string, value []byte) error {
	if err := s.d.Write(key, value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *DiskStore) Remove(_ context.Context, key string) error {
	if err := s.d.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("erasing %s: %w", key, err)
	}
	return nil
}
