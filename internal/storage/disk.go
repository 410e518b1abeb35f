package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Usage summarises the files under a set of storage paths.
type Usage struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// DiskUsage sums file counts and sizes for the given paths. Each path may be a file or a
// directory (walked recursively). Empty and missing paths contribute nothing.
func DiskUsage(paths ...string) (Usage, error) {
	var u Usage
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			u.Files++
			u.Bytes += info.Size()
			return nil
		})
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Usage{}, err
		}
	}
	return u, nil
}
