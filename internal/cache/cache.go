// Package cache inspects and clears the game's local shader/cache folder.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrOutsideCache is returned when a deletion targets a path that is not
// inside the cache folder.
var ErrOutsideCache = errors.New("path is outside the cache folder")

// Folder is one sub-folder of the cache.
type Folder struct {
	Name      string `json:"name"`
	Weight    string `json:"weight"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

// Info is the get_cache_informations payload.
type Info struct {
	Folders []Folder `json:"folders"`
}

// Cache is rooted at the game's cache folder.
type Cache struct {
	Dir string
}

// New returns a Cache for dir.
func New(dir string) *Cache { return &Cache{Dir: dir} }

// FormatWeight renders a byte count in whole mebibytes, "N Mo".
func FormatWeight(size int64) string {
	return fmt.Sprintf("%.0f Mo", math.Round(float64(size)/1048576))
}

// Info lists the cache sub-folders with their sizes. A missing cache folder
// yields an empty list.
func (c *Cache) Info() (Info, error) {
	out := Info{Folders: []Folder{}}
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return out, fmt.Errorf("read cache folder: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(c.Dir, e.Name())
		size, err := dirSize(p)
		if err != nil {
			return out, fmt.Errorf("size of %s: %w", e.Name(), err)
		}
		out.Folders = append(out.Folders, Folder{
			Name:      e.Name(),
			Weight:    FormatWeight(size),
			Path:      p,
			SizeBytes: size,
		})
	}
	sort.Slice(out.Folders, func(i, j int) bool { return out.Folders[i].Name < out.Folders[j].Name })
	return out, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
		}
		return nil
	})
	return total, err
}

// contains reports whether p is strictly inside dir.
func contains(dir, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(p))
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Delete removes a file or folder inside the cache folder.
func (c *Cache) Delete(path string) error {
	if !contains(c.Dir, path) {
		return fmt.Errorf("%w: %s", ErrOutsideCache, path)
	}
	if _, err := os.Lstat(path); err != nil {
		return err
	}
	return os.RemoveAll(path)
}

// Clear removes everything inside the cache folder, keeping the folder.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return fmt.Errorf("read cache folder: %w", err)
	}
	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.Dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
