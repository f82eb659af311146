package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"depthd/internal/common/fsutil"
)

// Cache tracks which variants have weights present under a local directory.
// The layout follows the upstream hub convention: one directory per model,
// named "models--<org>--<name>".
type Cache struct {
	dir string
}

// NewCache resolves dir (expanding a leading '~') and returns a Cache.
// The directory is created lazily by downloads; it need not exist yet.
func NewCache(dir string) (*Cache, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	return &Cache{dir: abs}, nil
}

// Dir returns the resolved cache root.
func (c *Cache) Dir() string { return c.dir }

// Path returns the on-disk directory for a variant's weights.
func (c *Cache) Path(v Variant) string {
	return filepath.Join(c.dir, "models--"+strings.ReplaceAll(v.ExternalID, "/", "--"))
}

// Downloaded reports whether a variant's weights are present locally.
func (c *Cache) Downloaded(v Variant) bool {
	fi, err := os.Stat(c.Path(v))
	return err == nil && fi.IsDir()
}

// DownloadedKeys probes every catalog entry and returns the keys with local
// weights, in catalog order.
func (c *Cache) DownloadedKeys(cat *Catalog) []string {
	out := make([]string, 0)
	for _, v := range cat.All() {
		if c.Downloaded(v) {
			out = append(out, v.Key)
		}
	}
	return out
}

// Delete removes a variant's cached weights. It reports whether anything was
// present to remove.
func (c *Cache) Delete(v Variant) (bool, error) {
	p := c.Path(v)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := os.RemoveAll(p); err != nil {
		return false, err
	}
	return true, nil
}
