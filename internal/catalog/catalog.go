package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Catalog returns reference source text relevant to a request.
type Catalog interface {
	Lookup(ctx context.Context, query string) (string, error)
}

// DirCatalog serves every reference module in a directory. It does no
// ranking: all modules are included, in name order, up to maxBytes.
type DirCatalog struct {
	dir      string
	ext      string
	maxBytes int
}

func NewDirCatalog(dir string, maxBytes int) *DirCatalog {
	return &DirCatalog{dir: dir, ext: ".py", maxBytes: maxBytes}
}

func (c *DirCatalog) Lookup(ctx context.Context, _ string) (string, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read catalog %s: %w", c.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), c.ext) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			return "", fmt.Errorf("read reference module %s: %w", name, err)
		}
		section := fmt.Sprintf("# === reference module: %s ===\n%s\n", name, strings.TrimRight(string(data), "\n"))
		if c.maxBytes > 0 && b.Len()+len(section) > c.maxBytes {
			break
		}
		b.WriteString(section)
	}
	return b.String(), nil
}
