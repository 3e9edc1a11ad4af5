// Package cache implements the response cache described in spec §3 and
// §4.3: an immutable map from URL path to a fully pre-encoded HTTP/1.1 200
// response, built once by walking the document root before any worker
// starts, and never mutated afterward.
package cache

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/emberd/internal/proto"
)

// maxCacheableSize is the largest file size the cache will pre-materialize
// (spec §3: "Entries are inserted only for regular files at most 1 MiB in
// size").
const maxCacheableSize = proto.MaxCacheableBody

const indexFile = "index.html"

// Cache is the immutable, read-only-after-build response cache. Workers
// share one Cache by reference; no locking guards Lookup because the
// structure never changes after Build returns (spec §4.3: "No locking; the
// structure is read-only after build").
type Cache struct {
	entries map[string][]byte
}

// Build walks root and constructs a Cache. It runs synchronously on the
// main goroutine before any worker starts (spec §5: "The preload walk runs
// on the main thread before workers start and may block on disk").
func Build(root string) (*Cache, error) {
	c := &Cache{entries: make(map[string][]byte)}

	err := filepath.WalkDir(root, func(fsPath string, d fs.DirEntry, err error) error {
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
		if !info.Mode().IsRegular() || info.Size() > maxCacheableSize {
			return nil
		}

		body, err := os.ReadFile(fsPath)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, fsPath)
		if err != nil {
			return err
		}
		urlPath := "/" + filepath.ToSlash(rel)

		resp := proto.BuildResponse(proto.StatusLine200, proto.DetectContentType(fsPath), body, true)
		c.entries[urlPath] = resp

		// A file whose relative URL path ends in "/index.html" is also
		// inserted at the directory prefix ending in "/" (spec §3, §4.3).
		if strings.HasSuffix(urlPath, "/"+indexFile) {
			dirAlias := strings.TrimSuffix(urlPath, indexFile)
			c.entries[dirAlias] = resp
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Lookup returns the pre-built response bytes for reqPath, normalizing an
// empty or trailing-slash path by appending index.html first (spec §4.3
// Lookup); an empty path is treated as "/", so it finds "/index.html".
func (c *Cache) Lookup(reqPath string) ([]byte, bool) {
	if reqPath == "" {
		reqPath = "/"
	}
	if strings.HasSuffix(reqPath, "/") {
		reqPath += indexFile
	}
	entry, ok := c.entries[reqPath]
	return entry, ok
}

// Len reports the number of distinct URL paths served from cache,
// including directory aliases.
func (c *Cache) Len() int {
	return len(c.entries)
}
