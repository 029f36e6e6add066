package dataset

import (
	"os"
	"sync"
	"time"

	appLog "github.com/Wei1024/embase-conference-dashboard/internal/log"
	"github.com/Wei1024/embase-conference-dashboard/internal/model"
)

// Cache memoizes the loaded table keyed on the data file's modification
// time. A reload happens when the file changes on disk or after an
// explicit Invalidate (the refresh action). Failed loads are never
// cached, so a later Get retries the file.
type Cache struct {
	path        string
	headerSheet string

	mu      sync.Mutex
	loaded  bool
	modTime time.Time
	table   model.Table
}

// NewCache creates a table cache over the workbook at path.
func NewCache(path, headerSheet string) *Cache {
	return &Cache{
		path:        path,
		headerSheet: headerSheet,
	}
}

// Get returns the current table, reloading from disk only when the cached
// copy is stale. The returned table is shared; callers must treat it as
// read-only (it is rebuilt wholesale on reload, never mutated).
func (c *Cache) Get() (model.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(c.path)
	if err != nil {
		c.loaded = false
		return model.Table{}, ErrDataUnavailable
	}

	if c.loaded && info.ModTime().Equal(c.modTime) {
		return c.table, nil
	}

	table, err := Load(c.path, c.headerSheet)
	if err != nil {
		c.loaded = false
		return model.Table{}, err
	}

	c.table = table
	c.modTime = info.ModTime()
	c.loaded = true
	appLog.Debug("table cache refreshed", "path", c.path, "rows", len(table))
	return table, nil
}

// Invalidate drops the cached table so the next Get reloads from disk.
// Called after a refresh replaces the data file.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}
