package pinned

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	appLog "github.com/Wei1024/embase-conference-dashboard/internal/log"
)

// Store persists a Set as a JSON array of identity keys at a fixed path.
// All failures are reported, never fatal: a missing file is an empty set,
// a corrupt file is an empty set plus the error, and a failed save leaves
// the previously persisted file intact.
type Store struct {
	path string
}

// NewStore creates a Store backed by the given JSON file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted keys. An absent file yields an empty set and
// no error; an unreadable or malformed file yields an empty set and the
// error, so the session can still proceed in memory.
func (st *Store) Load() (Set, error) {
	data, err := os.ReadFile(st.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		appLog.Error("pinned file unreadable; starting with empty set", err, "path", st.path)
		return New(), err
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		appLog.Error("pinned file corrupt; starting with empty set", err, "path", st.path)
		return New(), err
	}

	return New(keys...), nil
}

// Save overwrites the persisted storage with the given set. The write
// goes to a temp file first and is renamed over the target, so a failed
// save never corrupts the previous state.
func (st *Store) Save(s Set) error {
	data, err := json.Marshal(s.Keys())
	if err != nil {
		return err
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".confdash-pinned-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, st.path)
}

// Add pins key in s and persists. Pinning an already-pinned key is a
// no-op and triggers no write.
func (st *Store) Add(s Set, key string) error {
	if s.Contains(key) {
		return nil
	}
	s.Add(key)
	return st.Save(s)
}

// Remove unpins key in s and persists. Unpinning an absent key is a
// no-op and triggers no write.
func (st *Store) Remove(s Set, key string) error {
	if !s.Contains(key) {
		return nil
	}
	s.Remove(key)
	return st.Save(s)
}

// ReconcileAndSave applies Reconcile and persists the result. The new set
// is returned even when the save fails, so in-memory state stays usable
// for the rest of the session.
func (st *Store) ReconcileAndSave(prev Set, visible map[string]bool) (Set, error) {
	next := Reconcile(prev, visible)
	return next, st.Save(next)
}
