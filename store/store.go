// Package store is the persistence boundary: an opaque key/value document
// store backed by one JSON file per key. The mapper, learn engine, and
// preset layer each own their keys; nothing else touches the files.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-vizmix/errkind"
)

// Store reads and writes JSON documents under a single directory.
type Store struct {
	dir string
}

// Open creates the backing directory if needed and returns a store for it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fault.Wrap(err,
			fmsg.With("create store directory"),
			ftag.With(errkind.PersistenceFailure))
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the per-user store location.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-vizmix"), nil
}

func (s *Store) path(key string) string {
	// Keys may contain a namespace separator; keep them filesystem-safe.
	return filepath.Join(s.dir, strings.ReplaceAll(key, ":", "_")+".json")
}

// Save marshals v and writes it under key. The write goes through a temp
// file and rename so a failed save never leaves a truncated document.
func (s *Store) Save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fault.Wrap(err,
			fmsg.With("marshal document "+key),
			ftag.With(errkind.PersistenceFailure))
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fault.Wrap(err,
			fmsg.With("write document "+key),
			ftag.With(errkind.PersistenceFailure))
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fault.Wrap(err,
			fmsg.With("commit document "+key),
			ftag.With(errkind.PersistenceFailure))
	}
	return nil
}

// Load unmarshals the document under key into v. A missing document is not
// an error; ok reports whether anything was loaded. v is untouched on
// failure so callers never end up with a partially-overwritten state.
func (s *Store) Load(key string, v any) (ok bool, err error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fault.Wrap(err,
			fmsg.With("read document "+key),
			ftag.With(errkind.PersistenceFailure))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fault.Wrap(err,
			fmsg.With("decode document "+key),
			ftag.With(errkind.PersistenceFailure))
	}
	return true, nil
}

// Delete removes the document under key. Missing documents are fine.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fault.Wrap(err,
			fmsg.With("delete document "+key),
			ftag.With(errkind.PersistenceFailure))
	}
	return nil
}

// List returns the keys present under a prefix, in directory order.
func (s *Store) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.With("list store"),
			ftag.With(errkind.PersistenceFailure))
	}
	filePrefix := strings.ReplaceAll(prefix, ":", "_")
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		name = strings.TrimSuffix(name, ".json")
		if strings.HasPrefix(name, filePrefix) {
			keys = append(keys, name)
		}
	}
	return keys, nil
}
