// SPDX-License-Identifier: MIT
// Package registry handles persistence and staleness detection for the
// per-machine list of project sources and known projects.
package registry

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/skaphos/branchkeeper/internal/model"
)

// EntryStatus represents whether a registry entry's path is still valid.
type EntryStatus string

const (
	StatusPresent EntryStatus = "present"
	StatusMissing EntryStatus = "missing"
)

// Entry is a single project entry in the registry.
type Entry struct {
	// ProjectID is the normalized remote identity, or the path for unlinked projects.
	ProjectID string            `yaml:"project_id"`
	Path      string            `yaml:"path"`
	RemoteURL string            `yaml:"remote_url,omitempty"`
	LastSeen  time.Time         `yaml:"last_seen,omitempty"`
	Status    EntryStatus       `yaml:"status"`
	LastSync  *model.SyncResult `yaml:"last_sync,omitempty"`
}

// Registry is the per-machine list of source roots and projects.
type Registry struct {
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
	Sources   []string  `yaml:"sources"`
	Entries   []Entry   `yaml:"projects"`
}

// Load reads a registry file from the given path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// LoadOrEmpty reads the registry, returning an empty one when the file does
// not exist yet.
func LoadOrEmpty(path string) (*Registry, error) {
	reg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Registry{}, nil
	}
	return reg, err
}

// Save writes the registry to the given path.
func Save(reg *Registry, path string) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	reg.UpdatedAt = time.Now()
	data, err := yaml.Marshal(reg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AddSource records a source root. It reports false when already present.
func (r *Registry) AddSource(path string) bool {
	path = filepath.Clean(path)
	if slices.Contains(r.Sources, path) {
		return false
	}
	r.Sources = append(r.Sources, path)
	return true
}

// RemoveSource forgets a source root. It reports false when it was unknown.
func (r *Registry) RemoveSource(path string) bool {
	path = filepath.Clean(path)
	i := slices.Index(r.Sources, path)
	if i < 0 {
		return false
	}
	r.Sources = slices.Delete(r.Sources, i, i+1)
	return true
}

// Upsert adds or updates an entry in the registry by path.
// Existing sync history is preserved when the new entry carries none.
func (r *Registry) Upsert(entry Entry) {
	entry.Path = filepath.Clean(entry.Path)
	if entry.ProjectID == "" {
		entry.ProjectID = entry.Path
	}
	if entry.Status == "" {
		entry.Status = StatusPresent
	}
	for i := range r.Entries {
		if r.Entries[i].Path == entry.Path {
			if entry.LastSync == nil {
				entry.LastSync = r.Entries[i].LastSync
			}
			r.Entries[i] = entry
			return
		}
	}
	r.Entries = append(r.Entries, entry)
}

// RecordSync stores the outcome of a sync on the entry at path, creating the
// entry when needed.
func (r *Registry) RecordSync(path string, result model.SyncResult) {
	path = filepath.Clean(path)
	if e := r.FindByPath(path); e != nil {
		e.LastSync = &result
		e.LastSeen = result.At
		return
	}
	r.Upsert(Entry{Path: path, LastSeen: result.At, LastSync: &result})
}

// ValidatePaths checks all entries against the filesystem and marks
// entries as missing as appropriate.
func (r *Registry) ValidatePaths() error {
	for i := range r.Entries {
		_, err := os.Stat(r.Entries[i].Path)
		if err != nil {
			if os.IsNotExist(err) {
				r.Entries[i].Status = StatusMissing
				continue
			}
			return err
		}
		r.Entries[i].Status = StatusPresent
	}
	return nil
}

// PruneStale removes entries marked as missing that are older than
// the given threshold.
func (r *Registry) PruneStale(olderThan time.Duration) int {
	if olderThan <= 0 {
		return 0
	}
	now := time.Now()
	var kept []Entry
	pruned := 0
	for _, entry := range r.Entries {
		if entry.Status == StatusMissing && entry.LastSeen.Before(now.Add(-olderThan)) {
			pruned++
			continue
		}
		kept = append(kept, entry)
	}
	r.Entries = kept
	return pruned
}

// FindByPath returns the entry for the given project path, or nil.
func (r *Registry) FindByPath(path string) *Entry {
	path = filepath.Clean(path)
	for i := range r.Entries {
		if r.Entries[i].Path == path {
			return &r.Entries[i]
		}
	}
	return nil
}
