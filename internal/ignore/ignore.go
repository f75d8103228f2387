// SPDX-License-Identifier: MIT
// Package ignore reads and writes the exclusion rules kept once at a
// project root and shared by every version branch.
package ignore

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Filename is the rule file written at the project root.
const Filename = ".gitignore"

// Store persists rule sets on a filesystem.
type Store struct {
	fs afero.Fs
}

// NewStore returns a Store backed by fsys. A nil fsys uses the OS filesystem.
func NewStore(fsys afero.Fs) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys}
}

// Read returns the raw rule text of a project, or "" when none exists.
func (s *Store) Read(projectPath string) (string, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(projectPath, Filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// Write replaces the rule text of a project.
func (s *Store) Write(projectPath, content string) error {
	if err := s.fs.MkdirAll(projectPath, 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, filepath.Join(projectPath, Filename), []byte(content), 0o644)
}

// Exists reports whether the project already has a rule file.
func (s *Store) Exists(projectPath string) (bool, error) {
	return afero.Exists(s.fs, filepath.Join(projectPath, Filename))
}

// WriteDefault writes rules unless a rule file already exists. It reports
// whether the file was written.
func (s *Store) WriteDefault(projectPath string, rules []string) (bool, error) {
	ok, err := s.Exists(projectPath)
	if err != nil || ok {
		return false, err
	}
	return true, s.Write(projectPath, Join(rules))
}

// Join renders rules one per line with a trailing newline.
func Join(rules []string) string {
	if len(rules) == 0 {
		return ""
	}
	return strings.Join(rules, "\n") + "\n"
}

// Parse splits rule text into patterns, dropping blank lines and comments.
func Parse(content string) []string {
	var rules []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	return rules
}
