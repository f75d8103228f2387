// Package discovery lists the version folders of a project and the projects
// found under configured source roots.
package discovery

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/remotelink"
)

// BackupsDir is the per-project folder that never holds a version.
const BackupsDir = "backups"

// MatchesExclude checks whether a path matches any of the given exclude
// glob patterns.
func MatchesExclude(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	slashPath := filepath.ToSlash(path)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		match, err := doublestar.Match(pattern, slashPath)
		if err != nil {
			continue
		}
		if match {
			return true
		}
	}
	return false
}

// Skipped reports whether a folder directly under a project or source root
// is never treated as a version or project. Patterns are matched against both
// the folder name and its full path.
func Skipped(path string, exclude []string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-") || name == BackupsDir {
		return true
	}
	return MatchesExclude(name, exclude) || MatchesExclude(path, exclude)
}

// VersionFolders returns the version names of projectPath in name order.
func VersionFolders(projectPath string, exclude []string) ([]string, error) {
	entries, err := os.ReadDir(projectPath)
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if Skipped(filepath.Join(projectPath, entry.Name()), exclude) {
			continue
		}
		versions = append(versions, entry.Name())
	}
	return versions, nil
}

// ScanSources lists every project directly under each source root. Missing
// roots are skipped. Results are sorted by project name, then path.
func ScanSources(ctx context.Context, sources []string, exclude []string) ([]model.ProjectInfo, error) {
	seen := make(map[string]struct{})
	var projects []model.ProjectInfo
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(source) == "" {
			continue
		}
		absSource, err := filepath.Abs(source)
		if err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(absSource)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path := filepath.Join(absSource, entry.Name())
			if Skipped(path, exclude) {
				continue
			}
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}

			versions, err := VersionFolders(path, exclude)
			if err != nil {
				return nil, err
			}
			link, err := remotelink.Read(path)
			if err != nil {
				return nil, err
			}
			projects = append(projects, model.ProjectInfo{
				Name:      entry.Name(),
				Path:      path,
				Source:    absSource,
				RemoteURL: link,
				Versions:  versions,
			})
		}
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Name != projects[j].Name {
			return projects[i].Name < projects[j].Name
		}
		return projects[i].Path < projects[j].Path
	})
	return projects, nil
}
