// SPDX-License-Identifier: MIT
// Package sortutil orders version names and report rows deterministically.
package sortutil

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/registry"
)

// CompareVersions orders version names by semantic version when both parse
// (so "1.9" sorts before "1.20"), placing non-semver names after semver ones
// in lexical order. It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if c := va.Compare(vb); c != 0 {
			return c
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortVersionsDesc orders names newest first. Non-semver names keep lexical
// order after all semver names.
func SortVersionsDesc(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		vi, errI := semver.NewVersion(names[i])
		vj, errJ := semver.NewVersion(names[j])
		switch {
		case errI == nil && errJ == nil:
			return vi.GreaterThan(vj)
		case errI == nil:
			return true
		case errJ == nil:
			return false
		}
		return names[i] < names[j]
	})
}

// SortVersionsAsc orders names oldest first.
func SortVersionsAsc(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return CompareVersions(names[i], names[j]) < 0
	})
}

// SortDrift orders drift rows by version, orphan branches last.
func SortDrift(rows []model.DriftDescriptor) {
	sort.SliceStable(rows, func(i, j int) bool {
		oi := rows[i].Status == model.DriftOrphan
		oj := rows[j].Status == model.DriftOrphan
		if oi != oj {
			return !oi
		}
		return CompareVersions(rows[i].Name, rows[j].Name) < 0
	})
}

// LessIDPath provides deterministic ordering by project identity first,
// then by path.
func LessIDPath(idI, pathI, idJ, pathJ string) bool {
	if idI == idJ {
		return pathI < pathJ
	}
	return idI < idJ
}

// SortRegistryEntries orders registry entries by ProjectID, then Path.
func SortRegistryEntries(entries []registry.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return LessIDPath(entries[i].ProjectID, entries[i].Path, entries[j].ProjectID, entries[j].Path)
	})
}
