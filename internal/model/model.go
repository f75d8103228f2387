// Package model defines the core data types used throughout BranchKeeper.
package model

import (
	"strings"
	"time"
)

// Author identifies the credential owner used for commits made by the engine.
type Author struct {
	// Name is the committer name (the account login).
	Name string `json:"name" yaml:"name"`
	// Email is the committer email.
	Email string `json:"email" yaml:"email"`
}

// DriftStatus enumerates the states a version can be reported in.
type DriftStatus string

const (
	// DriftOK means status was computed successfully.
	DriftOK DriftStatus = "ok"
	// DriftNew means the version folder has no local history yet.
	DriftNew DriftStatus = "new"
	// DriftOrphan means a remote branch has no local version folder.
	DriftOrphan DriftStatus = "orphan"
	// DriftError means a command failed while computing status.
	DriftError DriftStatus = "error"
)

// DriftDescriptor describes how one version differs from its remote branch.
type DriftDescriptor struct {
	// Name is the version name, which is also the branch name.
	Name string `json:"name" yaml:"name"`
	// Status is the high-level drift state.
	Status DriftStatus `json:"status" yaml:"status"`
	// LocalChanges reports uncommitted changes (always true for new versions).
	LocalChanges bool `json:"local_changes" yaml:"local_changes"`
	// CommitsAhead counts local commits the remote branch does not have.
	CommitsAhead int `json:"commits_ahead" yaml:"commits_ahead"`
	// CommitsBehind counts remote commits missing locally.
	CommitsBehind int `json:"commits_behind" yaml:"commits_behind"`
	// RemoteExists reports whether the branch exists on the remote.
	RemoteExists bool `json:"remote_exists" yaml:"remote_exists"`
	// Message carries the failure text for error entries.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	// ErrorClass is a coarse category for Message (for example, auth/network).
	ErrorClass string `json:"error_class,omitempty" yaml:"error_class,omitempty"`
}

// HasDrift reports whether the descriptor is worth surfacing to the user.
func (d DriftDescriptor) HasDrift() bool {
	switch d.Status {
	case DriftNew, DriftOrphan, DriftError:
		return true
	}
	return d.LocalChanges || d.CommitsAhead > 0 || d.CommitsBehind > 0
}

// ProjectStatusReport is the drift report of a whole project.
type ProjectStatusReport struct {
	// Project is the project folder name.
	Project string `json:"project" yaml:"project"`
	// Path is the absolute project path.
	Path string `json:"path" yaml:"path"`
	// RemoteURL is the credential-free remote link.
	RemoteURL string `json:"remote_url" yaml:"remote_url"`
	// GeneratedAt is the timestamp when this report was produced.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	// Versions holds only versions with drift plus orphan branches.
	Versions []DriftDescriptor `json:"versions" yaml:"versions"`
	// Error is set when the whole report could not be computed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Step names recorded on a SyncReport.
const (
	StepEnsureRepo = "ensure_repo"
	StepIdentity   = "identity"
	StepOrigin     = "origin"
	StepFetch      = "fetch"
	StepStash      = "stash"
	StepPull       = "pull"
	StepStashPop   = "stash_pop"
	StepCommit     = "commit"
	StepPublish    = "publish"
	StepForcePush  = "force_push"
	StepRootBranch = "root_branch"
)

// StepResult is the outcome of one reconciliation step.
type StepResult struct {
	Step    string `json:"step" yaml:"step"`
	OK      bool   `json:"ok" yaml:"ok"`
	Skipped bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	// Fatal marks a failure that aborted the sync.
	Fatal bool   `json:"fatal,omitempty" yaml:"fatal,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OutcomeKind is the final result of syncing one version.
type OutcomeKind string

const (
	OutcomePushed          OutcomeKind = "pushed"
	OutcomeUpToDate        OutcomeKind = "up_to_date"
	OutcomeForcedOverwrite OutcomeKind = "forced_overwrite"
	OutcomeFailed          OutcomeKind = "failed"
)

// SyncReport describes the sync of one version.
type SyncReport struct {
	Version string       `json:"version" yaml:"version"`
	Branch  string       `json:"branch" yaml:"branch"`
	Path    string       `json:"path" yaml:"path"`
	OK      bool         `json:"ok" yaml:"ok"`
	Outcome OutcomeKind  `json:"outcome" yaml:"outcome"`
	Message string       `json:"message" yaml:"message"`
	Steps   []StepResult `json:"steps" yaml:"steps"`
	// ErrorClass categorizes the fatal failure, if any.
	ErrorClass string `json:"error_class,omitempty" yaml:"error_class,omitempty"`
}

// Warnings returns the non-fatal failed steps.
func (r SyncReport) Warnings() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.OK && !s.Skipped && !s.Fatal {
			out = append(out, s)
		}
	}
	return out
}

// WarningText joins warnings into a single line.
func (r SyncReport) WarningText() string {
	warnings := r.Warnings()
	parts := make([]string, 0, len(warnings))
	for _, w := range warnings {
		parts = append(parts, w.Step+": "+w.Error)
	}
	return strings.Join(parts, "; ")
}

// ProjectSyncReport describes a whole-project sync.
type ProjectSyncReport struct {
	Project    string       `json:"project" yaml:"project"`
	Path       string       `json:"path" yaml:"path"`
	RootBranch StepResult   `json:"root_branch" yaml:"root_branch"`
	Versions   []SyncReport `json:"versions" yaml:"versions"`
	// Synced counts versions whose sync succeeded.
	Synced  int    `json:"synced" yaml:"synced"`
	Message string `json:"message" yaml:"message"`
}

// OK reports whether every version synced.
func (r ProjectSyncReport) OK() bool {
	return r.Synced == len(r.Versions)
}

// CloneResult summarizes a clone of a remote into a project.
type CloneResult struct {
	Path    string   `json:"path" yaml:"path"`
	Cloned  []string `json:"cloned" yaml:"cloned"`
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	// Warnings holds non-fatal failures such as a failed root fetch.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// PruneResult is the outcome of deleting one remote branch.
type PruneResult struct {
	Branch string `json:"branch" yaml:"branch"`
	OK     bool   `json:"ok" yaml:"ok"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Availability reports whether the git backend can be used.
type Availability struct {
	Installed bool   `json:"installed" yaml:"installed"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SyncResult records the outcome of the last sync operation.
type SyncResult struct {
	// OK is true when the last sync completed successfully.
	OK bool `json:"ok" yaml:"ok"`
	// At is the timestamp of the last sync attempt.
	At time.Time `json:"at" yaml:"at"`
	// Error contains the sync error message when OK is false.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// Synced is the number of versions pushed by the last project sync.
	Synced int `json:"synced,omitempty" yaml:"synced,omitempty"`
}

// ProjectInfo is one project found under a source root.
type ProjectInfo struct {
	Name      string   `json:"name" yaml:"name"`
	Path      string   `json:"path" yaml:"path"`
	Source    string   `json:"source" yaml:"source"`
	RemoteURL string   `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
	Versions  []string `json:"versions" yaml:"versions"`
}
