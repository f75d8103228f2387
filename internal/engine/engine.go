// Package engine orchestrates branch-per-version synchronization: status,
// sync, clone, root branch bootstrap and pruning. It coordinates between
// gitx, credential, identity, remotelink, discovery and ignore packages.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skaphos/branchkeeper/internal/config"
	"github.com/skaphos/branchkeeper/internal/credential"
	"github.com/skaphos/branchkeeper/internal/discovery"
	"github.com/skaphos/branchkeeper/internal/gitx"
	"github.com/skaphos/branchkeeper/internal/identity"
	"github.com/skaphos/branchkeeper/internal/ignore"
	"github.com/skaphos/branchkeeper/internal/model"
	"github.com/skaphos/branchkeeper/internal/remotelink"
)

var (
	// ErrNoRemoteLink is returned when a project has no origin configured.
	ErrNoRemoteLink = errors.New("project is not linked to a remote")
	// ErrUnknownVersion is returned when a version folder does not exist.
	ErrUnknownVersion = errors.New("version folder not found")
	// ErrEmptyRemote is returned when cloning a remote without branches.
	ErrEmptyRemote = errors.New("remote has no branches")
)

// Engine is the core orchestrator for BranchKeeper operations.
type Engine struct {
	cfg      *config.Config
	runner   gitx.Runner
	tokens   credential.TokenSource
	identity identity.Resolver
	ignore   *ignore.Store
	links    *remotelink.Store
	log      zerolog.Logger
	locks    *keyedMutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRunner replaces the git runner.
func WithRunner(r gitx.Runner) Option { return func(e *Engine) { e.runner = r } }

// WithTokenSource sets where the access token is read from.
func WithTokenSource(ts credential.TokenSource) Option { return func(e *Engine) { e.tokens = ts } }

// WithIdentity sets the author resolver.
func WithIdentity(r identity.Resolver) Option { return func(e *Engine) { e.identity = r } }

// WithIgnoreStore sets the ignore-rule store.
func WithIgnoreStore(s *ignore.Store) Option { return func(e *Engine) { e.ignore = s } }

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// New creates a new Engine with the given configuration.
func New(cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		def := config.DefaultConfig()
		cfg = &def
	}
	e := &Engine{
		cfg:   cfg,
		log:   zerolog.Nop(),
		locks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runner == nil {
		e.runner = &gitx.GitRunner{MaxOutputBytes: cfg.Defaults.MaxOutputBytes}
	}
	if e.tokens == nil {
		e.tokens = credential.EnvFileSource{EnvVar: config.EnvToken, Path: cfg.TokenFile}
	}
	if e.identity == nil {
		if cfg.Author != nil && strings.TrimSpace(cfg.Author.Name) != "" {
			e.identity = identity.StaticResolver{Author: *cfg.Author}
		} else {
			e.identity = &identity.GitHubResolver{}
		}
	}
	if e.ignore == nil {
		e.ignore = ignore.NewStore(nil)
	}
	e.links = &remotelink.Store{Runner: e.runner, RootBranch: e.rootBranch()}
	return e
}

// Config returns the engine configuration reference.
func (e *Engine) Config() *config.Config { return e.cfg }

// BranchForVersion maps a version folder name to its remote branch.
func (e *Engine) BranchForVersion(version string) string { return version }

// IsReserved reports whether branch never maps to a version folder.
func (e *Engine) IsReserved(branch string) bool {
	return slices.Contains(e.cfg.Reserved(), branch)
}

// Versions lists the version folders of a project.
func (e *Engine) Versions(projectPath string) ([]string, error) {
	return discovery.VersionFolders(projectPath, e.cfg.Exclude)
}

// CheckInstalled reports whether git can be executed.
func (e *Engine) CheckInstalled(ctx context.Context) model.Availability {
	version, err := gitx.Version(ctx, e.runner)
	if err != nil {
		return model.Availability{Error: err.Error()}
	}
	return model.Availability{Installed: true, Version: version}
}

// LinkProject points the project at rawURL. An empty URL unlinks it.
func (e *Engine) LinkProject(ctx context.Context, projectPath, rawURL string) (string, error) {
	projectPath, err := absPath(projectPath)
	if err != nil {
		return "", err
	}
	unlock := e.locks.Lock(projectKey(projectPath))
	defer unlock()

	if strings.TrimSpace(rawURL) == "" {
		e.log.Info().Str("project", projectPath).Msg("unlinking project")
		return "", e.links.Clear(ctx, projectPath)
	}
	clean, err := e.links.Set(ctx, projectPath, rawURL)
	if err != nil {
		return "", err
	}
	e.log.Info().Str("project", projectPath).Str("remote", clean).Msg("linked project")
	return clean, nil
}

// RemoteLink returns the credential-free remote of a project, or "".
func (e *Engine) RemoteLink(projectPath string) (string, error) {
	return remotelink.Read(projectPath)
}

// ReadIgnore returns the project's ignore rules, or the configured default
// rules when the project has no rule file yet.
func (e *Engine) ReadIgnore(projectPath string) (string, error) {
	ok, err := e.ignore.Exists(projectPath)
	if err != nil {
		return "", err
	}
	if !ok {
		return ignore.Join(e.cfg.DefaultIgnore), nil
	}
	return e.ignore.Read(projectPath)
}

// WriteIgnore replaces the project's ignore rules.
func (e *Engine) WriteIgnore(projectPath, content string) error {
	return e.ignore.Write(projectPath, content)
}

// session holds what one public entry point resolved up front. It is never
// kept beyond the call.
type session struct {
	remote  string
	authURL string
	author  model.Author
}

func (e *Engine) openSession(ctx context.Context, projectPath string, withAuthor bool) (session, error) {
	remote, err := e.requireLink(projectPath)
	if err != nil {
		return session{}, err
	}
	return e.sessionFor(ctx, remote, withAuthor)
}

func (e *Engine) requireLink(projectPath string) (string, error) {
	remote, err := remotelink.Read(projectPath)
	if err != nil {
		return "", err
	}
	if remote == "" {
		return "", fmt.Errorf("%w: %s", ErrNoRemoteLink, projectPath)
	}
	return remote, nil
}

func (e *Engine) sessionFor(ctx context.Context, remote string, withAuthor bool) (session, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return session{}, err
	}
	authURL, err := credential.Inject(remote, token)
	if err != nil {
		return session{}, err
	}
	s := session{remote: credential.Strip(remote), authURL: authURL}
	if withAuthor {
		author, err := e.identity.Resolve(ctx, token)
		if err != nil {
			return session{}, err
		}
		s.author = author
	}
	return s, nil
}

func (e *Engine) rootBranch() string {
	if strings.TrimSpace(e.cfg.RootBranch) == "" {
		return config.DefaultConfig().RootBranch
	}
	return e.cfg.RootBranch
}

// withTimeout bounds one version operation when a timeout is configured.
func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := e.cfg.Timeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) versionPath(projectPath, version string) (string, error) {
	if !validBranchName(version) {
		return "", fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}
	path := filepath.Join(projectPath, version)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrUnknownVersion, path)
	}
	return path, nil
}

// validBranchName reports whether name can be both a version folder and a
// branch passed to git as a positional argument.
func validBranchName(name string) bool {
	if name == "" || name != filepath.Base(name) {
		return false
	}
	return !strings.HasPrefix(name, ".") && !strings.HasPrefix(name, "-")
}

func absPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func projectKey(projectPath string) string { return "project:" + projectPath }
