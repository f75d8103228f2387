// Package config handles loading, saving, and resolving the BranchKeeper
// machine configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/skaphos/branchkeeper/internal/model"
)

const (
	// LocalConfigFilename is the per-directory BranchKeeper config file.
	LocalConfigFilename = ".branchkeeper.yaml"
	// ConfigAPIVersion is the current config schema apiVersion.
	ConfigAPIVersion = "skaphos.io/branchkeeper/v1beta1"
	// ConfigKind is the current config schema kind.
	ConfigKind = "BranchKeeperConfig"
	// EnvConfig overrides the config location.
	EnvConfig = "BRANCHKEEPER_CONFIG"
	// EnvToken supplies the access token.
	EnvToken = "BRANCHKEEPER_TOKEN"
)

// DefaultIgnoreRules is written to a project root on clone when no ignore
// file exists yet.
var DefaultIgnoreRules = []string{
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"*.log",
	"build/",
	".gradle/",
	"run/",
	"out/",
	"bin/",
	"/temp/",
	"/tmp/",
	"*.zip",
	"backups/",
}

// Defaults holds default values for operations.
type Defaults struct {
	Concurrency int `yaml:"concurrency"`
	// TimeoutSeconds bounds each version operation. Zero means no timeout.
	TimeoutSeconds int   `yaml:"timeout_seconds"`
	MaxOutputBytes int64 `yaml:"max_output_bytes"`
}

// Config represents the machine-level BranchKeeper configuration.
type Config struct {
	APIVersion           string        `yaml:"apiVersion"`
	Kind                 string        `yaml:"kind"`
	RootBranch           string        `yaml:"root_branch"`
	ReservedBranches     []string      `yaml:"reserved_branches"`
	Exclude              []string      `yaml:"exclude"`
	DefaultIgnore        []string      `yaml:"default_ignore"`
	CommitMessage        string        `yaml:"commit_message"`
	ProjectCommitMessage string        `yaml:"project_commit_message"`
	TokenFile            string        `yaml:"token_file,omitempty"`
	Author               *model.Author `yaml:"author,omitempty"`
	RegistryPath         string        `yaml:"registry_path,omitempty"`
	RegistryStaleDays    int           `yaml:"registry_stale_days"`
	Defaults             Defaults      `yaml:"defaults"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() Config {
	return Config{
		APIVersion:           ConfigAPIVersion,
		Kind:                 ConfigKind,
		RootBranch:           "main",
		ReservedBranches:     []string{"main", "master", "HEAD"},
		DefaultIgnore:        append([]string(nil), DefaultIgnoreRules...),
		CommitMessage:        "Sync",
		ProjectCommitMessage: "Sync project",
		RegistryPath:         "registry.yaml",
		RegistryStaleDays:    30,
		Defaults: Defaults{
			Concurrency:    4,
			MaxOutputBytes: 50 << 20,
		},
	}
}

// Timeout returns the per-operation timeout, zero when disabled.
func (c *Config) Timeout() time.Duration {
	if c == nil || c.Defaults.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Defaults.TimeoutSeconds) * time.Second
}

// Reserved returns the branch names that never map to a version folder.
// The root branch is always included.
func (c *Config) Reserved() []string {
	out := append([]string(nil), c.ReservedBranches...)
	for _, b := range out {
		if b == c.RootBranch {
			return out
		}
	}
	if c.RootBranch != "" {
		out = append(out, c.RootBranch)
	}
	return out
}

// ConfigDir returns the platform-appropriate config directory path.
// It checks, in order: the override parameter, BRANCHKEEPER_CONFIG env var,
// and finally os.UserConfigDir()/branchkeeper.
func ConfigDir(override string) (string, error) {
	if override != "" {
		if isConfigFilePath(override) {
			return filepath.Dir(override), nil
		}
		return override, nil
	}

	if env := os.Getenv(EnvConfig); env != "" {
		if isConfigFilePath(env) {
			return filepath.Dir(env), nil
		}
		return env, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "branchkeeper"), nil
}

// ConfigPath resolves the config file path from override/env/defaults.
func ConfigPath(override string) (string, error) {
	if override != "" {
		if isConfigFilePath(override) {
			return override, nil
		}
		return filepath.Join(override, "config.yaml"), nil
	}

	if env := os.Getenv(EnvConfig); env != "" {
		if isConfigFilePath(env) {
			return env, nil
		}
		return filepath.Join(env, "config.yaml"), nil
	}

	dir, err := ConfigDir("")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ResolveConfigPath resolves config for runtime commands.
// Order: explicit override, BRANCHKEEPER_CONFIG, nearest local dotfile in cwd/parents,
// then global platform config path.
func ResolveConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(EnvConfig) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	localPath, err := FindNearestConfigPath(cwd)
	if err != nil {
		return "", err
	}
	if localPath != "" {
		return localPath, nil
	}

	return ConfigPath("")
}

// FindNearestConfigPath searches cwd and each parent directory for .branchkeeper.yaml.
// It returns an empty string when no local config file is found.
func FindNearestConfigPath(cwd string) (string, error) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, LocalConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads the config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigGVK(&cfg)
	if err := validateConfigGVK(&cfg); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.RootBranch) == "" {
		cfg.RootBranch = defaults.RootBranch
	}
	if cfg.Defaults.Concurrency <= 0 {
		cfg.Defaults.Concurrency = defaults.Defaults.Concurrency
	}
	if cfg.Defaults.MaxOutputBytes <= 0 {
		cfg.Defaults.MaxOutputBytes = defaults.Defaults.MaxOutputBytes
	}
	if strings.TrimSpace(cfg.CommitMessage) == "" {
		cfg.CommitMessage = defaults.CommitMessage
	}
	if strings.TrimSpace(cfg.ProjectCommitMessage) == "" {
		cfg.ProjectCommitMessage = defaults.ProjectCommitMessage
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to DefaultConfig when the file does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		def := DefaultConfig()
		return &def, nil
	}
	return cfg, err
}

// ResolveRegistryPath resolves registry_path against the config file location.
// Absolute paths are returned unchanged; relative paths are joined to the
// directory containing configPath.
func ResolveRegistryPath(configPath, registryPath string) string {
	if strings.TrimSpace(registryPath) == "" {
		return ""
	}
	if filepath.IsAbs(registryPath) || strings.TrimSpace(configPath) == "" {
		return filepath.Clean(registryPath)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(configPath), registryPath))
}

// ResolveTokenFile resolves token_file the same way as registry_path.
func ResolveTokenFile(configPath, tokenFile string) string {
	return ResolveRegistryPath(configPath, tokenFile)
}

// Save writes the config to the given path.
func Save(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	applyConfigGVK(cfg)
	if err := validateConfigGVK(cfg); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func isConfigFilePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func applyConfigGVK(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = ConfigAPIVersion
	}
	if strings.TrimSpace(cfg.Kind) == "" {
		cfg.Kind = ConfigKind
	}
}

func validateConfigGVK(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.APIVersion != ConfigAPIVersion {
		return fmt.Errorf("unsupported config apiVersion %q (expected %q)", cfg.APIVersion, ConfigAPIVersion)
	}
	if cfg.Kind != ConfigKind {
		return fmt.Errorf("unsupported config kind %q (expected %q)", cfg.Kind, ConfigKind)
	}
	return nil
}
