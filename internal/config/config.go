package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the pipeline settings shared by the releaser binaries.
type Config struct {
	// SourceRepo is the repository holding the tagged tool source, in "owner/name" form.
	SourceRepo string `yaml:"source_repo"`
	// BinaryName is the base name of the distributed executable.
	BinaryName string `yaml:"binary_name"`
	// Tap is the external formula repository, in "owner/name" form.
	Tap string `yaml:"tap"`
	// FormulaName is the formula file name inside the tap, without extension.
	FormulaName string `yaml:"formula_name"`
	// WorkDir is where per-branch checkouts and artifacts are produced.
	WorkDir string `yaml:"work_dir"`
	// CommandTimeout bounds each toolchain invocation (clone, compile).
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

const (
	// DefaultConfigFilename is the default filename for pipeline settings.
	DefaultConfigFilename = "releaser-settings.yaml"

	// DefaultBinaryName is the executable name distributed by default.
	DefaultBinaryName = "replibyte"

	// DefaultWorkDir is the default root for per-branch working directories.
	DefaultWorkDir = "release-work"

	// DefaultCommandTimeout bounds a single toolchain invocation.
	// Cross builds inside containers are slow; give them room.
	DefaultCommandTimeout = 45 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// ReleaseTokenEnv names the env var with the token allowed to attach
	// files to the release.
	ReleaseTokenEnv = "RELEASER_GITHUB_TOKEN"

	// TapTokenEnv names the env var with the token allowed to open update
	// requests against the formula repository.
	TapTokenEnv = "RELEASER_TAP_GITHUB_TOKEN"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errSourceRepoRequired is returned when the source repository is missing.
	errSourceRepoRequired = errors.New("source repository must be provided")
	// errBadRepoFormat is returned when a repository is not "owner/name".
	errBadRepoFormat = errors.New("repository must be in owner/name form")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and applies defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.SourceRepo == "" {
		return errSourceRepoRequired
	}

	if err := checkRepoFormat(cfg.SourceRepo); err != nil {
		return err
	}

	// The tap is optional: runs without a bump step are legal.
	if cfg.Tap != "" {
		if err := checkRepoFormat(cfg.Tap); err != nil {
			return err
		}
	}

	if cfg.BinaryName == "" {
		cfg.BinaryName = DefaultBinaryName
	}

	if cfg.FormulaName == "" {
		cfg.FormulaName = cfg.BinaryName
	}

	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultWorkDir
	}

	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}

	return nil
}

// SplitRepo splits an "owner/name" repository identifier.
func SplitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: %q", errBadRepoFormat, repo)
	}

	return owner, name, nil
}

// checkRepoFormat validates an "owner/name" repository identifier.
func checkRepoFormat(repo string) error {
	_, _, err := SplitRepo(repo)

	return err
}
