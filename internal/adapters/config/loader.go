// Package config provides the configuration loader for sieve.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds sieve.yaml in cwd or the nearest parent directory and returns
// the resolved configuration. Without a file, the defaults rooted at cwd are
// returned.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "cwd", cwd)
	}

	configPath, err := findConfiguration(abs)
	if err != nil {
		l.Logger.Debug(fmt.Sprintf("no %s found, using defaults", domain.ConfigFileName))
		return resolvePaths(domain.DefaultConfig(abs)), nil
	}
	l.Logger.Debug("using configuration " + configPath)

	var file Sievefile
	if err := readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, err
	}
	return l.build(configPath, &file)
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) build(configPath string, file *Sievefile) (*domain.Config, error) {
	cfg := domain.DefaultConfig(resolveRoot(configPath, file.Root))

	if len(file.Entrypoints) > 0 {
		cfg.Entrypoints = file.Entrypoints
	}
	if file.Exclude != nil {
		cfg.Exclude = append(cfg.Exclude, file.Exclude...)
	}
	for _, pattern := range slices.Concat(cfg.Entrypoints, cfg.Exclude) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, invalid(configPath, "invalid glob pattern", "pattern", pattern)
		}
	}

	for name, enabled := range file.Scanners {
		if !enabled {
			cfg.DisabledScanners = append(cfg.DisabledScanners, name)
		}
	}
	slices.Sort(cfg.DisabledScanners)

	for i, s := range file.Scripts {
		if s.Path == "" || s.Type == "" {
			return nil, invalid(configPath, "script needs a path and a type", "script", i)
		}
		cfg.Scripts = append(cfg.Scripts, domain.ScriptConfig{
			Name:         s.Name,
			Path:         s.Path,
			DocumentType: s.Type,
			NodeTypes:    s.NodeTypes,
		})
	}

	if file.Watch.Debounce != "" {
		d, err := time.ParseDuration(file.Watch.Debounce)
		if err != nil || d < 0 {
			return nil, invalid(configPath, "invalid watch debounce", "debounce", file.Watch.Debounce)
		}
		cfg.Debounce = d
	}
	if file.Index.Path != "" {
		cfg.IndexPath = file.Index.Path
	}
	if file.Store.Path != "" {
		cfg.StorePath = file.Store.Path
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}

	if file.Version != "" && file.Version != "1" {
		l.Logger.Warn(fmt.Sprintf("unknown %s version %q, reading it as version 1", domain.ConfigFileName, file.Version))
	}
	return resolvePaths(cfg), nil
}

// resolvePaths makes the index and store paths absolute against the root.
func resolvePaths(cfg *domain.Config) *domain.Config {
	if !filepath.IsAbs(cfg.IndexPath) {
		cfg.IndexPath = filepath.Join(cfg.Root, cfg.IndexPath)
	}
	if !filepath.IsAbs(cfg.StorePath) {
		cfg.StorePath = filepath.Join(cfg.Root, cfg.StorePath)
	}
	return cfg
}

func invalid(configPath, msg, key string, value any) error {
	err := zerr.With(zerr.Wrap(domain.ErrInvalidConfig, msg), key, value)
	return zerr.With(err, "config", configPath)
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is found by discovery
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read config file"), "config", configPath)
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.With(domain.WrapAs(domain.ErrInvalidConfig, parseErr), "config", configPath)
	}

	return nil
}
