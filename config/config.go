// Package config loads the tool's settings from defaults, an optional YAML
// file and ASSETMAN_ environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"asset-manifest/logging"
)

const (
	// DefaultFileName is looked up in the project root when no --config is
	// given.
	DefaultFileName = "asset-manifest.yaml"

	EnvPrefix = "ASSETMAN_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

var fs = afero.NewOsFs()

const defaults = `
root: .
manifest: manifest.json
exclude:
  dirs: []
  files: []
server:
  port: 5000
  write: false
  uploads_dir: ""
log:
  level: info
  format: console
journal:
  enabled: true
`

type Config struct {
	Root        string         `koanf:"root"`
	Manifest    string         `koanf:"manifest"`
	ProjectName string         `koanf:"project_name"`
	Exclude     ExcludeConfig  `koanf:"exclude"`
	Server      ServerConfig   `koanf:"server"`
	Log         logging.Config `koanf:"log"`
	Journal     JournalConfig  `koanf:"journal"`

	// File is the YAML file that was read, if any.
	File string `koanf:"-"`
}

// ExcludeConfig adds scan exclusions on top of the built-in ones.
type ExcludeConfig struct {
	Dirs  []string `koanf:"dirs"`
	Files []string `koanf:"files"`
}

type ServerConfig struct {
	Port       int    `koanf:"port"`
	Write      bool   `koanf:"write"`
	UploadsDir string `koanf:"uploads_dir"`
}

type JournalConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Load reads configuration. configPath may be empty, in which case
// DefaultFileName under root is used when it exists. root overrides the
// configured root when non-empty.
func Load(configPath, root string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaults)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	envProvider := env.Provider(EnvPrefix, ".", envKey)
	envOnly := koanf.New(".")
	if err := envOnly.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if root == "" {
		root = envOnly.String("root")
	}
	if root == "" {
		root = "."
	}
	root, err := homedir.Expand(root)
	if err != nil {
		return nil, fmt.Errorf("failed to expand root: %w", err)
	}

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(root, DefaultFileName)
	}
	configPath, err = homedir.Expand(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	content, err := readConfigFile(configPath)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case errors.Is(err, errMissing) && !explicit:
		configPath = ""
	default:
		return nil, err
	}

	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Root = root
	cfg.File = configPath

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

var errMissing = errors.New("config file not found")

func readConfigFile(path string) ([]byte, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errMissing, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s too large: %d bytes (max %d)", path, info.Size(), maxConfigFileSize)
	}
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

var topLevelKeys = map[string]bool{
	"root":         true,
	"manifest":     true,
	"project_name": true,
}

// envKey maps ASSETMAN_SERVER_UPLOADS_DIR to server.uploads_dir. Only the
// first underscore after the prefix separates section from field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if topLevelKeys[lower] {
		return lower
	}
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func applyDefaults(cfg *Config) {
	if cfg.Manifest == "" {
		cfg.Manifest = "manifest.json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.ProjectName == "" {
		abs, err := filepath.Abs(cfg.Root)
		if err == nil {
			cfg.ProjectName = filepath.Base(abs)
		}
	}
}

func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if strings.ContainsAny(filepath.Base(c.Manifest), "*?[") {
		return fmt.Errorf("manifest %q must be a file name", c.Manifest)
	}
	return c.Log.Validate()
}

// ManifestPath resolves Manifest against Root unless it is absolute.
func (c *Config) ManifestPath() string {
	p, err := homedir.Expand(c.Manifest)
	if err != nil {
		p = c.Manifest
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// UploadsPath is where tus keeps partial uploads. It defaults to a hidden
// directory under the root, which scans skip.
func (c *Config) UploadsPath() string {
	if c.Server.UploadsDir == "" {
		return filepath.Join(c.Root, UploadsDirName)
	}
	p, err := homedir.Expand(c.Server.UploadsDir)
	if err != nil {
		p = c.Server.UploadsDir
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// UploadsDirName is the default tus storage directory under the root.
const UploadsDirName = ".uploads"
