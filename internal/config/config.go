// Package config loads srcpack settings using Viper.
//
// Settings come from, in increasing precedence: built-in defaults, a
// srcpack.toml file, and SRCPACK_* environment variables. Command-line
// flags are applied on top by the CLI.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName names the configuration directory.
	AppName = "srcpack"
	// FileName is the configuration file name looked up on disk.
	FileName = "srcpack.toml"
	// EnvPrefix prefixes environment overrides, e.g. SRCPACK_LOG_LEVEL.
	EnvPrefix = "SRCPACK"
)

var (
	// ErrNotFound is returned when an explicitly requested config file is missing.
	ErrNotFound = errors.New("config: file not found")
	// ErrInvalid is returned when a loaded setting has an unsupported value.
	ErrInvalid = errors.New("config: invalid value")
)

type (
	// Config is the full srcpack configuration.
	Config struct {
		LogLevel  string          `mapstructure:"log_level"`
		Pack      PackConfig      `mapstructure:"pack"`
		Container ContainerConfig `mapstructure:"container"`
		Registry  RegistryConfig  `mapstructure:"registry"`
	}

	// PackConfig controls project discovery and manifest output.
	PackConfig struct {
		ModuleMarkers []string `mapstructure:"module_markers"`
		TestDirs      []string `mapstructure:"test_dirs"`
		TestPatterns  []string `mapstructure:"test_patterns"`
		Exclude       []string `mapstructure:"exclude"`
		DefaultDepth  int      `mapstructure:"default_depth"`
		Compress      bool     `mapstructure:"compress"`
	}

	// ContainerConfig controls containerized builds.
	ContainerConfig struct {
		Engine      string `mapstructure:"engine"`
		Image       string `mapstructure:"image"`
		CacheDir    string `mapstructure:"cache_dir"`
		Interactive bool   `mapstructure:"interactive"`
		TTY         bool   `mapstructure:"tty"`
	}

	// RegistryConfig controls OCI registry access.
	RegistryConfig struct {
		PlainHTTP    bool   `mapstructure:"plain_http"`
		DockerConfig bool   `mapstructure:"docker_config"`
		UserAgent    string `mapstructure:"user_agent"`
	}

	// LoadOptions tells Load where to look.
	LoadOptions struct {
		// ConfigFile is used exclusively when set and must exist.
		ConfigFile string
		// WorkDir is searched first for srcpack.toml. Defaults to the
		// current directory.
		WorkDir string
		// ConfigDir is searched second. Defaults to the user config
		// directory joined with AppName.
		ConfigDir string
	}
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Pack: PackConfig{
			ModuleMarkers: []string{"Cargo.toml"},
			TestDirs:      []string{"tests"},
			TestPatterns:  []string{"*_test.rs"},
			Exclude:       []string{".git", "target", "output"},
		},
		Container: ContainerConfig{
			Engine:      "docker",
			Interactive: true,
			TTY:         true,
		},
		Registry: RegistryConfig{
			DockerConfig: true,
			UserAgent:    "srcpack",
		},
	}
}

// Load resolves the configuration. It returns the path of the file that was
// read, or "" when only defaults and the environment applied.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	if !slices.Contains([]string{"docker", "podman"}, c.Container.Engine) {
		return fmt.Errorf("%w: container.engine %q", ErrInvalid, c.Container.Engine)
	}
	if c.Pack.DefaultDepth < 0 {
		return fmt.Errorf("%w: pack.default_depth %d", ErrInvalid, c.Pack.DefaultDepth)
	}
	return nil
}

// Dir returns the user-level configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if !fileExists(opts.ConfigFile) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}

	local := filepath.Join(opts.WorkDir, FileName)
	if fileExists(local) {
		return local, nil
	}

	dir := opts.ConfigDir
	if dir == "" {
		d, err := Dir()
		if err != nil {
			// No user config directory; defaults still apply.
			return "", nil
		}
		dir = d
	}
	user := filepath.Join(dir, FileName)
	if fileExists(user) {
		return user, nil
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("pack.module_markers", d.Pack.ModuleMarkers)
	v.SetDefault("pack.test_dirs", d.Pack.TestDirs)
	v.SetDefault("pack.test_patterns", d.Pack.TestPatterns)
	v.SetDefault("pack.exclude", d.Pack.Exclude)
	v.SetDefault("pack.default_depth", d.Pack.DefaultDepth)
	v.SetDefault("pack.compress", d.Pack.Compress)
	v.SetDefault("container.engine", d.Container.Engine)
	v.SetDefault("container.image", d.Container.Image)
	v.SetDefault("container.cache_dir", d.Container.CacheDir)
	v.SetDefault("container.interactive", d.Container.Interactive)
	v.SetDefault("container.tty", d.Container.TTY)
	v.SetDefault("registry.plain_http", d.Registry.PlainHTTP)
	v.SetDefault("registry.docker_config", d.Registry.DockerConfig)
	v.SetDefault("registry.user_agent", d.Registry.UserAgent)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
