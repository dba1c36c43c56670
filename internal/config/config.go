package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeySource        = "source"
	KeyStyleID       = "style-id"
	KeyContentDir    = "content-dir"
	KeyOutDir        = "out-dir"
	KeyServeAddr     = "serve.addr"
	KeyStatePath     = "state.path"
	KeyPrefersDark   = "prefers-dark"
	KeyFontWeights   = "fonts.weights"
	KeyFetchTimeout  = "fetch.timeout"
	KeyWatchDebounce = "watch.debounce"
	KeyDebug         = "debug"
)

const (
	// DefaultServeAddr is used when -serve is given without a value.
	DefaultServeAddr = "localhost:8888"
	dirName          = ".hbtheme"
	fileName         = "config.yaml"
	envPrefix        = "HBT"
)

type initSettings struct {
	workingDir        string
	projectConfigPath string
	userConfigPath    string
}

// Option configures Load. Useful for tests to override paths.
type Option func(*initSettings)

// WithWorkingDir overrides the directory used for project config discovery.
func WithWorkingDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.workingDir = dir
	}
}

// WithProjectConfig explicitly sets the project config path instead of discovery.
func WithProjectConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.projectConfigPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

// Config is a loaded configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration using the precedence:
// defaults < user config < project config < environment variables.
// Flag values are layered on top with ApplyOverrides.
func Load(opts ...Option) (*Config, error) {
	settings := initSettings{}
	for _, opt := range opts {
		opt(&settings)
	}

	workingDir := strings.TrimSpace(settings.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return nil, err
		}
		userConfigPath = path
	}

	projectConfigPath := strings.TrimSpace(settings.projectConfigPath)
	if projectConfigPath == "" {
		path, err := findProjectConfig(workingDir)
		if err != nil {
			return nil, err
		}
		projectConfigPath = path
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, userConfigPath); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	}
	if err := mergeConfigFile(v, projectConfigPath); err != nil {
		return nil, fmt.Errorf("load project config: %w", err)
	}
	return &Config{v: v}, nil
}

// ApplyOverrides injects values typically coming from CLI flags.
func (c *Config) ApplyOverrides(overrides map[string]any) {
	for k, val := range overrides {
		c.v.Set(k, val)
	}
}

// GetString fetches a string configuration value.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetBool fetches a bool configuration value.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetDuration fetches a duration configuration value.
func (c *Config) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// GetStringSlice fetches a list value. A comma-separated string (as set from
// the environment) is split.
func (c *Config) GetStringSlice(key string) []string {
	raw := c.v.GetStringSlice(key)
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: Config loader intentionally reads user and project config files
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

func findProjectConfig(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", nil
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, dirName, fileName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeySource, "styles/index.css")
	v.SetDefault(KeyStyleID, "injected-theme-styles")
	v.SetDefault(KeyContentDir, "content")
	v.SetDefault(KeyOutDir, "public")
	v.SetDefault(KeyServeAddr, DefaultServeAddr)
	v.SetDefault(KeyStatePath, filepath.Join(dirName, "state.db"))
	v.SetDefault(KeyPrefersDark, "auto")
	v.SetDefault(KeyFontWeights, []string{"400", "500", "600", "700"})
	v.SetDefault(KeyFetchTimeout, 10*time.Second)
	v.SetDefault(KeyWatchDebounce, 500*time.Millisecond)
	v.SetDefault(KeyDebug, false)
}
