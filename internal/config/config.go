// Package config holds the piastats settings and loads them with viper
// from, in rising priority, defaults, a YAML file, PIASTATS_* environment
// variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PIASTATS_OUTPUT_DIR.
const EnvPrefix = "PIASTATS"

// FileName is the config file looked up in $HOME and the working directory.
const FileName = ".piastats"

// Config is the full set of settings for a run.
type Config struct {
	Input    []string     `mapstructure:"input" yaml:"input"`
	Keywords []string     `mapstructure:"keywords" yaml:"keywords"`
	Output   OutputConfig `mapstructure:"output" yaml:"output"`
	Log      LogConfig    `mapstructure:"log" yaml:"log"`
	Watch    WatchConfig  `mapstructure:"watch" yaml:"watch"`
}

// OutputConfig controls where and how CSV exports are written.
type OutputConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir"`
	Extension string `mapstructure:"extension" yaml:"extension"`
	CRLF      bool   `mapstructure:"crlf" yaml:"crlf"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // console, json
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// MarshalYAML writes the debounce as "2s" rather than nanoseconds.
func (w WatchConfig) MarshalYAML() (interface{}, error) {
	return map[string]string{"debounce": w.Debounce.String()}, nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Input:    []string{"speedtest.log"},
		Keywords: []string{"Date", "Download", "Upload"},
		Output: OutputConfig{
			Dir:       ".",
			Extension: "csv",
			CRLF:      true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}

// SetDefaults registers Default() with v. Every key must have a default for
// AutomaticEnv to reach it during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("input", d.Input)
	v.SetDefault("keywords", d.Keywords)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.extension", d.Output.Extension)
	v.SetDefault("output.crlf", d.Output.CRLF)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
}

// Init prepares v: defaults, environment overrides and the config file.
// An explicit file must exist; the implicit $HOME/.piastats.yaml and
// ./.piastats.yaml are optional.
func Init(v *viper.Viper, file string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes v into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no run could succeed with.
func (c Config) Validate() error {
	var problems []error
	if len(c.Input) == 0 {
		problems = append(problems, errors.New("input: at least one path is required"))
	}
	if len(c.Keywords) == 0 {
		problems = append(problems, errors.New("keywords: at least one keyword is required"))
	}
	for _, k := range c.Keywords {
		if k == "" {
			problems = append(problems, errors.New("keywords: empty keyword matches every line"))
			break
		}
	}
	if strings.TrimPrefix(c.Output.Extension, ".") == "" {
		problems = append(problems, errors.New("output.extension: must not be empty"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		problems = append(problems, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Watch.Debounce < 0 {
		problems = append(problems, errors.New("watch.debounce: must not be negative"))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}
	return nil
}

// Save writes c to path as YAML, creating parent directories.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
