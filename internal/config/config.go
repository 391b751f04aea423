// Package config handles configuration loading for form13f.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seenimoa/form13f/internal/changes"
	"github.com/seenimoa/form13f/internal/corpus"
	"github.com/seenimoa/form13f/internal/heatmap"
	"github.com/seenimoa/form13f/internal/scale"
	"github.com/seenimoa/form13f/internal/snapshot"
	"github.com/seenimoa/form13f/internal/style"
)

// EnvPrefix prefixes every environment override, e.g. FORM13F_API_PORT.
const EnvPrefix = "FORM13F"

// Config represents the complete application configuration.
type Config struct {
	Data      DataConfig      `mapstructure:"data"      yaml:"data"`
	Normalize NormalizeConfig `mapstructure:"normalize" yaml:"normalize"`
	Heatmap   HeatmapConfig   `mapstructure:"heatmap"   yaml:"heatmap"`
	Style     StyleConfig     `mapstructure:"style"     yaml:"style"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Export    ExportConfig    `mapstructure:"export"    yaml:"export"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// DataConfig locates the input history and override tables.
type DataConfig struct {
	HistoryPath string `mapstructure:"history_path" yaml:"history_path"`
	TablesPath  string `mapstructure:"tables_path"  yaml:"tables_path"` // empty = embedded defaults
	OutputDir   string `mapstructure:"output_dir"   yaml:"output_dir"`
}

// NormalizeConfig holds snapshot and change-engine tunables.
type NormalizeConfig struct {
	ScaleJumpThreshold float64 `mapstructure:"scale_jump_threshold" yaml:"scale_jump_threshold"`
	ScaleFactor        float64 `mapstructure:"scale_factor"         yaml:"scale_factor"`
	ValueUnit          float64 `mapstructure:"value_unit"           yaml:"value_unit"` // USD per display unit
	MaterialityFloor   float64 `mapstructure:"materiality_floor"    yaml:"materiality_floor"`
	CollapseAfter      int     `mapstructure:"collapse_after"       yaml:"collapse_after"` // 0 = never
}

// HeatmapConfig holds heat aggregation settings.
type HeatmapConfig struct {
	TopN     int     `mapstructure:"top_n"    yaml:"top_n"`
	Floor    float64 `mapstructure:"floor"    yaml:"floor"`
	Contrast float64 `mapstructure:"contrast" yaml:"contrast"`
}

// StyleConfig holds radar display settings.
type StyleConfig struct {
	Gamma float64 `mapstructure:"gamma" yaml:"gamma"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	CacheTTL    int      `mapstructure:"cache_ttl"    yaml:"cache_ttl"` // seconds
}

// ExportConfig holds flat JSON export settings.
type ExportConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Addr is the listen address of the API server.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheDuration is CacheTTL as a duration.
func (c APIConfig) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// CorpusOptions maps the pipeline sections onto corpus options.
func (c *Config) CorpusOptions() corpus.Options {
	return corpus.Options{
		Scale: scale.Options{
			Threshold: c.Normalize.ScaleJumpThreshold,
			Factor:    c.Normalize.ScaleFactor,
		},
		Snapshot: snapshot.Options{
			ValueUnit:     c.Normalize.ValueUnit,
			CollapseAfter: c.Normalize.CollapseAfter,
		},
		Changes: changes.Options{MaterialityFloor: c.Normalize.MaterialityFloor},
		Heatmap: heatmap.Options{
			TopN:     c.Heatmap.TopN,
			Floor:    c.Heatmap.Floor,
			Contrast: c.Heatmap.Contrast,
		},
		Gamma: c.Style.Gamma,
	}
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.form13f/config.yaml (home directory)
//  3. /etc/form13f/config.yaml (system)
//
// Environment variables override config file values.
// Format: FORM13F_<SECTION>_<KEY>, e.g., FORM13F_DATA_HISTORY_PATH
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".form13f"))
	v.AddConfigPath("/etc/form13f")

	bindEnv(v)

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.history_path", "data/sec-13f-history.json")
	v.SetDefault("data.tables_path", "")
	v.SetDefault("data.output_dir", "out")

	// Normalization defaults
	v.SetDefault("normalize.scale_jump_threshold", scale.DefaultThreshold)
	v.SetDefault("normalize.scale_factor", scale.DefaultFactor)
	v.SetDefault("normalize.value_unit", snapshot.DefaultValueUnit) // USD billions
	v.SetDefault("normalize.materiality_floor", changes.DefaultMaterialityFloor)
	v.SetDefault("normalize.collapse_after", 0)

	// Heatmap defaults
	v.SetDefault("heatmap.top_n", heatmap.DefaultTopN)
	v.SetDefault("heatmap.floor", heatmap.DefaultFloor)
	v.SetDefault("heatmap.contrast", heatmap.DefaultContrast)

	v.SetDefault("style.gamma", style.DefaultGamma)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.cache_ttl", 300) // 5 minutes

	v.SetDefault("export.concurrency", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
