package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all engine settings.
const envPrefix = "PREPINTEL"

// configKeys lists every settable configuration key.  Viper only includes a
// key in Unmarshal when it is known from a file, a default, or an explicit
// binding, so each key is bound individually to make pure-environment loading
// work without a config file.
var configKeys = []string{
	"engine.normalizer.min_token_length",
	"engine.normalizer.extra_stopwords",
	"engine.normalizer.extra_keep_terms",
	"engine.extraction.min_doc_frequency",
	"engine.extraction.merge_threshold",
	"engine.extraction.saturation_pivot",
	"engine.extraction.max_topics",
	"engine.scoring.half_life_days",
	"engine.scoring.min_sample_size",
	"engine.scoring.confidence_level",
	"engine.scoring.keyword_weight",
	"engine.scoring.round_weight",
	"engine.scoring.depth_weight",
	"engine.scoring.outcome_weight",
	"engine.scoring.round_count_pivot",
	"engine.scoring.tech_depth_pivot",
	"engine.scoring.frequency_blend",
	"engine.scoring.confidence_blend",
	"engine.scoring.high_threshold",
	"engine.scoring.medium_threshold",
	"engine.trend.bucket_months",
	"engine.trend.min_buckets",
	"engine.trend.significance_level",
	"engine.trend.min_strength",
	"engine.insights.frequency_weight",
	"engine.insights.difficulty_weight",
	"engine.insights.outcome_weight",
	"engine.insights.trend_weight",
	"engine.insights.base_hours",
	"engine.insights.difficulty_factor",
	"engine.insights.breadth_factor",
	"engine.insights.max_immediate",
	"engine.insights.max_secondary",
	"engine.runtime.batch_size",
	"engine.runtime.max_concurrent_companies",
	"taxonomy.path",
	"logging.level",
	"logging.format",
	"logging.output_paths",
	"logging.error_output_paths",
	"metrics.enabled",
	"metrics.namespace",
}

// newViper builds a pre-configured viper instance: YAML file type,
// PREPINTEL_ env prefix, automatic env binding, and a "." → "_" key replacer
// so nested keys like "engine.scoring.half_life_days" resolve to
// "PREPINTEL_ENGINE_SCORING_HALF_LIFE_DAYS".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges PREPINTEL_* environment
// overrides, applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from PREPINTEL_* environment variables
// and defaults, with no config file required.  Preferred for containerised
// deployments.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// LoadTaxonomyFile reads a standalone taxonomy YAML file (a document with a
// top-level "categories" list) and returns its category definitions.  Used
// when Config.Taxonomy.Path points away from the main config file.
func LoadTaxonomyFile(path string) ([]CategoryConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read taxonomy file %q: %w", path, err)
	}

	var out struct {
		Categories []CategoryConfig `mapstructure:"categories"`
	}
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal taxonomy file %q: %w", path, err)
	}

	tc := TaxonomyConfig{Categories: out.Categories}
	if err := tc.validate(); err != nil {
		return nil, fmt.Errorf("config: taxonomy file %q invalid: %w", path, err)
	}
	return out.Categories, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed
// Config whenever the file changes on disk.  It is intended for hot-reload
// of non-critical settings such as the log level; the taxonomy and the
// statistical tunables of running analyses are never swapped mid-run, so
// callers must apply only the safe subset.
//
// Watch is non-blocking; viper manages the background goroutine.  A change
// that fails to parse or validate is dropped without invoking onChange.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; callers are expected to have called Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad wraps Load and panics on error.  For use in main() where a config
// failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
