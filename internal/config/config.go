package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultDataset is the Kaggle dataset analyzed when nothing else is configured.
const DefaultDataset = "waqi786/songs-dataset-2000-2020-50k-records"

// Global configuration structure.
type Global struct {
	// Dataset acquisition
	Dataset        string `mapstructure:"dataset" yaml:"dataset"`
	DatasetDir     string `mapstructure:"dataset_dir" yaml:"dataset_dir,omitempty"`
	CacheDir       string `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"`
	KaggleAPIURL   string `mapstructure:"kaggle_api_url" yaml:"kaggle_api_url"`
	KaggleUsername string `mapstructure:"kaggle_username" yaml:"kaggle_username,omitempty"`
	KaggleKey      string `mapstructure:"kaggle_key" yaml:"kaggle_key,omitempty"`

	// Output
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`

	// Analysis knobs
	TopN          int `mapstructure:"top_n" yaml:"top_n"`
	MinGenreCount int `mapstructure:"min_genre_count" yaml:"min_genre_count"`
	TopGenres     int `mapstructure:"top_genres" yaml:"top_genres"`
	PieGenres     int `mapstructure:"pie_genres" yaml:"pie_genres"`
	DurationBins  int `mapstructure:"duration_bins" yaml:"duration_bins"`

	// Column role tuning: role -> keywords, role -> explicit column
	ColumnKeywords  map[string][]string `mapstructure:"column_keywords" yaml:"column_keywords,omitempty"`
	ColumnOverrides map[string]string   `mapstructure:"column_overrides" yaml:"column_overrides,omitempty"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.songlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SONGLENS")
	v.AutomaticEnv()
	// Kaggle credentials keep their conventional names.
	_ = v.BindEnv("kaggle_username", "SONGLENS_KAGGLE_USERNAME", "KAGGLE_USERNAME")
	_ = v.BindEnv("kaggle_key", "SONGLENS_KAGGLE_KEY", "KAGGLE_KEY")

	v.SetDefault("dataset", DefaultDataset)
	v.SetDefault("dataset_dir", "")
	v.SetDefault("cache_dir", "")
	v.SetDefault("kaggle_api_url", "https://www.kaggle.com/api/v1")
	v.SetDefault("output_dir", "songs_figures")
	v.SetDefault("chart_width", 1400)
	v.SetDefault("chart_height", 1000)
	v.SetDefault("top_n", 20)
	v.SetDefault("min_genre_count", 10)
	v.SetDefault("top_genres", 15)
	v.SetDefault("pie_genres", 10)
	v.SetDefault("duration_bins", 5)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 300)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve cache_dir default: ~/.songlens/datasets
	if c.CacheDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		c.CacheDir = filepath.Join(dir, "datasets")
	}
	return &c, nil
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".songlens"), nil
}
