package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/songlens-cli/internal/columns"
	cfgpkg "github.com/KaramelBytes/songlens-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set SongLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "dataset: %s\n", cfg.Dataset)
		if cfg.DatasetDir != "" {
			fmt.Fprintf(out, "dataset_dir: %s\n", cfg.DatasetDir)
		}
		fmt.Fprintf(out, "cache_dir: %s\n", cfg.CacheDir)
		fmt.Fprintf(out, "kaggle_api_url: %s\n", cfg.KaggleAPIURL)
		if cfg.KaggleUsername != "" {
			fmt.Fprintf(out, "kaggle_username: %s\n", cfg.KaggleUsername)
		}
		if cfg.KaggleKey != "" {
			fmt.Fprintf(out, "kaggle_key: %s\n", mask(cfg.KaggleKey))
		}
		fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		fmt.Fprintf(out, "chart_width: %d\n", cfg.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", cfg.ChartHeight)
		fmt.Fprintf(out, "top_n: %d\n", cfg.TopN)
		fmt.Fprintf(out, "min_genre_count: %d\n", cfg.MinGenreCount)
		fmt.Fprintf(out, "top_genres: %d\n", cfg.TopGenres)
		fmt.Fprintf(out, "pie_genres: %d\n", cfg.PieGenres)
		fmt.Fprintf(out, "duration_bins: %d\n", cfg.DurationBins)
		for _, role := range sortedKeys(cfg.ColumnKeywords) {
			fmt.Fprintf(out, "column_keywords.%s: %s\n", role, strings.Join(cfg.ColumnKeywords[role], ","))
		}
		for _, role := range sortedKeys(cfg.ColumnOverrides) {
			fmt.Fprintf(out, "column_overrides.%s: %s\n", role, cfg.ColumnOverrides[role])
		}
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		fmt.Fprintf(out, "retry_base_delay_ms: %d\n", cfg.RetryBaseDelayMs)
		fmt.Fprintf(out, "retry_max_delay_ms: %d\n", cfg.RetryMaxDelayMs)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk.

Column roles are tuned with dotted keys:
  column_keywords.<role>   comma-separated substrings, e.g. "hits,plays"
  column_overrides.<role>  exact column name; empty clears the override`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := setKey(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setKey(c *cfgpkg.Global, key, val string) error {
	if role, ok := strings.CutPrefix(key, "column_keywords."); ok {
		r, err := columns.ParseRole(role)
		if err != nil {
			return err
		}
		var kws []string
		for _, k := range strings.Split(val, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kws = append(kws, k)
			}
		}
		if c.ColumnKeywords == nil {
			c.ColumnKeywords = map[string][]string{}
		}
		if len(kws) == 0 {
			delete(c.ColumnKeywords, string(r))
			return nil
		}
		c.ColumnKeywords[string(r)] = kws
		return nil
	}
	if role, ok := strings.CutPrefix(key, "column_overrides."); ok {
		r, err := columns.ParseRole(role)
		if err != nil {
			return err
		}
		if c.ColumnOverrides == nil {
			c.ColumnOverrides = map[string]string{}
		}
		if strings.TrimSpace(val) == "" {
			delete(c.ColumnOverrides, string(r))
			return nil
		}
		c.ColumnOverrides[string(r)] = val
		return nil
	}

	switch key {
	case "dataset":
		c.Dataset = val
	case "dataset_dir":
		c.DatasetDir = val
	case "cache_dir":
		c.CacheDir = val
	case "kaggle_api_url":
		c.KaggleAPIURL = val
	case "kaggle_username":
		c.KaggleUsername = val
	case "kaggle_key":
		c.KaggleKey = val
	case "output_dir":
		c.OutputDir = val
	case "chart_width", "chart_height", "top_n", "min_genre_count", "top_genres", "pie_genres", "duration_bins",
		"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int for %s: %v", key, val)
		}
		*intField(c, key) = i
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func intField(c *cfgpkg.Global, key string) *int {
	switch key {
	case "chart_width":
		return &c.ChartWidth
	case "chart_height":
		return &c.ChartHeight
	case "top_n":
		return &c.TopN
	case "min_genre_count":
		return &c.MinGenreCount
	case "top_genres":
		return &c.TopGenres
	case "pie_genres":
		return &c.PieGenres
	case "duration_bins":
		return &c.DurationBins
	case "http_timeout_sec":
		return &c.HTTPTimeoutSec
	case "retry_max_attempts":
		return &c.RetryMaxAttempts
	case "retry_base_delay_ms":
		return &c.RetryBaseDelayMs
	default:
		return &c.RetryMaxDelayMs
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
