package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// EnvString returns the trimmed value of key and whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvFloat parses key as a float.
func EnvFloat(key string) (float64, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return f, true, nil
}

// EnvBool parses key as a boolean.
func EnvBool(key string) (bool, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return b, true, nil
}

// EnvDuration parses key with time.ParseDuration.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

// EnvList splits key on commas, dropping empty entries.
func EnvList(key string) ([]string, bool) {
	value, ok := EnvString(key)
	if !ok {
		return nil, false
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, len(out) > 0
}

// FromEnv returns DefaultConfig with SNAX_* overrides and, when SNAX_TARGETS
// is set, the targets file applied.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	if path, ok := EnvString("SNAX_TARGETS"); ok {
		targets, err := LoadTargets(path)
		if err != nil {
			return nil, err
		}
		targets.Apply(cfg)
		cfg.TargetsFile = path
	}

	if v, ok := EnvString("SNAX_BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := EnvString("SNAX_OUTPUT_DIR"); ok {
		cfg.OutputDir = v
	}
	if v, ok := EnvString("SNAX_FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(v)
	}
	if v, ok := EnvString("SNAX_USER_AGENT"); ok {
		cfg.UserAgent = v
	}
	if v, ok := EnvString("SNAX_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := EnvString("SNAX_DESCRIPTION_COMPARE"); ok {
		cfg.DescriptionCompare = strings.ToLower(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SNAX_MAX_PAGES", &cfg.MaxPages},
		{"SNAX_RETRY_ATTEMPTS", &cfg.RetryAttempts},
		{"SNAX_PROGRESS_EVERY", &cfg.ProgressEvery},
	}
	for _, e := range ints {
		v, ok, err := EnvInt(e.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*e.dst = v
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SNAX_TIMEOUT", &cfg.Timeout},
		{"SNAX_RETRY_BACKOFF", &cfg.RetryBackoff},
		{"SNAX_RETRY_BACKOFF_MAX", &cfg.RetryBackoffMax},
	}
	for _, e := range durations {
		v, ok, err := EnvDuration(e.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*e.dst = v
		}
	}

	if v, ok, err := EnvFloat("SNAX_RETRY_MULTIPLIER"); err != nil {
		return nil, err
	} else if ok {
		cfg.RetryMultiplier = v
	}
	if v, ok, err := EnvBool("SNAX_VERBOSE"); err != nil {
		return nil, err
	} else if ok {
		cfg.Verbose = v
	}

	return cfg, nil
}

// LoaderFromEnv returns DefaultLoaderConfig with SNAXDB_* overrides.
func LoaderFromEnv() (*LoaderConfig, error) {
	cfg := DefaultLoaderConfig()

	strs := []struct {
		key string
		dst *string
	}{
		{"SNAXDB_PATH", &cfg.DBPath},
		{"SNAXDB_PRODUCT_FILE", &cfg.ProductFile},
		{"SNAXDB_MORE_FILE", &cfg.MoreFile},
		{"SNAXDB_PRODUCT_TABLE", &cfg.ProductTable},
		{"SNAXDB_PRODUCT_INDEX", &cfg.ProductIndex},
		{"SNAXDB_PRODUCT_KEY", &cfg.ProductKey},
		{"SNAXDB_PERSON_FILE", &cfg.PersonFile},
		{"SNAXDB_PERSON_TABLE", &cfg.PersonTable},
		{"SNAXDB_PERSON_INDEX", &cfg.PersonIndex},
		{"SNAXDB_PERSON_KEY", &cfg.PersonKey},
	}
	for _, e := range strs {
		if v, ok := EnvString(e.key); ok {
			*e.dst = v
		}
	}

	if cols, ok := EnvList("SNAXDB_APPEND_COLUMNS"); ok {
		cfg.AppendColumns = cols
	}
	if v, ok, err := EnvInt("SNAXDB_DEDUPE_CACHE"); err != nil {
		return nil, err
	} else if ok {
		cfg.DedupeCacheSize = v
	}
	if v, ok, err := EnvBool("SNAX_VERBOSE"); err != nil {
		return nil, err
	} else if ok {
		cfg.Verbose = v
	}

	return cfg, nil
}
