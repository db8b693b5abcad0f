// Package config resolves run settings from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/taigrr/project-checker/internal/osv"
	"github.com/taigrr/project-checker/internal/types"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. PROJECT_CHECKER_SKIP.
	EnvPrefix = "PROJECT_CHECKER"
	// FileName is looked up in the project directory when no file is given.
	FileName = ".project-checker.yaml"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"skip":      "skip",
	"log-level": "log_level",
	"osv-url":   "osv_url",
	"timeout":   "timeout",
}

// Options select where configuration is read from.
type Options struct {
	// Dir is the project directory argument; empty means PROJECT_CHECKER_DIR
	// or the working directory.
	Dir string
	// File is an explicit config file. It must exist when set.
	File string
	// Flags are the parsed command-line flags, may be nil.
	Flags *pflag.FlagSet
}

// Load merges, by precedence, flags, environment, the config file and
// defaults. Exclude patterns from the file, environment and flags are
// concatenated.
func Load(opts Options) (types.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("dir", "")
	v.SetDefault("skip", []string{})
	v.SetDefault("log_level", "warn")
	v.SetDefault("osv_url", osv.DefaultURL)
	v.SetDefault("timeout", 5*time.Minute)

	if opts.Flags != nil {
		for flag, key := range flagKeys {
			if f := opts.Flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return types.Config{}, fmt.Errorf("failed to bind flag %s: %w", flag, err)
				}
			}
		}
	}

	dir := opts.Dir
	if dir == "" {
		dir = v.GetString("dir")
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return types.Config{}, fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = wd
	}

	file := opts.File
	if file == "" {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
		} else if !errors.Is(err, fs.ErrNotExist) {
			return types.Config{}, fmt.Errorf("failed to stat %s: %w", candidate, err)
		}
	}

	// The file gets its own instance: AutomaticEnv on v would let
	// PROJECT_CHECKER_EXCLUDE hide the file's exclude list.
	var fileExcludes []string
	if file != "" {
		fv := viper.New()
		fv.SetConfigFile(file)
		fv.SetConfigType("yaml")
		if err := fv.ReadInConfig(); err != nil {
			return types.Config{}, fmt.Errorf("failed to read config %s: %w", file, err)
		}
		fileExcludes = fv.GetStringSlice("exclude")
		if err := v.MergeConfigMap(fv.AllSettings()); err != nil {
			return types.Config{}, fmt.Errorf("failed to merge config %s: %w", file, err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ProjectDir = dir

	excludes, err := mergeExcludes(fileExcludes, opts.Flags)
	if err != nil {
		return types.Config{}, err
	}
	cfg.Exclude = excludes

	if cfg.Timeout <= 0 {
		return types.Config{}, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return cfg, nil
}

// mergeExcludes concatenates exclude patterns from the config file, the
// comma-separated PROJECT_CHECKER_EXCLUDE variable and --exclude, in that order.
func mergeExcludes(fromFile []string, flags *pflag.FlagSet) ([]string, error) {
	excludes := append([]string{}, fromFile...)

	for pattern := range strings.SplitSeq(os.Getenv(EnvPrefix+"_EXCLUDE"), ",") {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			excludes = append(excludes, pattern)
		}
	}

	if flags != nil && flags.Lookup("exclude") != nil {
		fromFlags, err := flags.GetStringArray("exclude")
		if err != nil {
			return nil, fmt.Errorf("failed to read --exclude: %w", err)
		}
		excludes = append(excludes, fromFlags...)
	}
	return excludes, nil
}
