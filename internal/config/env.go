package config

import (
	"errors"
	"math"
	"strings"

	engineopts "github.com/phyten/bracketx/internal/engine/opts"
)

// FromEnv reads the BRACKETX_* layer. Every malformed value is reported.
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	var cfg Config
	var errs []error

	setString := func(target **string, key string) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		value := raw
		*target = &value
	}
	setList := func(target **[]string, key string) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		list := engineopts.SplitMulti([]string{raw})
		if len(list) == 0 {
			empty := make([]string, 0)
			*target = &empty
			return
		}
		copyVals := make([]string, len(list))
		copy(copyVals, list)
		*target = &copyVals
	}
	setBool := func(target **bool, key string) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		v, err := engineopts.ParseBool(raw, key)
		if err != nil {
			errs = append(errs, err)
			return
		}
		value := v
		*target = &value
	}
	setInt := func(target **int, key string, min, max int) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		v, err := engineopts.ParseIntInRange(raw, key, min, max)
		if err != nil {
			errs = append(errs, err)
			return
		}
		value := v
		*target = &value
	}

	setString(&cfg.Scan.Lang, "BRACKETX_LANG")
	setList(&cfg.Scan.Languages, "BRACKETX_LANGUAGES")
	setInt(&cfg.Scan.Colors, "BRACKETX_COLORS", 1, math.MaxInt)
	setString(&cfg.Scan.AnglePolicy, "BRACKETX_ANGLE_POLICY")
	setString(&cfg.Scan.AngleScript, "BRACKETX_ANGLE_SCRIPT")
	setList(&cfg.Scan.Paths, "BRACKETX_PATH")
	setList(&cfg.Scan.Excludes, "BRACKETX_EXCLUDE")
	setBool(&cfg.Scan.ExcludeTypical, "BRACKETX_EXCLUDE_TYPICAL")
	setList(&cfg.Scan.PathRegex, "BRACKETX_PATH_REGEX")
	setInt(&cfg.Scan.MaxFileBytes, "BRACKETX_MAX_FILE_BYTES", 0, math.MaxInt)
	// Upper bounds for jobs and colors are enforced by NormalizeAndValidate
	// so every input path reports the same message.
	setInt(&cfg.Scan.Jobs, "BRACKETX_JOBS", 0, math.MaxInt)
	setString(&cfg.Scan.Output, "BRACKETX_OUTPUT")
	setString(&cfg.Scan.Color, "BRACKETX_COLOR")
	setString(&cfg.Scan.Cache, "BRACKETX_CACHE")
	setBool(&cfg.Scan.FailOnUnmatched, "BRACKETX_FAIL_ON_UNMATCHED")
	setBool(&cfg.Scan.Progress, "BRACKETX_PROGRESS")

	setString(&cfg.UI.Palette, "BRACKETX_PALETTE")
	setBool(&cfg.UI.ShowPairs, "BRACKETX_SHOW_PAIRS")
	setString(&cfg.UI.Fields, "BRACKETX_FIELDS")

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, nil
}
