package config

import (
	"strings"

	"github.com/phyten/bracketx/internal/engine"
)

// ScanConfig is one configuration layer for scans. A nil field leaves the
// value of the layer below untouched.
type ScanConfig struct {
	Lang            *string   `yaml:"lang" toml:"lang" json:"lang"`
	Languages       *[]string `yaml:"languages" toml:"languages" json:"languages"`
	Colors          *int      `yaml:"colors" toml:"colors" json:"colors"`
	AnglePolicy     *string   `yaml:"angle_policy" toml:"angle_policy" json:"angle_policy"`
	AngleScript     *string   `yaml:"angle_script" toml:"angle_script" json:"angle_script"`
	Paths           *[]string `yaml:"path" toml:"path" json:"path"`
	Excludes        *[]string `yaml:"exclude" toml:"exclude" json:"exclude"`
	ExcludeTypical  *bool     `yaml:"exclude_typical" toml:"exclude_typical" json:"exclude_typical"`
	PathRegex       *[]string `yaml:"path_regex" toml:"path_regex" json:"path_regex"`
	Jobs            *int      `yaml:"jobs" toml:"jobs" json:"jobs"`
	MaxFileBytes    *int      `yaml:"max_file_bytes" toml:"max_file_bytes" json:"max_file_bytes"`
	Output          *string   `yaml:"output" toml:"output" json:"output"`
	Color           *string   `yaml:"color" toml:"color" json:"color"`
	Cache           *string   `yaml:"cache" toml:"cache" json:"cache"`
	FailOnUnmatched *bool     `yaml:"fail_on_unmatched" toml:"fail_on_unmatched" json:"fail_on_unmatched"`
	Progress        *bool     `yaml:"progress" toml:"progress" json:"progress"`
}

type UIConfig struct {
	Palette   *string `yaml:"palette" toml:"palette" json:"palette"`
	ShowPairs *bool   `yaml:"show_pairs" toml:"show_pairs" json:"show_pairs"`
	Fields    *string `yaml:"fields" toml:"fields" json:"fields"`
}

type Config struct {
	Scan ScanConfig `yaml:"scan" toml:"scan" json:"scan"`
	UI   UIConfig   `yaml:"ui" toml:"ui" json:"ui"`
}

// ScanSettings is the merged, flat view of every scan layer.
type ScanSettings struct {
	Lang            string
	Languages       []string
	Colors          int
	AnglePolicy     string
	AngleScript     string
	Paths           []string
	Excludes        []string
	ExcludeTypical  bool
	PathRegex       []string
	Jobs            int
	MaxFileBytes    int
	Output          string
	Color           string
	Cache           string
	FailOnUnmatched bool
	Progress        bool
}

type UISettings struct {
	Palette   string
	ShowPairs bool
	Fields    string
}

func ScanSettingsFromOptions(opts engine.Options) ScanSettings {
	return ScanSettings{
		Lang:           opts.Lang,
		Languages:      cloneStrings(opts.Languages),
		Colors:         opts.Colors,
		AnglePolicy:    opts.AnglePolicy,
		AngleScript:    opts.AngleScript,
		Paths:          cloneStrings(opts.Paths),
		Excludes:       cloneStrings(opts.Excludes),
		ExcludeTypical: opts.ExcludeTypical,
		PathRegex:      cloneStrings(opts.PathRegex),
		Jobs:           opts.Jobs,
		MaxFileBytes:   opts.MaxFileBytes,
		Output:         "table",
		Color:          "auto",
		Progress:       opts.Progress,
	}
}

// ApplyToOptions copies the engine-facing settings into opts. Output, Color,
// Cache and FailOnUnmatched belong to the caller and are not touched here.
func (s ScanSettings) ApplyToOptions(opts *engine.Options) {
	if opts == nil {
		return
	}
	opts.Lang = strings.TrimSpace(s.Lang)
	opts.Languages = cloneStrings(s.Languages)
	opts.Colors = s.Colors
	if opts.AnglePolicy != s.AnglePolicy || opts.AngleScript != s.AngleScript {
		opts.Policy = nil
		opts.PolicyKey = ""
	}
	opts.AnglePolicy = s.AnglePolicy
	opts.AngleScript = s.AngleScript
	opts.Paths = cloneStrings(s.Paths)
	opts.Excludes = cloneStrings(s.Excludes)
	opts.ExcludeTypical = s.ExcludeTypical
	opts.PathRegex = cloneStrings(s.PathRegex)
	opts.Jobs = s.Jobs
	opts.MaxFileBytes = s.MaxFileBytes
	opts.Progress = s.Progress
}

func DefaultUISettings() UISettings {
	return UISettings{
		Palette:   "",
		ShowPairs: false,
		Fields:    DefaultFields,
	}
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
