package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	engineopts "github.com/phyten/bracketx/internal/engine/opts"
)

var scanKeyMap = map[string]string{
	"lang":              "lang",
	"language":          "lang",
	"languages":         "languages",
	"langs":             "languages",
	"colors":            "colors",
	"color_count":       "colors",
	"angle_policy":      "angle_policy",
	"angle_script":      "angle_script",
	"path":              "path",
	"paths":             "path",
	"exclude":           "exclude",
	"excludes":          "exclude",
	"exclude_typical":   "exclude_typical",
	"path_regex":        "path_regex",
	"path_regexes":      "path_regex",
	"jobs":              "jobs",
	"max_file_bytes":    "max_file_bytes",
	"max_bytes":         "max_file_bytes",
	"output":            "output",
	"color":             "color",
	"cache":             "cache",
	"fail_on_unmatched": "fail_on_unmatched",
	"progress":          "progress",
}

var uiKeyMap = map[string]string{
	"palette":    "palette",
	"show_pairs": "show_pairs",
	"fields":     "fields",
}

func Load(path string) (Config, error) {
	var cfg Config
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var raw map[string]any
	switch ext {
	case ".yaml", ".yml":
		if decodeErr := yaml.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".toml":
		if decodeErr := toml.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".json":
		if decodeErr := json.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if raw == nil {
		return cfg, nil
	}
	decoded, err := decodeConfigMap(raw)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return decoded, nil
}

func decodeConfigMap(raw map[string]any) (Config, error) {
	var cfg Config
	scanSection := make(map[string]any)
	uiSection := make(map[string]any)

	for key, block := range raw {
		var (
			dst     map[string]any
			allowed map[string]string
			name    string
		)
		switch normalizeKey(key) {
		case "scan":
			dst, allowed, name = scanSection, scanKeyMap, "scan"
		case "ui":
			dst, allowed, name = uiSection, uiKeyMap, "ui"
		default:
			continue
		}
		sub, err := toStringKeyMap(block)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", name, err)
		}
		if err := fillSection(dst, sub, allowed, name); err != nil {
			return cfg, err
		}
	}

	for key, value := range raw {
		norm := normalizeKey(key)
		switch norm {
		case "scan", "ui":
			continue
		default:
			if canonical, ok := scanKeyMap[norm]; ok {
				scanSection[canonical] = value
				continue
			}
			if canonical, ok := uiKeyMap[norm]; ok {
				uiSection[canonical] = value
				continue
			}
			return cfg, fmt.Errorf("unknown config key: %s", key)
		}
	}

	if err := assignScan(scanSection, &cfg.Scan); err != nil {
		return cfg, fmt.Errorf("scan: %w", err)
	}
	if err := assignUI(uiSection, &cfg.UI); err != nil {
		return cfg, fmt.Errorf("ui: %w", err)
	}
	return cfg, nil
}

func fillSection(dst, src map[string]any, allowed map[string]string, section string) error {
	for key, value := range src {
		canonical, ok := allowed[normalizeKey(key)]
		if !ok {
			return fmt.Errorf("unknown %s key: %s", section, key)
		}
		dst[canonical] = value
	}
	return nil
}

func assignScan(section map[string]any, dst *ScanConfig) error {
	for key, value := range section {
		switch key {
		case "lang", "angle_policy", "angle_script", "output", "color", "cache":
			str, err := expectString(value, key)
			if err != nil {
				return err
			}
			trimmed := strings.TrimSpace(str)
			switch key {
			case "lang":
				dst.Lang = &trimmed
			case "angle_policy":
				dst.AnglePolicy = &trimmed
			case "angle_script":
				dst.AngleScript = &trimmed
			case "output":
				dst.Output = &trimmed
			case "color":
				dst.Color = &trimmed
			case "cache":
				dst.Cache = &trimmed
			}
		case "languages", "path", "exclude", "path_regex":
			list, err := expectStringList(value, key)
			if err != nil {
				return err
			}
			switch key {
			case "languages":
				dst.Languages = &list
			case "path":
				dst.Paths = &list
			case "exclude":
				dst.Excludes = &list
			case "path_regex":
				dst.PathRegex = &list
			}
		case "colors", "jobs", "max_file_bytes":
			n, err := expectInt(value, key)
			if err != nil {
				return err
			}
			switch key {
			case "colors":
				dst.Colors = &n
			case "jobs":
				dst.Jobs = &n
			case "max_file_bytes":
				dst.MaxFileBytes = &n
			}
		case "exclude_typical", "fail_on_unmatched", "progress":
			b, err := expectBool(value, key)
			if err != nil {
				return err
			}
			switch key {
			case "exclude_typical":
				dst.ExcludeTypical = &b
			case "fail_on_unmatched":
				dst.FailOnUnmatched = &b
			case "progress":
				dst.Progress = &b
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
	}
	return nil
}

func assignUI(section map[string]any, dst *UIConfig) error {
	for key, value := range section {
		switch key {
		case "palette":
			str, err := expectPalette(value, key)
			if err != nil {
				return err
			}
			dst.Palette = &str
		case "show_pairs":
			b, err := expectBool(value, key)
			if err != nil {
				return err
			}
			dst.ShowPairs = &b
		case "fields":
			str, err := expectString(value, key)
			if err != nil {
				return err
			}
			dst.Fields = &str
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
	}
	return nil
}

// expectPalette accepts either "#ff0000,#00ff00" or a list of hex colors.
func expectPalette(value any, field string) (string, error) {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s), nil
	}
	list, err := expectStringList(value, field)
	if err != nil {
		return "", err
	}
	return strings.Join(list, ","), nil
}

func expectString(value any, field string) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%s cannot be null", field)
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected string for %s, got %T", field, value)
}

func expectBool(value any, field string) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return engineopts.ParseBool(v, field)
	default:
		return false, fmt.Errorf("expected bool for %s, got %T", field, value)
	}
}

func expectInt(value any, field string) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected integer for %s, got %v", field, value)
		}
		return int(v), nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s: %v", field, value)
		}
		return n, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("invalid integer value for %s: %q", field, v)
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s: %q", field, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer for %s, got %T", field, value)
	}
}

func expectStringList(value any, field string) ([]string, error) {
	switch v := value.(type) {
	case string:
		parts := engineopts.SplitMulti([]string{v})
		return normalizeList(parts), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, err := expectString(item, field)
			if err != nil {
				return nil, err
			}
			out = append(out, str)
		}
		return normalizeList(out), nil
	case []string:
		return normalizeList(v), nil
	default:
		return nil, fmt.Errorf("expected string or list for %s, got %T", field, value)
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func toStringKeyMap(v any) (map[string]any, error) {
	switch typed := v.(type) {
	case map[string]any:
		return typed, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, value := range typed {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key: %v", k)
			}
			out[key] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected map, got %T", v)
	}
}

func normalizeKey(key string) string {
	norm := strings.ToLower(strings.TrimSpace(key))
	norm = strings.ReplaceAll(norm, "-", "_")
	return norm
}
