package config

import (
	"fmt"
	"strings"

	engineopts "github.com/phyten/bracketx/internal/engine/opts"
	"github.com/phyten/bracketx/internal/termcolor"
)

// DefaultFields is the column set of the unmatched table.
const DefaultFields = "file,line,column,char,reason"

var knownFields = map[string]string{
	"file":     "file",
	"path":     "file",
	"lang":     "lang",
	"language": "lang",
	"line":     "line",
	"column":   "column",
	"col":      "column",
	"offset":   "offset",
	"char":     "char",
	"type":     "type",
	"depth":    "depth",
	"reason":   "reason",
}

// CanonicalizeFields parses a comma separated column list, resolving aliases
// and dropping duplicates. An empty list yields DefaultFields.
func CanonicalizeFields(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultFields
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, part := range strings.Split(trimmed, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		canonical, ok := knownFields[name]
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", part)
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("fields must name at least one column")
	}
	return out, nil
}

func NormalizeScan(values ScanSettings) (ScanSettings, error) {
	output, err := engineopts.NormalizeOutput(values.Output)
	if err != nil {
		return values, err
	}
	values.Output = output
	mode, err := termcolor.ParseMode(values.Color)
	if err != nil {
		return values, err
	}
	values.Color = mode.String()
	return values, nil
}

func NormalizeUI(values UISettings) (UISettings, error) {
	values.Palette = strings.TrimSpace(values.Palette)
	if values.Palette != "" {
		if _, err := termcolor.ParsePalette(values.Palette); err != nil {
			return values, fmt.Errorf("invalid palette: %w", err)
		}
	}
	fields, err := CanonicalizeFields(values.Fields)
	if err != nil {
		return values, err
	}
	values.Fields = strings.Join(fields, ",")
	return values, nil
}
