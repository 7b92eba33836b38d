package config

import "strings"

// overlay returns *v when the layer set the field, cur otherwise.
func overlay[T any](cur T, v *T) T {
	if v == nil {
		return cur
	}
	return *v
}

// overlayWord is overlay for names and paths, which never keep surrounding
// blanks.
func overlayWord(cur string, v *string) string {
	return strings.TrimSpace(overlay(cur, v))
}

// overlayList copies a set list so later edits to the layer do not leak into
// the settings. An explicitly empty list clears the lower layers.
func overlayList(cur []string, v *[]string) []string {
	switch {
	case v == nil:
		return cur
	case len(*v) == 0:
		return []string{}
	default:
		return cloneStrings(*v)
	}
}

// MergeScan applies layers over base in order; later layers win field by
// field.
func MergeScan(base ScanSettings, layers ...ScanConfig) ScanSettings {
	out := base
	out.Languages = cloneStrings(base.Languages)
	out.Paths = cloneStrings(base.Paths)
	out.Excludes = cloneStrings(base.Excludes)
	out.PathRegex = cloneStrings(base.PathRegex)
	for _, l := range layers {
		out.Lang = overlayWord(out.Lang, l.Lang)
		out.Languages = overlayList(out.Languages, l.Languages)
		out.Colors = overlay(out.Colors, l.Colors)
		out.AnglePolicy = overlayWord(out.AnglePolicy, l.AnglePolicy)
		out.AngleScript = overlayWord(out.AngleScript, l.AngleScript)
		out.Paths = overlayList(out.Paths, l.Paths)
		out.Excludes = overlayList(out.Excludes, l.Excludes)
		out.ExcludeTypical = overlay(out.ExcludeTypical, l.ExcludeTypical)
		out.PathRegex = overlayList(out.PathRegex, l.PathRegex)
		out.Jobs = overlay(out.Jobs, l.Jobs)
		out.MaxFileBytes = overlay(out.MaxFileBytes, l.MaxFileBytes)
		out.Output = overlayWord(out.Output, l.Output)
		out.Color = overlayWord(out.Color, l.Color)
		out.Cache = overlayWord(out.Cache, l.Cache)
		out.FailOnUnmatched = overlay(out.FailOnUnmatched, l.FailOnUnmatched)
		out.Progress = overlay(out.Progress, l.Progress)
	}
	if strings.TrimSpace(out.Output) == "" {
		out.Output = "table"
	}
	if strings.TrimSpace(out.Color) == "" {
		out.Color = "auto"
	}
	return out
}

func MergeUI(base UISettings, layers ...UIConfig) UISettings {
	out := base
	for _, l := range layers {
		out.Palette = overlayWord(out.Palette, l.Palette)
		out.ShowPairs = overlay(out.ShowPairs, l.ShowPairs)
		out.Fields = overlayWord(out.Fields, l.Fields)
	}
	return out
}
