package opts

import (
	"fmt"
	"net/url"
	"runtime"
	"strconv"
	"strings"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/detect"
	"github.com/phyten/bracketx/internal/engine"
	"github.com/phyten/bracketx/internal/script"
	"github.com/phyten/bracketx/internal/syntaxtree"
)

const maxJobs = 64

// MaxColors bounds the rainbow size accepted from any input.
const MaxColors = 64

// Angle policy names accepted by --angle-policy and the config file.
const (
	PolicyHeuristic = "heuristic"
	PolicySyntax    = "syntax"
	PolicyScript    = "script"
	PolicyAlways    = "always"
	PolicyNever     = "never"
)

var (
	trueLiterals  = map[string]struct{}{"1": {}, "true": {}, "yes": {}, "on": {}}
	falseLiterals = map[string]struct{}{"0": {}, "false": {}, "no": {}, "off": {}}
)

// Defaults returns the shared baseline options for both CLI and Web inputs.
func Defaults(root string) engine.Options {
	jobs := runtime.NumCPU()
	if jobs < 1 {
		jobs = 1
	}
	if jobs > maxJobs {
		jobs = maxJobs
	}
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	return engine.Options{
		Root:        root,
		Colors:      bracket.DefaultColorCount,
		AnglePolicy: PolicyHeuristic,
		Jobs:        jobs,
	}
}

// ApplyWebQueryToOptions copies recognised values from the query string into the
// provided options. Validation happens separately via NormalizeAndValidate.
// Values that reach the filesystem (paths, scripts) are not accepted from the web.
func ApplyWebQueryToOptions(def engine.Options, q url.Values) (engine.Options, error) {
	out := def

	if raw, ok := lastLiteralValue(q["lang"]); ok {
		out.Lang = raw
	}
	if raw, ok := lastLiteralValue(q["colors"]); ok {
		n, err := ParseIntInRange(raw, "colors", 1, MaxColors)
		if err != nil {
			return out, err
		}
		out.Colors = n
	}
	if raw, ok := lastLiteralValue(q["angle_policy"]); ok {
		name := strings.ToLower(raw)
		if name == PolicyScript {
			return out, fmt.Errorf("angle_policy=%s is not available over HTTP", PolicyScript)
		}
		out.AnglePolicy = name
		out.Policy = nil
		out.PolicyKey = ""
	}
	return out, nil
}

// NormalizeAndValidate ensures the options are canonical and within the allowed
// ranges, and resolves the angle policy name into a policy.
func NormalizeAndValidate(o *engine.Options) error {
	if o.Colors == 0 {
		o.Colors = bracket.DefaultColorCount
	}
	if o.Colors < 1 || o.Colors > MaxColors {
		return fmt.Errorf("colors must be between 1 and %d", MaxColors)
	}
	if o.Jobs < 1 || o.Jobs > maxJobs {
		return fmt.Errorf("jobs must be between 1 and %d", maxJobs)
	}
	if o.MaxFileBytes < 0 {
		return fmt.Errorf("max_file_bytes must be >= 0")
	}
	if strings.TrimSpace(o.Root) == "" {
		o.Root = "."
	}

	o.Lang = strings.TrimSpace(o.Lang)
	if o.Lang != "" {
		if !detect.KnownLanguage(o.Lang) {
			return fmt.Errorf("invalid --lang: %s", o.Lang)
		}
		o.Lang = detect.NormalizeLangName(o.Lang)
	}

	o.Paths = trimSlice(o.Paths)
	o.Excludes = trimSlice(o.Excludes)
	o.PathRegex = trimSlice(o.PathRegex)
	o.Languages = trimSlice(o.Languages)
	if len(o.Languages) > 0 {
		o.Languages = detect.CanonicalDetectLangs(o.Languages)
	}

	compiled, err := engine.CompilePathRegex(o.PathRegex)
	if err != nil {
		return fmt.Errorf("invalid --path-regex: %w", err)
	}
	o.PathRegexCompiled = compiled

	name, err := NormalizeAnglePolicy(o.AnglePolicy)
	if err != nil {
		return err
	}
	o.AnglePolicy = name
	o.AngleScript = strings.TrimSpace(o.AngleScript)
	if o.Policy == nil {
		policy, key, err := BuildAnglePolicy(name, o.AngleScript)
		if err != nil {
			return err
		}
		o.Policy = policy
		o.PolicyKey = key
	}
	return nil
}

// NormalizeAnglePolicy validates and lower-cases an angle policy name.
func NormalizeAnglePolicy(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "":
		return PolicyHeuristic, nil
	case PolicyHeuristic, PolicySyntax, PolicyScript, PolicyAlways, PolicyNever:
		return v, nil
	}
	return "", fmt.Errorf("invalid --angle-policy: %s", value)
}

// BuildAnglePolicy turns a policy name into a bracket.AnglePolicy and the key
// that identifies its decisions in the result cache.
func BuildAnglePolicy(name, scriptPath string) (bracket.AnglePolicy, string, error) {
	switch name {
	case "", PolicyHeuristic:
		return bracket.HeuristicPolicy{}, PolicyHeuristic, nil
	case PolicyAlways:
		return bracket.AlwaysBrackets, PolicyAlways, nil
	case PolicyNever:
		return bracket.NeverBrackets, PolicyNever, nil
	case PolicySyntax:
		return syntaxtree.New(), PolicySyntax, nil
	case PolicyScript:
		if scriptPath == "" {
			return nil, "", fmt.Errorf("--angle-policy=script requires --angle-script")
		}
		p, err := script.Load(scriptPath)
		if err != nil {
			return nil, "", err
		}
		return p, p.Key(), nil
	}
	return nil, "", fmt.Errorf("invalid --angle-policy: %s", name)
}

// ParseBool converts a string literal into a boolean, accepting multiple synonyms.
func ParseBool(raw, key string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := trueLiterals[v]; ok {
		return true, nil
	}
	if _, ok := falseLiterals[v]; ok {
		return false, nil
	}
	return false, fmt.Errorf("invalid value for %s: %q", key, raw)
}

// ParseIntInRange parses a string into an int and ensures it falls within [min, max].
// If max < min, the upper bound is ignored.
func ParseIntInRange(raw, key string, min, max int) (int, error) {
	n, err := parseInt(raw, key)
	if err != nil {
		return 0, err
	}
	if n < min {
		if max >= min {
			return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
		}
		return 0, fmt.Errorf("%s must be >= %d", key, min)
	}
	if max >= min && n > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}
	return n, nil
}

// NormalizeOutput validates and lower-cases the --output value.
func NormalizeOutput(value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "table":
		return "table", nil
	case "json", "ndjson", "csv", "markdown", "msgpack":
		return v, nil
	case "md":
		return "markdown", nil
	}
	return "", fmt.Errorf("invalid --output: %s", value)
}

// SplitMulti turns repeated query parameters (and comma-separated values) into a flat slice.
func SplitMulti(vals []string) []string {
	var out []string
	for _, raw := range vals {
		for _, piece := range strings.Split(raw, ",") {
			part := strings.TrimSpace(piece)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}

func parseInt(raw, key string) (int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, fmt.Errorf("invalid integer value for %s: %q", key, raw)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %q", key, raw)
	}
	return n, nil
}

func lastLiteralValue(vals []string) (string, bool) {
	flat := SplitMulti(vals)
	if len(flat) == 0 {
		return "", false
	}
	return flat[len(flat)-1], true
}

func trimSlice(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := values[:0]
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
