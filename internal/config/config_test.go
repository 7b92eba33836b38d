package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/phyten/bracketx/internal/engine"
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func boolPtr(v bool) *bool { return &v }

func stringsPtr(values ...string) *[]string {
	copied := append([]string(nil), values...)
	return &copied
}

func TestMergeScanPrecedence(t *testing.T) {
	base := ScanSettings{Colors: 6, AnglePolicy: "heuristic", Jobs: 2, Paths: []string{"base"}, ExcludeTypical: true}

	fileCfg := ScanConfig{Colors: intPtr(4), AnglePolicy: strPtr("syntax"), ExcludeTypical: boolPtr(false), Paths: stringsPtr("file")}
	envCfg := ScanConfig{Colors: intPtr(3), Paths: stringsPtr("env"), FailOnUnmatched: boolPtr(true)}
	flagCfg := ScanConfig{Paths: stringsPtr("flag"), Jobs: intPtr(8), AnglePolicy: strPtr(" never ")}

	merged := MergeScan(base, fileCfg, envCfg, flagCfg)

	if merged.Colors != 3 {
		t.Fatalf("expected Colors 3, got %d", merged.Colors)
	}
	if merged.AnglePolicy != "never" {
		t.Fatalf("expected AnglePolicy never, got %q", merged.AnglePolicy)
	}
	if !reflect.DeepEqual(merged.Paths, []string{"flag"}) {
		t.Fatalf("unexpected paths: %v", merged.Paths)
	}
	if merged.ExcludeTypical {
		t.Fatal("expected ExcludeTypical to be false")
	}
	if merged.Jobs != 8 {
		t.Fatalf("expected Jobs 8, got %d", merged.Jobs)
	}
	if !merged.FailOnUnmatched {
		t.Fatal("expected FailOnUnmatched from env layer")
	}
	if merged.Output != "table" || merged.Color != "auto" {
		t.Fatalf("expected output/color defaults, got %q/%q", merged.Output, merged.Color)
	}
}

func TestMergeScanEmptyListClears(t *testing.T) {
	base := ScanSettings{Excludes: []string{"dist"}}
	merged := MergeScan(base, ScanConfig{Excludes: stringsPtr()})
	if merged.Excludes == nil || len(merged.Excludes) != 0 {
		t.Fatalf("expected empty excludes, got %#v", merged.Excludes)
	}
}

func TestMergeScanCopiesLists(t *testing.T) {
	base := ScanSettings{Paths: []string{"src"}, Lang: "go"}
	layer := ScanConfig{Excludes: stringsPtr("dist", "build"), Lang: strPtr("  rust\t")}

	merged := MergeScan(base, layer)
	(*layer.Excludes)[0] = "changed"
	base.Paths[0] = "changed"

	if !reflect.DeepEqual(merged.Excludes, []string{"dist", "build"}) {
		t.Fatalf("excludes share the layer slice: %v", merged.Excludes)
	}
	if !reflect.DeepEqual(merged.Paths, []string{"src"}) {
		t.Fatalf("paths share the base slice: %v", merged.Paths)
	}
	if merged.Lang != "rust" {
		t.Fatalf("expected trimmed lang, got %q", merged.Lang)
	}
}

func TestMergeScanUnsetLayerKeepsBase(t *testing.T) {
	base := ScanSettings{Colors: 6, Languages: []string{"go"}, Output: "json", Color: "never", Progress: true}
	merged := MergeScan(base, ScanConfig{}, ScanConfig{})
	if merged.Colors != 6 || merged.Output != "json" || merged.Color != "never" || !merged.Progress {
		t.Fatalf("unset layers changed settings: %+v", merged)
	}
	if !reflect.DeepEqual(merged.Languages, []string{"go"}) {
		t.Fatalf("unexpected languages: %v", merged.Languages)
	}
}

func TestMergeUIPrecedence(t *testing.T) {
	base := DefaultUISettings()

	fileCfg := UIConfig{Palette: strPtr("#ff0000,#00ff00"), ShowPairs: boolPtr(true)}
	envCfg := UIConfig{Fields: strPtr("file,reason")}
	flagCfg := UIConfig{ShowPairs: boolPtr(false)}

	merged := MergeUI(base, fileCfg, envCfg, flagCfg)
	if merged.ShowPairs {
		t.Fatal("expected ShowPairs false after flag override")
	}
	if merged.Palette != "#ff0000,#00ff00" {
		t.Fatalf("unexpected palette: %q", merged.Palette)
	}
	if merged.Fields != "file,reason" {
		t.Fatalf("unexpected fields: %q", merged.Fields)
	}
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"BRACKETX_LANG":              "rust",
		"BRACKETX_LANGUAGES":         "go,ts",
		"BRACKETX_COLORS":            "8",
		"BRACKETX_ANGLE_POLICY":      "syntax",
		"BRACKETX_ANGLE_SCRIPT":      "angle.risor",
		"BRACKETX_PATH":              "src,cmd",
		"BRACKETX_EXCLUDE":           "vendor,dist",
		"BRACKETX_EXCLUDE_TYPICAL":   "yes",
		"BRACKETX_PATH_REGEX":        ".*\\.rs$",
		"BRACKETX_MAX_FILE_BYTES":    "8192",
		"BRACKETX_JOBS":              "128",
		"BRACKETX_OUTPUT":            "ndjson",
		"BRACKETX_COLOR":             "never",
		"BRACKETX_CACHE":             "/tmp/bracketx.db",
		"BRACKETX_FAIL_ON_UNMATCHED": "1",
		"BRACKETX_PROGRESS":          "off",
		"BRACKETX_PALETTE":           "#ffd700,#da70d6",
		"BRACKETX_SHOW_PAIRS":        "true",
		"BRACKETX_FIELDS":            "file,line",
	}
	cfg, err := FromEnv(func(key string) string { return env[key] })
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.Scan.Lang == nil || *cfg.Scan.Lang != "rust" {
		t.Fatalf("expected Lang rust, got %+v", cfg.Scan.Lang)
	}
	if cfg.Scan.Languages == nil || !reflect.DeepEqual(*cfg.Scan.Languages, []string{"go", "ts"}) {
		t.Fatalf("unexpected languages: %v", cfg.Scan.Languages)
	}
	if cfg.Scan.Colors == nil || *cfg.Scan.Colors != 8 {
		t.Fatalf("expected Colors 8, got %+v", cfg.Scan.Colors)
	}
	if cfg.Scan.AnglePolicy == nil || *cfg.Scan.AnglePolicy != "syntax" {
		t.Fatalf("expected AnglePolicy syntax, got %+v", cfg.Scan.AnglePolicy)
	}
	if cfg.Scan.AngleScript == nil || *cfg.Scan.AngleScript != "angle.risor" {
		t.Fatalf("unexpected angle_script: %+v", cfg.Scan.AngleScript)
	}
	if cfg.Scan.Paths == nil || !reflect.DeepEqual(*cfg.Scan.Paths, []string{"src", "cmd"}) {
		t.Fatalf("unexpected paths: %v", cfg.Scan.Paths)
	}
	if cfg.Scan.Excludes == nil || !reflect.DeepEqual(*cfg.Scan.Excludes, []string{"vendor", "dist"}) {
		t.Fatalf("unexpected excludes: %v", cfg.Scan.Excludes)
	}
	if cfg.Scan.ExcludeTypical == nil || !*cfg.Scan.ExcludeTypical {
		t.Fatal("expected ExcludeTypical true")
	}
	if cfg.Scan.PathRegex == nil || !reflect.DeepEqual(*cfg.Scan.PathRegex, []string{".*\\.rs$"}) {
		t.Fatalf("unexpected path_regex: %v", cfg.Scan.PathRegex)
	}
	if cfg.Scan.MaxFileBytes == nil || *cfg.Scan.MaxFileBytes != 8192 {
		t.Fatalf("unexpected max_file_bytes: %+v", cfg.Scan.MaxFileBytes)
	}
	if cfg.Scan.Jobs == nil || *cfg.Scan.Jobs != 128 {
		t.Fatalf("expected Jobs 128, got %+v", cfg.Scan.Jobs)
	}
	if cfg.Scan.Output == nil || *cfg.Scan.Output != "ndjson" {
		t.Fatalf("unexpected output: %+v", cfg.Scan.Output)
	}
	if cfg.Scan.Color == nil || *cfg.Scan.Color != "never" {
		t.Fatalf("unexpected color: %+v", cfg.Scan.Color)
	}
	if cfg.Scan.Cache == nil || *cfg.Scan.Cache != "/tmp/bracketx.db" {
		t.Fatalf("unexpected cache: %+v", cfg.Scan.Cache)
	}
	if cfg.Scan.FailOnUnmatched == nil || !*cfg.Scan.FailOnUnmatched {
		t.Fatal("expected FailOnUnmatched true")
	}
	if cfg.Scan.Progress == nil || *cfg.Scan.Progress {
		t.Fatal("expected Progress false")
	}
	if cfg.UI.Palette == nil || *cfg.UI.Palette != "#ffd700,#da70d6" {
		t.Fatalf("unexpected palette: %+v", cfg.UI.Palette)
	}
	if cfg.UI.ShowPairs == nil || !*cfg.UI.ShowPairs {
		t.Fatal("expected ShowPairs true")
	}
	if cfg.UI.Fields == nil || *cfg.UI.Fields != "file,line" {
		t.Fatalf("unexpected fields: %+v", cfg.UI.Fields)
	}
}

func TestFromEnvJoinsErrors(t *testing.T) {
	env := map[string]string{
		"BRACKETX_COLORS":            "many",
		"BRACKETX_FAIL_ON_UNMATCHED": "perhaps",
		"BRACKETX_OUTPUT":            "json",
	}
	cfg, err := FromEnv(func(key string) string { return env[key] })
	if err == nil {
		t.Fatal("expected error for malformed values")
	}
	for _, key := range []string{"BRACKETX_COLORS", "BRACKETX_FAIL_ON_UNMATCHED"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q should mention %s", err, key)
		}
	}
	if cfg.Scan.Output == nil || *cfg.Scan.Output != "json" {
		t.Fatal("valid values should still be returned")
	}
}

func TestLoadConfigFormats(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		".yaml": "angle_policy: syntax\nlanguages:\n  - rust\n  - ts\ncolors: 4\nfail_on_unmatched: true\nmax_file_bytes: 2048\nui:\n  palette:\n    - \"#ff0000\"\n    - \"#00ff00\"\n  show_pairs: true\n",
		".toml": "angle_policy = \"never\"\nexclude = [\"dist\"]\n[scan]\njobs = 3\nmax-bytes = 100\n[ui]\nfields = \"file,reason\"\n",
		".json": "{\n  \"scan\": {\"angle_policy\": \"always\", \"path\": [\"src\"], \"Exclude-Typical\": \"yes\"},\n  \"cache\": \"cache.db\"\n}\n",
	}

	for ext, content := range cases {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "config"+ext)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Scan.AnglePolicy == nil {
				t.Fatal("expected angle policy to be set")
			}
			switch ext {
			case ".yaml":
				if *cfg.Scan.AnglePolicy != "syntax" {
					t.Fatalf("yaml angle_policy mismatch: %q", *cfg.Scan.AnglePolicy)
				}
				if cfg.Scan.Languages == nil || !reflect.DeepEqual(*cfg.Scan.Languages, []string{"rust", "ts"}) {
					t.Fatalf("yaml languages mismatch: %v", cfg.Scan.Languages)
				}
				if cfg.Scan.Colors == nil || *cfg.Scan.Colors != 4 {
					t.Fatalf("yaml colors mismatch: %d", ptrInt(cfg.Scan.Colors))
				}
				if cfg.Scan.FailOnUnmatched == nil || !*cfg.Scan.FailOnUnmatched {
					t.Fatal("yaml fail_on_unmatched should be true")
				}
				if cfg.Scan.MaxFileBytes == nil || *cfg.Scan.MaxFileBytes != 2048 {
					t.Fatalf("yaml max_file_bytes mismatch: %d", ptrInt(cfg.Scan.MaxFileBytes))
				}
				if cfg.UI.Palette == nil || *cfg.UI.Palette != "#ff0000,#00ff00" {
					t.Fatalf("yaml palette mismatch: %q", ptrString(cfg.UI.Palette))
				}
				if cfg.UI.ShowPairs == nil || !*cfg.UI.ShowPairs {
					t.Fatal("yaml show_pairs should be true")
				}
			case ".toml":
				if *cfg.Scan.AnglePolicy != "never" {
					t.Fatalf("toml angle_policy mismatch: %q", *cfg.Scan.AnglePolicy)
				}
				if cfg.Scan.Excludes == nil || !reflect.DeepEqual(*cfg.Scan.Excludes, []string{"dist"}) {
					t.Fatalf("toml exclude mismatch: %v", cfg.Scan.Excludes)
				}
				if cfg.Scan.Jobs == nil || *cfg.Scan.Jobs != 3 {
					t.Fatalf("toml jobs mismatch: %d", ptrInt(cfg.Scan.Jobs))
				}
				if cfg.Scan.MaxFileBytes == nil || *cfg.Scan.MaxFileBytes != 100 {
					t.Fatalf("toml max-bytes alias mismatch: %d", ptrInt(cfg.Scan.MaxFileBytes))
				}
				if cfg.UI.Fields == nil || *cfg.UI.Fields != "file,reason" {
					t.Fatalf("toml fields mismatch: %q", ptrString(cfg.UI.Fields))
				}
			case ".json":
				if *cfg.Scan.AnglePolicy != "always" {
					t.Fatalf("json angle_policy mismatch: %q", *cfg.Scan.AnglePolicy)
				}
				if cfg.Scan.Paths == nil || !reflect.DeepEqual(*cfg.Scan.Paths, []string{"src"}) {
					t.Fatalf("json path mismatch: %v", cfg.Scan.Paths)
				}
				if cfg.Scan.ExcludeTypical == nil || !*cfg.Scan.ExcludeTypical {
					t.Fatal("json exclude_typical should be true")
				}
				if cfg.Scan.Cache == nil || *cfg.Scan.Cache != "cache.db" {
					t.Fatalf("json cache mismatch: %q", ptrString(cfg.Scan.Cache))
				}
			}
		})
	}
}

func TestLoadUnknownKey(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"top.yaml":     "unknown: value\n",
		"section.yaml": "scan:\n  tags: [TODO]\n",
		"ui.yaml":      "ui:\n  sort: age\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error for unknown key", name)
		}
	}
}

func TestLoadTypeErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"colors": 2.5}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for fractional colors")
	}
	if err := os.WriteFile(path, []byte(`{"fail_on_unmatched": 3}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for numeric bool")
	}
}

func TestFindOrder(t *testing.T) {
	repoRoot := filepath.Join(t.TempDir(), "repo")
	if mkErr := os.MkdirAll(filepath.Join(repoRoot, "sub", "dir"), 0o755); mkErr != nil {
		t.Fatalf("mkdir: %v", mkErr)
	}
	repoConfig := filepath.Join(repoRoot, ".bracketx.yaml")
	if writeErr := os.WriteFile(repoConfig, []byte("colors: 4\n"), 0o644); writeErr != nil {
		t.Fatalf("write repo config: %v", writeErr)
	}
	path, where, err := Find(filepath.Join(repoRoot, "sub", "dir"), "", "", "")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if path != repoConfig || where != "cwd-up" {
		t.Fatalf("unexpected result: path=%s where=%s", path, where)
	}

	explicitDir := t.TempDir()
	explicit := filepath.Join(explicitDir, "custom.toml")
	if writeErr := os.WriteFile(explicit, []byte("colors=3\n"), 0o644); writeErr != nil {
		t.Fatalf("write explicit: %v", writeErr)
	}
	path, where, err = Find(repoRoot, explicit, "", "")
	if err != nil {
		t.Fatalf("Find explicit failed: %v", err)
	}
	if path != explicit || where != "explicit" {
		t.Fatalf("expected explicit config, got path=%s where=%s", path, where)
	}
	if _, _, err := Find(repoRoot, explicitDir, "", ""); err == nil {
		t.Fatal("expected error when the explicit path is a directory")
	}

	xdgHome := t.TempDir()
	if mkErr := os.MkdirAll(filepath.Join(xdgHome, "bracketx"), 0o755); mkErr != nil {
		t.Fatalf("mkdir xdg: %v", mkErr)
	}
	xdgPath := filepath.Join(xdgHome, "bracketx", "config.json")
	if writeErr := os.WriteFile(xdgPath, []byte("{}"), 0o644); writeErr != nil {
		t.Fatalf("write xdg: %v", writeErr)
	}
	path, where, err = Find(t.TempDir(), "", xdgHome, "")
	if err != nil {
		t.Fatalf("Find xdg failed: %v", err)
	}
	if path != xdgPath || where != "xdg" {
		t.Fatalf("expected xdg config, got path=%s where=%s", path, where)
	}

	homeDir := t.TempDir()
	homePath := filepath.Join(homeDir, ".bracketx.toml")
	if writeErr := os.WriteFile(homePath, []byte("colors=2\n"), 0o644); writeErr != nil {
		t.Fatalf("write home: %v", writeErr)
	}
	path, where, err = Find(t.TempDir(), "", "", homeDir)
	if err != nil {
		t.Fatalf("Find home failed: %v", err)
	}
	if path != homePath || where != "home" {
		t.Fatalf("expected home config, got path=%s where=%s", path, where)
	}
}

func TestNormalizeUI(t *testing.T) {
	values := UISettings{Palette: " #ffd700,#da70d6 ", Fields: " Path, col ,reason,file "}
	normalized, err := NormalizeUI(values)
	if err != nil {
		t.Fatalf("NormalizeUI error: %v", err)
	}
	if normalized.Palette != "#ffd700,#da70d6" {
		t.Fatalf("expected palette trimmed, got %q", normalized.Palette)
	}
	if normalized.Fields != "file,column,reason" {
		t.Fatalf("expected canonical fields, got %q", normalized.Fields)
	}

	if _, err := NormalizeUI(UISettings{Fields: "file,author"}); err == nil {
		t.Fatal("expected error for unknown field")
	}
	if _, err := NormalizeUI(UISettings{Palette: "#zzzzzz"}); err == nil {
		t.Fatal("expected error for invalid palette")
	}
	empty, err := NormalizeUI(UISettings{})
	if err != nil {
		t.Fatalf("NormalizeUI empty: %v", err)
	}
	if empty.Fields != DefaultFields {
		t.Fatalf("expected default fields, got %q", empty.Fields)
	}
}

func TestNormalizeScan(t *testing.T) {
	normalized, err := NormalizeScan(ScanSettings{Output: "MD", Color: ""})
	if err != nil {
		t.Fatalf("NormalizeScan error: %v", err)
	}
	if normalized.Output != "markdown" || normalized.Color != "auto" {
		t.Fatalf("unexpected normalization: %+v", normalized)
	}
	if _, err := NormalizeScan(ScanSettings{Output: "xml"}); err == nil {
		t.Fatal("expected error for unknown output")
	}
	if _, err := NormalizeScan(ScanSettings{Color: "sometimes"}); err == nil {
		t.Fatal("expected error for unknown color mode")
	}
}

func TestApplyToOptions(t *testing.T) {
	opts := engine.Options{AnglePolicy: "heuristic", PolicyKey: "heuristic"}
	settings := ScanSettingsFromOptions(opts)
	settings.AnglePolicy = "never"
	settings.Colors = 3
	settings.Languages = []string{"rust"}
	settings.ApplyToOptions(&opts)
	if opts.AnglePolicy != "never" || opts.Colors != 3 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.PolicyKey != "" || opts.Policy != nil {
		t.Fatal("changing the policy name should reset the resolved policy")
	}
	settings.Languages[0] = "go"
	if opts.Languages[0] != "rust" {
		t.Fatal("ApplyToOptions should copy slices")
	}
}

func ptrString(v *string) string {
	if v == nil {
		return "<nil>"
	}
	return *v
}

func ptrInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
