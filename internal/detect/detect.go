package detect

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/phyten/bracketx/internal/bracket"
)

// Info is the detected language of a file. Name is the canonical language
// name (possibly one the matcher has no special rules for); Language is the
// matcher language it scans as.
type Info struct {
	Name     string
	Language bracket.Language
}

func newInfo(name string) Info {
	return Info{Name: name, Language: bracket.ParseLanguage(name)}
}

func FromPathAndContent(p string, data []byte) Info {
	if name := detectByPath(p); name != "" {
		return newInfo(name)
	}
	if name := detectByShebang(data); name != "" {
		return newInfo(name)
	}
	return Info{Language: bracket.Generic}
}

// FromName resolves an explicit --lang value, such as the language given for stdin input.
func FromName(name string) Info {
	n := NormalizeLangName(name)
	if n == "" {
		return Info{Language: bracket.Generic}
	}
	return newInfo(n)
}

func detectByPath(p string) string {
	base := strings.ToLower(filepath.Base(p))
	if lang, ok := basenameLanguages[base]; ok {
		return lang
	}
	ext := filepath.Ext(base)
	if ext == "" {
		return ""
	}
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	// foo.d.ts, foo.spec.tsx and similar compound suffixes.
	stem := strings.TrimSuffix(base, ext)
	if lang, ok := extensionLanguages[filepath.Ext(stem)+ext]; ok {
		return lang
	}
	return ""
}

func detectByShebang(data []byte) string {
	if !bytes.HasPrefix(data, []byte("#!")) {
		return ""
	}
	end := bytes.IndexByte(data, '\n')
	if end == -1 {
		end = len(data)
	}
	fields := strings.Fields(strings.ToLower(string(data[2:end])))
	for _, f := range fields {
		interp := filepath.Base(f)
		if interp == "env" || strings.HasPrefix(interp, "-") {
			continue
		}
		// python3.12 -> python3 -> python
		for candidate := interp; candidate != ""; {
			if lang, ok := shebangLanguages[candidate]; ok {
				return lang
			}
			trimmed := strings.TrimRight(candidate, "0123456789.")
			if trimmed == candidate {
				break
			}
			candidate = trimmed
		}
		return ""
	}
	return ""
}

func NormalizeLangName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	if canon, ok := langAliases[n]; ok {
		return canon
	}
	return n
}

// MatchesLang implements the --languages filter. An empty allow list matches everything.
func MatchesLang(info Info, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	detected := NormalizeLangName(info.Name)
	if detected == "" {
		detected = info.Language.String()
	}
	for _, raw := range allow {
		if NormalizeLangName(raw) == detected {
			return true
		}
	}
	return false
}

// KnownLanguage reports whether name is a language this package can produce.
func KnownLanguage(name string) bool {
	n := NormalizeLangName(name)
	if n == "" {
		return false
	}
	if _, ok := bracket.LookupLanguage(n); ok {
		return true
	}
	_, ok := extraLanguages[n]
	return ok
}

func CanonicalDetectLangs(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		norm := NormalizeLangName(raw)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

var basenameLanguages = map[string]string{
	"package.json":      "json",
	"package-lock.json": "json",
	"composer.json":     "json",
	"tsconfig.json":     "json",
	"jsconfig.json":     "json",
	"pipfile.lock":      "json",
	"setup.py":          "python",
	"sconstruct":        "python",
	"build.gradle.kts":  "kotlin",
	"settings.gradle":   "groovy",
	"jenkinsfile":       "groovy",
	"makefile":          "make",
	"cmakelists.txt":    "cmake",
}

var extensionLanguages = map[string]string{
	".c":      "c",
	".h":      "c",
	".cc":     "cpp",
	".cp":     "cpp",
	".cpp":    "cpp",
	".cxx":    "cpp",
	".c++":    "cpp",
	".hh":     "cpp",
	".hpp":    "cpp",
	".hxx":    "cpp",
	".ino":    "cpp",
	".m":      "objective-c",
	".mm":     "objective-cpp",
	".go":     "go",
	".js":     "javascript",
	".mjs":    "javascript",
	".cjs":    "javascript",
	".jsx":    "javascript",
	".ts":     "typescript",
	".mts":    "typescript",
	".cts":    "typescript",
	".tsx":    "typescript",
	".d.ts":   "typescript",
	".py":     "python",
	".pyw":    "python",
	".pyi":    "python",
	".php":    "php",
	".phtml":  "php",
	".cs":     "csharp",
	".csx":    "csharp",
	".java":   "java",
	".kt":     "kotlin",
	".kts":    "kotlin",
	".scala":  "scala",
	".sc":     "scala",
	".groovy": "groovy",
	".gradle": "groovy",
	".swift":  "swift",
	".rs":     "rust",
	".dart":   "dart",
	".json":   "json",
	".jsonc":  "json",
	".json5":  "json",
	".zig":    "zig",
	".proto":  "proto",
	".css":    "css",
	".scss":   "scss",
	".less":   "less",
	".sh":     "shell",
	".bash":   "shell",
	".zsh":    "shell",
	".rb":     "ruby",
	".lua":    "lua",
	".sql":    "sql",
	".yaml":   "yaml",
	".yml":    "yaml",
	".toml":   "toml",
	".mk":     "make",
	".txt":    "text",
	".md":     "markdown",
}

var langAliases = map[string]string{
	"c#":              "csharp",
	"cs":              "csharp",
	"c++":             "cpp",
	"cc":              "cpp",
	"h++":             "cpp",
	"hpp":             "cpp",
	"js":              "javascript",
	"mjs":             "javascript",
	"cjs":             "javascript",
	"jsx":             "javascript",
	"javascriptreact": "javascript",
	"ts":              "typescript",
	"tsx":             "typescript",
	"typescriptreact": "typescript",
	"rs":              "rust",
	"golang":          "go",
	"kt":              "kotlin",
	"py":              "python",
	"rb":              "ruby",
	"bash":            "shell",
	"sh":              "shell",
	"zsh":             "shell",
	"yml":             "yaml",
	"md":              "markdown",
	"plaintext":       "text",
}

var shebangLanguages = map[string]string{
	"python":  "python",
	"pypy":    "python",
	"node":    "javascript",
	"nodejs":  "javascript",
	"deno":    "typescript",
	"bun":     "typescript",
	"ts-node": "typescript",
	"tsx":     "typescript",
	"php":     "php",
	"ruby":    "ruby",
	"bash":    "shell",
	"sh":      "shell",
	"zsh":     "shell",
	"groovy":  "groovy",
	"swift":   "swift",
	"kotlin":  "kotlin",
	"scala":   "scala",
	"lua":     "lua",
}

// extraLanguages scan as bracket.Generic.
var extraLanguages = map[string]struct{}{
	"objective-c":   {},
	"objective-cpp": {},
	"groovy":        {},
	"zig":           {},
	"proto":         {},
	"css":           {},
	"scss":          {},
	"less":          {},
	"shell":         {},
	"ruby":          {},
	"lua":           {},
	"sql":           {},
	"yaml":          {},
	"toml":          {},
	"make":          {},
	"cmake":         {},
	"text":          {},
	"markdown":      {},
}
