package bracket

import (
	"fmt"
	"strings"
)

// Language selects the few language-dependent behaviors of a scan.
type Language uint8

const (
	Generic Language = iota
	JavaScript
	TypeScript
	Rust
	Java
	Go
	Python
	C
	Cpp
	CSharp
	Kotlin
	Swift
	Dart
	Scala
	PHP
	JSON
)

var languageNames = [...]string{
	Generic:    "generic",
	JavaScript: "javascript",
	TypeScript: "typescript",
	Rust:       "rust",
	Java:       "java",
	Go:         "go",
	Python:     "python",
	C:          "c",
	Cpp:        "cpp",
	CSharp:     "csharp",
	Kotlin:     "kotlin",
	Swift:      "swift",
	Dart:       "dart",
	Scala:      "scala",
	PHP:        "php",
	JSON:       "json",
}

var languageAliases = map[string]Language{
	"":                Generic,
	"plaintext":       Generic,
	"text":            Generic,
	"js":              JavaScript,
	"jsx":             JavaScript,
	"javascriptreact": JavaScript,
	"mjs":             JavaScript,
	"cjs":             JavaScript,
	"ts":              TypeScript,
	"tsx":             TypeScript,
	"typescriptreact": TypeScript,
	"rs":              Rust,
	"golang":          Go,
	"py":              Python,
	"h":               C,
	"c++":             Cpp,
	"cc":              Cpp,
	"cxx":             Cpp,
	"hpp":             Cpp,
	"c#":              CSharp,
	"cs":              CSharp,
	"kt":              Kotlin,
	"kts":             Kotlin,
}

// Languages lists every known language in declaration order.
func Languages() []Language {
	out := make([]Language, len(languageNames))
	for i := range languageNames {
		out[i] = Language(i)
	}
	return out
}

func (l Language) String() string {
	if int(l) < len(languageNames) {
		return languageNames[l]
	}
	return fmt.Sprintf("language(%d)", uint8(l))
}

func (l Language) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Language) UnmarshalText(b []byte) error {
	*l = ParseLanguage(string(b))
	return nil
}

// UsesAngleBracketsAsGenerics reports whether < and > may delimit type
// arguments, which makes angle brackets subject to the AnglePolicy.
func (l Language) UsesAngleBracketsAsGenerics() bool {
	switch l {
	case TypeScript, Rust, Java, Cpp, CSharp, Kotlin, Swift, Dart:
		return true
	default:
		return false
	}
}

// ParseLanguage resolves a language name or alias. Unknown names resolve to Generic.
func ParseLanguage(name string) Language {
	l, _ := LookupLanguage(name)
	return l
}

// LookupLanguage is ParseLanguage that also reports whether the name was recognised.
func LookupLanguage(name string) (Language, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if l, ok := languageAliases[n]; ok {
		return l, true
	}
	for i, known := range languageNames {
		if known == n {
			return Language(i), true
		}
	}
	return Generic, false
}
