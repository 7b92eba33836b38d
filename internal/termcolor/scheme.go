package termcolor

import (
	"fmt"
	"strconv"
	"strings"
)

type Scheme int

const (
	SchemeUnknown Scheme = iota
	SchemeDark
	SchemeLight
)

func (s Scheme) String() string {
	switch s {
	case SchemeDark:
		return "dark"
	case SchemeLight:
		return "light"
	default:
		return "unknown"
	}
}

func ParseScheme(v string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "dark":
		return SchemeDark, nil
	case "light":
		return SchemeLight, nil
	default:
		return SchemeUnknown, fmt.Errorf("unknown color scheme: %s", v)
	}
}

// DetectScheme guesses the background. BRACKETX_THEME wins, then the
// background index of COLORFGBG (7 and above is light), then a TERM name
// containing "light". Dark is the default.
func DetectScheme(env map[string]string) Scheme {
	if s, err := ParseScheme(env["BRACKETX_THEME"]); err == nil {
		return s
	}
	if raw := strings.TrimSpace(env["COLORFGBG"]); raw != "" {
		parts := strings.Split(raw, ";")
		bgRaw := strings.TrimSpace(parts[len(parts)-1])
		if bgRaw == "" && len(parts) >= 2 {
			bgRaw = strings.TrimSpace(parts[len(parts)-2])
		}
		if bg, err := strconv.Atoi(bgRaw); err == nil && bg >= 0 {
			if bg >= 7 {
				return SchemeLight
			}
			return SchemeDark
		}
	}
	if strings.Contains(strings.ToLower(env["TERM"]), "light") {
		return SchemeLight
	}
	return SchemeDark
}
