package termcolor

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

type ColorMode int

const (
	ModeAuto ColorMode = iota
	ModeAlways
	ModeNever
)

func (m ColorMode) String() string {
	switch m {
	case ModeAlways:
		return "always"
	case ModeNever:
		return "never"
	default:
		return "auto"
	}
}

func ParseMode(v string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "auto":
		return ModeAuto, nil
	case "always", "force":
		return ModeAlways, nil
	case "never", "off":
		return ModeNever, nil
	default:
		return ModeAuto, fmt.Errorf("unknown color mode: %s", v)
	}
}

type Profile int

const (
	ProfileBasic8 Profile = iota
	ProfileANSI256
	ProfileTrueColor
)

func (p Profile) String() string {
	switch p {
	case ProfileANSI256:
		return "ansi256"
	case ProfileTrueColor:
		return "truecolor"
	default:
		return "basic8"
	}
}

func EnvMap(values []string) map[string]string {
	env := make(map[string]string, len(values))
	for _, entry := range values {
		if entry == "" {
			continue
		}
		key, value, _ := strings.Cut(entry, "=")
		env[key] = value
	}
	return env
}

// DetectMode resolves ModeAuto from the environment. TERM=dumb, NO_COLOR and
// CLICOLOR=0 disable colors in that order; CLICOLOR_FORCE or FORCE_COLOR with a
// non-zero value enable them; otherwise out must be a terminal.
func DetectMode(out *os.File, env map[string]string) ColorMode {
	if out == nil {
		return ModeNever
	}
	switch {
	case strings.EqualFold(strings.TrimSpace(env["TERM"]), "dumb"):
		return ModeNever
	case strings.TrimSpace(env["NO_COLOR"]) != "":
		return ModeNever
	case strings.TrimSpace(env["CLICOLOR"]) == "0":
		return ModeNever
	case forceColor(env["CLICOLOR_FORCE"]), forceColor(env["FORCE_COLOR"]):
		return ModeAlways
	}
	if isTerminal(out) {
		return ModeAlways
	}
	return ModeNever
}

// Enabled reports whether colors should be emitted; ModeAuto only checks the TTY.
func Enabled(mode ColorMode, out *os.File) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	default:
		return isTerminal(out)
	}
}

// DetectProfile picks truecolor from COLORTERM, ANSI256 from a *256color TERM
// and the basic 8 colors for everything else.
func DetectProfile(env map[string]string) Profile {
	if v := strings.ToLower(strings.TrimSpace(env["COLORTERM"])); v != "" {
		if strings.Contains(v, "truecolor") || strings.Contains(v, "24bit") || strings.Contains(v, "24-bit") {
			return ProfileTrueColor
		}
	}
	if v := strings.ToLower(strings.TrimSpace(env["TERM"])); strings.Contains(v, "256color") {
		return ProfileANSI256
	}
	return ProfileBasic8
}

// Terminal is everything the renderers need to know about an output stream.
type Terminal struct {
	Enabled bool
	Profile Profile
	Scheme  Scheme
}

// ResolveTerminal combines the requested mode with what env says about out.
func ResolveTerminal(mode ColorMode, out *os.File, env map[string]string) Terminal {
	if mode == ModeAuto {
		mode = DetectMode(out, env)
	}
	return Terminal{
		Enabled: mode == ModeAlways,
		Profile: DetectProfile(env),
		Scheme:  DetectScheme(env),
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func forceColor(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "0"
}
