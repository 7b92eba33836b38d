// Package render draws scan results onto source text for terminals.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/termcolor"
	"github.com/phyten/bracketx/internal/textutil"
)

type Options struct {
	// Name prefixes annotation lines; empty means "<stdin>".
	Name     string
	Terminal termcolor.Terminal
	Palette  termcolor.Palette
}

func (o Options) name() string {
	if o.Name == "" {
		return "<stdin>"
	}
	return o.Name
}

// styles maps the byte offset of every bracket in c to its style. Both ends
// of a pair take the opening bracket's level.
func styles(c bracket.Collection, o Options) map[int]termcolor.Style {
	t := o.Terminal
	out := make(map[int]termcolor.Style, c.BracketCount())
	for _, p := range c.Pairs {
		s := termcolor.RainbowStyle(p.Opening.ColorLevel, o.Palette, t.Scheme, t.Profile)
		out[p.Opening.Pos.ByteOffset] = s
		out[p.Closing.Pos.ByteOffset] = s
	}
	errStyle := termcolor.ErrorStyle(t.Profile)
	for _, u := range c.Unmatched {
		out[u.Bracket.Pos.ByteOffset] = errStyle
	}
	return out
}

// Paint writes content with every bracket colored by its nesting level and
// unmatched brackets in the error style. Without color support the content is
// written unchanged.
func Paint(w io.Writer, content string, c bracket.Collection, o Options) error {
	if !o.Terminal.Enabled || c.BracketCount() == 0 {
		_, err := io.WriteString(w, content)
		return err
	}
	marks := styles(c, o)
	var b strings.Builder
	b.Grow(len(content) + 12*len(marks))
	last := 0
	for off := 0; off < len(content); {
		_, size := utf8.DecodeRuneInString(content[off:])
		if s, ok := marks[off]; ok {
			b.WriteString(content[last:off])
			b.WriteString(o.Terminal.Paint(s, content[off:off+size]))
			last = off + size
		}
		off += size
	}
	b.WriteString(content[last:])
	_, err := io.WriteString(w, b.String())
	return err
}

// Annotate prints one diagnostic per unmatched bracket in source order:
//
//	name:line:col: reason
//	<source line>
//	<caret under the bracket>
//
// Lines and columns are 1-based. The caret accounts for wide runes and tabs.
func Annotate(w io.Writer, content string, c bracket.Collection, o Options) error {
	if len(c.Unmatched) == 0 {
		return nil
	}
	items := append([]bracket.Unmatched(nil), c.Unmatched...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Bracket.Pos.Before(items[j].Bracket.Pos)
	})
	lines := splitLines(content)
	for _, u := range items {
		pos := u.Bracket.Pos
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s\n", o.name(), pos.Line+1, pos.Column+1, u.Reason); err != nil {
			return err
		}
		if pos.Line >= len(lines) {
			continue
		}
		line := lines[pos.Line]
		caret := textutil.CaretPrefix(line, pos.Column) + o.Terminal.Unmatched("^")
		if _, err := fmt.Fprintf(w, "%s\n%s\n", line, caret); err != nil {
			return err
		}
	}
	return nil
}

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
