package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phyten/bracketx/internal/engine"
)

var summaryHeaders = []string{"FILE", "LANG", "PAIRS", "UNMATCHED", "MAX DEPTH"}

// summaryCells returns the per-file summary values in summaryHeaders order.
func summaryCells(f engine.FileReport) []string {
	lang := f.Lang
	if lang == "" {
		lang = f.Language.String()
	}
	return []string{
		f.File,
		lang,
		strconv.Itoa(len(f.Collection.Pairs)),
		strconv.Itoa(len(f.Collection.Unmatched)),
		strconv.Itoa(f.Collection.MaxDepth),
	}
}

// WriteMarkdownTable renders a per-file summary as a GitHub Flavored Markdown table.
func WriteMarkdownTable(w io.Writer, files []engine.FileReport) error {
	if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(summaryHeaders, " | ")); err != nil {
		return err
	}
	sep := make([]string, len(summaryHeaders))
	for i := range sep {
		sep[i] = "---"
	}
	if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(sep, " | ")); err != nil {
		return err
	}
	for _, f := range files {
		row := summaryCells(f)
		row[0] = escapeMarkdownCell(row[0])
		row[1] = escapeMarkdownCell(row[1])
		if _, err := fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | ")); err != nil {
			return err
		}
	}
	return nil
}

func escapeMarkdownCell(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "<br>")
	s = strings.ReplaceAll(s, "|", "\\|")
	return s
}
