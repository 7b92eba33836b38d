package output

import (
	"io"
	"strings"

	"github.com/phyten/bracketx/internal/engine"
	"github.com/phyten/bracketx/internal/termcolor"
	"github.com/phyten/bracketx/internal/textutil"
)

// TableStyle controls coloring of WriteTable. The zero value prints plain text.
type TableStyle struct {
	Terminal termcolor.Terminal
	Palette  termcolor.Palette
}

// WriteTable renders rows as space-aligned columns. Widths are measured in
// terminal cells so wide characters and escape sequences do not skew them.
func WriteTable(w io.Writer, rows []Row, fields []string, style TableStyle) error {
	header := Headers(fields)
	cells := make([][]string, len(rows))
	widths := make([]int, len(fields))
	for i, h := range header {
		widths[i] = textutil.VisibleWidth(h)
	}
	for i, r := range rows {
		cells[i] = RowValues(r, fields)
		for j, c := range cells[i] {
			if cw := textutil.VisibleWidth(c); cw > widths[j] {
				widths[j] = cw
			}
		}
	}

	for i := range header {
		header[i] = style.Terminal.Header(header[i])
	}
	if err := writeTableLine(w, header, widths); err != nil {
		return err
	}
	for i, r := range rows {
		for j, f := range fields {
			switch f {
			case "char":
				cells[i][j] = style.Terminal.Unmatched(cells[i][j])
			case "depth":
				cells[i][j] = style.Terminal.Level(r.Unmatched.Bracket.ColorLevel, style.Palette, cells[i][j])
			}
		}
		if err := writeTableLine(w, cells[i], widths); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummaryTable renders one line per file with its pair and unmatched
// counts. Files with unmatched brackets have their count in the error style.
func WriteSummaryTable(w io.Writer, files []engine.FileReport, style TableStyle) error {
	header := append([]string(nil), summaryHeaders...)
	cells := make([][]string, len(files))
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = textutil.VisibleWidth(h)
	}
	for i, f := range files {
		cells[i] = summaryCells(f)
		for j, c := range cells[i] {
			if cw := textutil.VisibleWidth(c); cw > widths[j] {
				widths[j] = cw
			}
		}
	}

	for i := range header {
		header[i] = style.Terminal.Header(header[i])
	}
	if err := writeTableLine(w, header, widths); err != nil {
		return err
	}
	for i, f := range files {
		if len(f.Collection.Unmatched) > 0 {
			cells[i][3] = style.Terminal.Unmatched(cells[i][3])
		}
		if err := writeTableLine(w, cells[i], widths); err != nil {
			return err
		}
	}
	return nil
}

func writeTableLine(w io.Writer, cols []string, widths []int) error {
	var b strings.Builder
	for i, c := range cols {
		if i == len(cols)-1 {
			b.WriteString(c)
			break
		}
		b.WriteString(textutil.PadRight(c, widths[i]))
		b.WriteString("  ")
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
