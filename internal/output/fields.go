package output

import (
	"sort"
	"strconv"
	"strings"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/engine"
)

// Row is one unmatched bracket together with the file it was found in.
type Row struct {
	File      string
	Lang      string
	Unmatched bracket.Unmatched
}

var fieldHeaders = map[string]string{
	"file":   "FILE",
	"lang":   "LANG",
	"line":   "LINE",
	"column": "COL",
	"offset": "OFFSET",
	"char":   "CHAR",
	"type":   "TYPE",
	"depth":  "DEPTH",
	"reason": "REASON",
}

// Rows flattens the unmatched brackets of every file, ordered by file and
// then by position.
func Rows(res *engine.Result) []Row {
	if res == nil {
		return nil
	}
	var rows []Row
	for _, f := range res.Files {
		lang := f.Lang
		if lang == "" {
			lang = f.Language.String()
		}
		for _, u := range f.Collection.Unmatched {
			rows = append(rows, Row{File: f.File, Lang: lang, Unmatched: u})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].File != rows[j].File {
			return rows[i].File < rows[j].File
		}
		return rows[i].Unmatched.Bracket.Pos.Before(rows[j].Unmatched.Bracket.Pos)
	})
	return rows
}

func Headers(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if h, ok := fieldHeaders[f]; ok {
			out[i] = h
		} else {
			out[i] = strings.ToUpper(f)
		}
	}
	return out
}

// RowValues renders the requested fields. Lines and columns are 1-based here,
// unlike the 0-based positions in JSON output.
func RowValues(r Row, fields []string) []string {
	b := r.Unmatched.Bracket
	out := make([]string, len(fields))
	for i, f := range fields {
		switch f {
		case "file":
			out[i] = r.File
		case "lang":
			out[i] = r.Lang
		case "line":
			out[i] = strconv.Itoa(b.Pos.Line + 1)
		case "column":
			out[i] = strconv.Itoa(b.Pos.Column + 1)
		case "offset":
			out[i] = strconv.Itoa(b.Pos.ByteOffset)
		case "char":
			out[i] = b.Char
		case "type":
			out[i] = b.Type.String()
		case "depth":
			out[i] = strconv.Itoa(b.Depth)
		case "reason":
			out[i] = r.Unmatched.Reason.String()
		}
	}
	return out
}
