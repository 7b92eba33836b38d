package output

import (
	"encoding/csv"
	"io"
)

// WriteCSV renders one row per unmatched bracket as RFC 4180 CSV (CRLF endings).
func WriteCSV(w io.Writer, rows []Row, fields []string) error {
	writer := csv.NewWriter(w)
	writer.UseCRLF = true
	if err := writer.Write(Headers(fields)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write(RowValues(r, fields)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
