package output

import (
	"encoding/json"
	"io"

	"github.com/phyten/bracketx/internal/engine"
)

// WriteNDJSON streams one FileReport per line.
func WriteNDJSON(w io.Writer, files []engine.FileReport) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, f := range files {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}
