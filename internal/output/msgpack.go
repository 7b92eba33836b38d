package output

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/phyten/bracketx/internal/engine"
)

// WriteMsgpack encodes the whole result as one MessagePack map. Keys follow
// the JSON field names.
func WriteMsgpack(w io.Writer, res *engine.Result) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	return enc.Encode(res)
}
