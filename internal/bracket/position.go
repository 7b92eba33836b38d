package bracket

// Position is a location in scanned source text. Line and Column are 0-based;
// Column counts runes, ByteOffset counts UTF-8 bytes from the start of input.
type Position struct {
	Line       int `json:"line" msgpack:"line"`
	Column     int `json:"column" msgpack:"column"`
	ByteOffset int `json:"byte_offset" msgpack:"byte_offset"`
}

func NewPosition(line, column, byteOffset int) Position {
	if line < 0 {
		line = 0
	}
	if column < 0 {
		column = 0
	}
	if byteOffset < 0 {
		byteOffset = 0
	}
	return Position{Line: line, Column: column, ByteOffset: byteOffset}
}

// Compare orders positions by byte offset, which is strictly monotonic over a scan.
func (p Position) Compare(other Position) int {
	switch {
	case p.ByteOffset < other.ByteOffset:
		return -1
	case p.ByteOffset > other.ByteOffset:
		return 1
	default:
		return 0
	}
}

func (p Position) Before(other Position) bool { return p.Compare(other) < 0 }
