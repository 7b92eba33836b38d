package bracket

import "unicode/utf8"

// lexState tracks whether the scan is inside a string literal or a comment.
// It only understands C-style comments and quoted strings with backslash
// escapes; every language shares these rules.
type lexState struct {
	inDouble   bool
	inSingle   bool
	inLine     bool
	inBlock    bool
	escapeNext bool
}

func (s lexState) inString() bool  { return s.inDouble || s.inSingle }
func (s lexState) inComment() bool { return s.inLine || s.inBlock }
func (s lexState) inCode() bool    { return !s.inString() && !s.inComment() }

// token is one consumed rune together with where it started.
type token struct {
	ch   rune
	idx  int
	pos  Position
	code bool // eligible for bracket classification
}

// cursor walks the rune slice with an explicit index so that the two-rune
// block comment terminator can be consumed in a single step.
type cursor struct {
	chars []rune
	i     int
	pos   Position
	lex   lexState
}

func newCursor(chars []rune) *cursor {
	return &cursor{chars: chars}
}

func (c *cursor) more() bool { return c.i < len(c.chars) }

func (c *cursor) peek() rune {
	if c.i+1 < len(c.chars) {
		return c.chars[c.i+1]
	}
	return 0
}

// advance moves past chars[i], keeping line, column and byte offset in step.
func (c *cursor) advance() {
	ch := c.chars[c.i]
	width := utf8.RuneLen(ch)
	if width < 0 {
		width = utf8.RuneLen(utf8.RuneError)
	}
	c.pos.ByteOffset += width
	if ch == '\n' {
		c.pos.Line++
		c.pos.Column = 0
	} else {
		c.pos.Column++
	}
	c.i++
}

// next consumes the rune under the cursor (two runes for "*/") and updates
// the lexical state. Rules apply in order: pending escape, backslash inside a
// string, newline, quote toggling, comment delimiters.
func (c *cursor) next() token {
	ch := c.chars[c.i]
	tok := token{ch: ch, idx: c.i, pos: c.pos}
	st := &c.lex

	switch {
	case st.escapeNext:
		st.escapeNext = false
		c.advance()
		return tok
	case ch == '\\' && st.inString():
		st.escapeNext = true
		c.advance()
		return tok
	case ch == '\n':
		st.inLine = false
		c.advance()
		return tok
	}

	wasCode := st.inCode()
	switch ch {
	case '"':
		if !st.inSingle && !st.inComment() {
			st.inDouble = !st.inDouble
		}
	case '\'':
		if !st.inDouble && !st.inComment() {
			st.inSingle = !st.inSingle
		}
	}

	if !st.inString() {
		next := c.peek()
		switch {
		case st.inBlock && ch == '*' && next == '/':
			st.inBlock = false
			c.advance()
			c.advance()
			return tok
		case ch == '/' && next == '/':
			st.inLine = true
		case ch == '/' && next == '*':
			st.inBlock = true
		}
	}

	// Delimiters that enter or leave a string or comment are never code.
	tok.code = wasCode && st.inCode()
	c.advance()
	return tok
}
