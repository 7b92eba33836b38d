package bracket

import "unicode"

// Classify maps a rune onto its bracket type and side. ok is false for
// runes that are not brackets.
func Classify(ch rune) (t Type, side Side, ok bool) {
	switch ch {
	case '(':
		return Round, Opening, true
	case ')':
		return Round, Closing, true
	case '[':
		return Square, Opening, true
	case ']':
		return Square, Closing, true
	case '{':
		return Curly, Opening, true
	case '}':
		return Curly, Closing, true
	case '<':
		return Angle, Opening, true
	case '>':
		return Angle, Closing, true
	}
	return 0, 0, false
}

// IsLikelyGeneric guesses whether the angle bracket at chars[index] belongs
// to a generic such as Vec<T> or Map<K, V>. Comparisons written next to an
// identifier (a<b) are misread as generics; that imprecision is accepted.
func IsLikelyGeneric(chars []rune, index int) bool {
	if index > 0 && index-1 < len(chars) {
		prev := chars[index-1]
		if isIdentRune(prev) {
			return true
		}
	}
	if index+1 < len(chars) {
		next := chars[index+1]
		if isIdentRune(next) || next == ',' || next == ' ' {
			return true
		}
	}
	return false
}

// isIdentRune accepts underscore and alphanumeric runes: letters, every
// numeric category (Nd, Nl, No) and the combining marks that count as
// alphabetic.
func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Other_Alphabetic, r)
}

// AngleContext describes one angle bracket candidate.
type AngleContext struct {
	Chars    []rune
	Index    int
	Pos      Position
	Side     Side
	Language Language
}

// Prev returns the rune before the candidate, or 0 at the start of input.
func (c AngleContext) Prev() rune {
	if c.Index > 0 && c.Index-1 < len(c.Chars) {
		return c.Chars[c.Index-1]
	}
	return 0
}

// Next returns the rune after the candidate, or 0 at the end of input.
func (c AngleContext) Next() rune {
	if c.Index+1 < len(c.Chars) {
		return c.Chars[c.Index+1]
	}
	return 0
}

// AnglePolicy decides whether an angle bracket is treated as a bracket. It is
// consulted only for languages where UsesAngleBracketsAsGenerics is true.
type AnglePolicy interface {
	IsBracket(ac AngleContext) bool
}

// Preparer is implemented by policies that need the whole input before the
// pass starts. Prepare is called once per scan and its result is used for that
// scan only.
type Preparer interface {
	Prepare(content string, lang Language) AnglePolicy
}

type PolicyFunc func(ac AngleContext) bool

func (f PolicyFunc) IsBracket(ac AngleContext) bool { return f(ac) }

// HeuristicPolicy drops angle brackets that look like generics.
type HeuristicPolicy struct{}

func (HeuristicPolicy) IsBracket(ac AngleContext) bool {
	return !IsLikelyGeneric(ac.Chars, ac.Index)
}

var (
	// AlwaysBrackets keeps every angle bracket.
	AlwaysBrackets AnglePolicy = PolicyFunc(func(AngleContext) bool { return true })
	// NeverBrackets drops every angle bracket.
	NeverBrackets AnglePolicy = PolicyFunc(func(AngleContext) bool { return false })
)
