package bracket

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type is the bracket family.
type Type uint8

const (
	Round Type = iota
	Square
	Curly
	Angle
)

var typeNames = [...]string{"round", "square", "curly", "angle"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return Round, fmt.Errorf("unknown bracket type: %q", s)
}

// Side tells whether a bracket opens or closes a group.
type Side uint8

const (
	Opening Side = iota
	Closing
)

func (s Side) String() string {
	if s == Closing {
		return "closing"
	}
	return "opening"
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "opening":
		*s = Opening
	case "closing":
		*s = Closing
	default:
		return fmt.Errorf("unknown bracket side: %q", string(b))
	}
	return nil
}

// Bracket is one scanned bracket occurrence. Depth is the stack size at the
// moment the bracket was scanned, before any push or pop.
type Bracket struct {
	Type       Type     `json:"type"`
	Side       Side     `json:"side"`
	Char       string   `json:"char"`
	Pos        Position `json:"position"`
	Depth      int      `json:"depth"`
	ColorLevel int      `json:"color_level"`
}

// Pair is a successful match. Opening always precedes Closing and both share a Type.
type Pair struct {
	Opening Bracket `json:"opening"`
	Closing Bracket `json:"closing"`
}

func (p Pair) Type() Type { return p.Opening.Type }

func (p Pair) Depth() int { return p.Opening.Depth }

// ReasonKind classifies why a bracket has no partner.
type ReasonKind uint8

const (
	MissingOpening ReasonKind = iota
	MissingClosing
	TypeMismatch
)

var reasonNames = [...]string{"missing_opening", "missing_closing", "type_mismatch"}

func (k ReasonKind) String() string {
	if int(k) < len(reasonNames) {
		return reasonNames[k]
	}
	return fmt.Sprintf("reason(%d)", uint8(k))
}

func (k ReasonKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ReasonKind) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range reasonNames {
		if n == name {
			*k = ReasonKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown unmatched reason: %q", string(b))
}

// Reason explains an unmatched bracket. Expected and Found are only
// meaningful for TypeMismatch: Expected is the type the other end of the
// mismatch required, Found is the type of this bracket.
type Reason struct {
	Kind     ReasonKind `msgpack:"kind"`
	Expected Type       `msgpack:"expected"`
	Found    Type       `msgpack:"found"`
}

func Mismatch(expected, found Type) Reason {
	return Reason{Kind: TypeMismatch, Expected: expected, Found: found}
}

func (r Reason) String() string {
	if r.Kind == TypeMismatch {
		return fmt.Sprintf("type_mismatch(expected %s, found %s)", r.Expected, r.Found)
	}
	return r.Kind.String()
}

type reasonJSON struct {
	Kind     ReasonKind `json:"kind"`
	Expected *Type      `json:"expected,omitempty"`
	Found    *Type      `json:"found,omitempty"`
}

func (r Reason) MarshalJSON() ([]byte, error) {
	out := reasonJSON{Kind: r.Kind}
	if r.Kind == TypeMismatch {
		expected, found := r.Expected, r.Found
		out.Expected = &expected
		out.Found = &found
	}
	return json.Marshal(out)
}

func (r *Reason) UnmarshalJSON(b []byte) error {
	var in reasonJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Reason{Kind: in.Kind}
	if in.Expected != nil {
		r.Expected = *in.Expected
	}
	if in.Found != nil {
		r.Found = *in.Found
	}
	return nil
}

// Unmatched is a bracket without a valid partner.
type Unmatched struct {
	Bracket Bracket `json:"bracket"`
	Reason  Reason  `json:"reason"`
}
