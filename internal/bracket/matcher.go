package bracket

import "time"

// Analyzer produces a bracket report for source text.
type Analyzer interface {
	Analyze(content string, lang Language) Collection
}

// Matcher pairs brackets with a LIFO stack in one forward pass. It holds only
// configuration, so one Matcher may serve concurrent scans.
type Matcher struct {
	scheme ColorScheme
	policy AnglePolicy
}

type Option func(*Matcher)

// WithAnglePolicy replaces the generic-suppression heuristic.
func WithAnglePolicy(p AnglePolicy) Option {
	return func(m *Matcher) {
		if p != nil {
			m.policy = p
		}
	}
}

func NewMatcher(scheme ColorScheme, opts ...Option) *Matcher {
	m := &Matcher{scheme: scheme, policy: HeuristicPolicy{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Matcher) Scheme() ColorScheme { return m.scheme }

// WithScheme returns a copy of m that colors with s and keeps its angle policy.
func (m *Matcher) WithScheme(s ColorScheme) *Matcher {
	c := *m
	c.scheme = s
	return &c
}

func (m *Matcher) Analyze(content string, lang Language) Collection {
	return m.Match(content, lang)
}

// Match scans content and returns its bracket report. It never fails:
// unbalanced input is reported through Collection.Unmatched.
func (m *Matcher) Match(content string, lang Language) Collection {
	start := time.Now()
	chars := []rune(content)
	policy := m.anglePolicyFor(content, lang)

	var (
		pairs     []Pair
		unmatched []Unmatched
		stack     []Bracket
		maxDepth  int
	)

	cur := newCursor(chars)
	for cur.more() {
		tok := cur.next()
		if !tok.code {
			continue
		}
		typ, side, ok := Classify(tok.ch)
		if !ok {
			continue
		}
		if typ == Angle && policy != nil {
			ac := AngleContext{Chars: chars, Index: tok.idx, Pos: tok.pos, Side: side, Language: lang}
			if !policy.IsBracket(ac) {
				continue
			}
		}

		depth := len(stack)
		b := Bracket{
			Type:       typ,
			Side:       side,
			Char:       string(tok.ch),
			Pos:        tok.pos,
			Depth:      depth,
			ColorLevel: m.scheme.LevelFor(depth),
		}

		if side == Opening {
			stack = append(stack, b)
			if depth > maxDepth {
				maxDepth = depth
			}
			continue
		}

		if depth == 0 {
			unmatched = append(unmatched, Unmatched{Bracket: b, Reason: Reason{Kind: MissingOpening}})
			continue
		}
		open := stack[depth-1]
		stack = stack[:depth-1]
		if open.Type == typ {
			pairs = append(pairs, Pair{Opening: open, Closing: b})
			continue
		}
		// Both ends of a mismatch are reported; neither goes back on the stack.
		unmatched = append(unmatched,
			Unmatched{Bracket: b, Reason: Mismatch(open.Type, typ)},
			Unmatched{Bracket: open, Reason: Mismatch(typ, open.Type)},
		)
	}

	for i := len(stack) - 1; i >= 0; i-- {
		unmatched = append(unmatched, Unmatched{Bracket: stack[i], Reason: Reason{Kind: MissingClosing}})
	}

	return newCollection(pairs, unmatched, maxDepth, time.Since(start).Milliseconds())
}

func (m *Matcher) anglePolicyFor(content string, lang Language) AnglePolicy {
	if !lang.UsesAngleBracketsAsGenerics() {
		return nil
	}
	policy := m.policy
	if policy == nil {
		policy = HeuristicPolicy{}
	}
	if p, ok := policy.(Preparer); ok {
		if prepared := p.Prepare(content, lang); prepared != nil {
			return prepared
		}
	}
	return policy
}

// Match scans content with the default rainbow and heuristic angle policy.
func Match(content string, lang Language) Collection {
	return NewMatcher(DefaultRainbow()).Match(content, lang)
}
