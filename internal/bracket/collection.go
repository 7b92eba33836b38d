package bracket

// Statistics holds per-type pair counts derived from a Collection's pairs.
type Statistics struct {
	RoundPairs  int `json:"round_pairs"`
	SquarePairs int `json:"square_pairs"`
	CurlyPairs  int `json:"curly_pairs"`
	AnglePairs  int `json:"angle_pairs"`
}

func (s Statistics) TotalPairs() int {
	return s.RoundPairs + s.SquarePairs + s.CurlyPairs + s.AnglePairs
}

// Count returns the number of pairs of the given type.
func (s Statistics) Count(t Type) int {
	switch t {
	case Round:
		return s.RoundPairs
	case Square:
		return s.SquarePairs
	case Curly:
		return s.CurlyPairs
	case Angle:
		return s.AnglePairs
	default:
		return 0
	}
}

func statisticsOf(pairs []Pair) Statistics {
	var s Statistics
	for _, p := range pairs {
		switch p.Type() {
		case Round:
			s.RoundPairs++
		case Square:
			s.SquarePairs++
		case Curly:
			s.CurlyPairs++
		case Angle:
			s.AnglePairs++
		}
	}
	return s
}

// Collection is the result of one scan. Pairs are ordered by the position of
// their closing bracket, Unmatched by discovery.
type Collection struct {
	Pairs     []Pair      `json:"pairs"`
	Unmatched []Unmatched `json:"unmatched"`
	MaxDepth  int         `json:"max_depth"`
	Stats     Statistics  `json:"statistics"`
	ElapsedMS int64       `json:"elapsed_ms"`
}

func newCollection(pairs []Pair, unmatched []Unmatched, maxDepth int, elapsedMS int64) Collection {
	if pairs == nil {
		pairs = []Pair{}
	}
	if unmatched == nil {
		unmatched = []Unmatched{}
	}
	return Collection{
		Pairs:     pairs,
		Unmatched: unmatched,
		MaxDepth:  maxDepth,
		Stats:     statisticsOf(pairs),
		ElapsedMS: elapsedMS,
	}
}

func (c Collection) HasErrors() bool { return len(c.Unmatched) > 0 }

// BracketCount is the number of scanned brackets accounted for in the collection.
func (c Collection) BracketCount() int { return 2*len(c.Pairs) + len(c.Unmatched) }
