package bracket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := map[rune]struct {
		typ  Type
		side Side
	}{
		'(': {Round, Opening}, ')': {Round, Closing},
		'[': {Square, Opening}, ']': {Square, Closing},
		'{': {Curly, Opening}, '}': {Curly, Closing},
		'<': {Angle, Opening}, '>': {Angle, Closing},
	}
	for r, want := range cases {
		typ, side, ok := Classify(r)
		assert.True(t, ok, string(r))
		assert.Equal(t, want.typ, typ, string(r))
		assert.Equal(t, want.side, side, string(r))
	}
	for _, r := range "a1 \"'/\\\n" {
		_, _, ok := Classify(r)
		assert.False(t, ok, string(r))
	}
}

func TestIsLikelyGeneric(t *testing.T) {
	cases := []struct {
		src   string
		index int
		want  bool
	}{
		{"Vec<T>", 3, true},
		{"Vec<T>", 5, true},
		{"Map<K, V>", 3, true},
		{"x < 1", 2, true},
		{"(<)", 1, false},
		{"1 <= 2", 2, false},
		{"<", 0, false},
		{">", 0, false},
		{"a<", 1, true},
		{"x²<", 2, true},
		{"Ⅻ<", 1, true},
		{"½<", 1, true},
		{"<٣", 0, true},
		{"-<", 1, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsLikelyGeneric([]rune(tc.src), tc.index), tc.src)
	}
}

func TestAngleContextNeighbours(t *testing.T) {
	ac := AngleContext{Chars: []rune("a<b"), Index: 1}
	assert.Equal(t, 'a', ac.Prev())
	assert.Equal(t, 'b', ac.Next())

	edge := AngleContext{Chars: []rune("<"), Index: 0}
	assert.Equal(t, rune(0), edge.Prev())
	assert.Equal(t, rune(0), edge.Next())
}

func TestHeuristicPolicy(t *testing.T) {
	var p AnglePolicy = HeuristicPolicy{}
	assert.False(t, p.IsBracket(AngleContext{Chars: []rune("Vec<T>"), Index: 3}))
	assert.True(t, p.IsBracket(AngleContext{Chars: []rune("(<)"), Index: 1}))
}
