// Package script lets users decide angle brackets with a Risor expression.
//
// The expression sees these globals and its result is tested for truthiness:
//
//	char      "<" or ">"
//	side      "opening" or "closing"
//	prev      the rune before, "" at the start of input
//	next      the rune after, "" at the end of input
//	language  the language name, e.g. "rust"
//	line, column, offset
//
// For example `prev == " " && next == " "` treats only spaced comparison
// operators as brackets.
package script

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/risor-io/risor"
	"github.com/rs/zerolog"

	"github.com/phyten/bracketx/internal/bracket"
)

var ErrEmptyScript = errors.New("angle script is empty")

const defaultTimeout = 250 * time.Millisecond

// Policy implements bracket.AnglePolicy by evaluating a Risor expression per
// angle bracket. Evaluation failures use the fallback policy.
type Policy struct {
	source   string
	fallback bracket.AnglePolicy
	timeout  time.Duration
	log      zerolog.Logger
	failures atomic.Int64
}

type Option func(*Policy)

func WithFallback(p bracket.AnglePolicy) Option {
	return func(s *Policy) {
		if p != nil {
			s.fallback = p
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Policy) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Policy) { s.log = l }
}

// NewPolicy checks that source evaluates against a sample bracket and returns the policy.
func NewPolicy(source string, opts ...Option) (*Policy, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptyScript
	}
	p := &Policy{
		source:   source,
		fallback: bracket.HeuristicPolicy{},
		timeout:  defaultTimeout,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	sample := bracket.AngleContext{Chars: []rune("a < b"), Index: 2, Side: bracket.Opening}
	if _, err := p.eval(context.Background(), sample); err != nil {
		return nil, fmt.Errorf("angle script: %w", err)
	}
	return p, nil
}

// Load reads the script at path and builds a Policy from it.
func Load(path string, opts ...Option) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read angle script: %w", err)
	}
	return NewPolicy(string(data), opts...)
}

// Key identifies the script's decisions in the result cache. It changes
// whenever the source does.
func (p *Policy) Key() string {
	sum := sha256.Sum256([]byte(p.source))
	return "script:" + hex.EncodeToString(sum[:8])
}

func (p *Policy) IsBracket(ac bracket.AngleContext) bool {
	ok, err := p.eval(context.Background(), ac)
	if err != nil {
		if p.failures.Add(1) == 1 {
			p.log.Warn().Err(err).Int("line", ac.Pos.Line).Int("column", ac.Pos.Column).Msg("angle script failed; using fallback")
		}
		return p.fallback.IsBracket(ac)
	}
	return ok
}

// Failures counts evaluations that fell back.
func (p *Policy) Failures() int64 { return p.failures.Load() }

func (p *Policy) eval(ctx context.Context, ac bracket.AngleContext) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	char := ">"
	if ac.Side == bracket.Opening {
		char = "<"
	}
	result, err := risor.Eval(ctx, p.source,
		risor.WithGlobal("char", char),
		risor.WithGlobal("side", ac.Side.String()),
		risor.WithGlobal("prev", runeString(ac.Prev())),
		risor.WithGlobal("next", runeString(ac.Next())),
		risor.WithGlobal("language", ac.Language.String()),
		risor.WithGlobal("line", ac.Pos.Line),
		risor.WithGlobal("column", ac.Pos.Column),
		risor.WithGlobal("offset", ac.Pos.ByteOffset),
	)
	if err != nil {
		return false, err
	}
	if result == nil {
		return false, nil
	}
	return result.IsTruthy(), nil
}

func runeString(r rune) string {
	if r == 0 {
		return ""
	}
	return string(r)
}
