package engine

import (
	"context"
	"regexp"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/progress"
	"github.com/phyten/bracketx/internal/store"
)

// FileReport は 1 ファイル分の走査結果を表す
type FileReport struct {
	File       string             `json:"file"`
	Lang       string             `json:"lang,omitempty"`
	Language   bracket.Language   `json:"language"`
	Bytes      int                `json:"bytes"`
	Cached     bool               `json:"cached,omitempty"`
	Collection bracket.Collection `json:"collection"`
}

// ItemError は 1 ファイルの処理に失敗した際の情報を表す
type ItemError struct {
	File    string `json:"file"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Cache stores collections by content and scan settings. *store.Store implements it.
type Cache interface {
	Get(ctx context.Context, key store.Key) (bracket.Collection, error)
	Put(ctx context.Context, key store.Key, c bracket.Collection) error
}

// Options は実行オプション
type Options struct {
	Root              string
	Paths             []string
	Excludes          []string
	ExcludeTypical    bool
	PathRegex         []string
	PathRegexCompiled []*regexp.Regexp `json:"-"`
	Languages         []string
	Lang              string // forces the language of every file
	Colors            int
	AnglePolicy       string // heuristic|syntax|script|always|never
	AngleScript       string
	Policy            bracket.AnglePolicy `json:"-"`
	PolicyKey         string              `json:"-"`
	Jobs              int
	MaxFileBytes      int
	Progress          bool
	ProgressObserver  progress.Observer `json:"-"`
	Cache             Cache             `json:"-"`
}

// Result は出力
type Result struct {
	Files          []FileReport `json:"files"`
	TotalFiles     int          `json:"total_files"`
	TotalPairs     int          `json:"total_pairs"`
	TotalUnmatched int          `json:"total_unmatched"`
	MaxDepth       int          `json:"max_depth"`
	CacheHits      int          `json:"cache_hits"`
	ElapsedMS      int64        `json:"elapsed_ms"`
	Errors         []ItemError  `json:"errors,omitempty"`
	ErrorCount     int          `json:"error_count"`
}

func (r *Result) HasUnmatched() bool {
	return r != nil && r.TotalUnmatched > 0
}
