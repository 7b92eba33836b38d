package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/detect"
	"github.com/phyten/bracketx/internal/progress"
	"github.com/phyten/bracketx/internal/store"
)

// ErrInvalidUTF8 is returned by ScanText for content that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

const (
	maxJobs    = 64
	sniffBytes = 8000
)

// Run は指定されたオプションに従ってファイルを走査し、括弧の対応結果を返します。
//
// ファイル単位の失敗（読み込み・UTF-8 検証など）は Result.Errors に集約され、
// 走査自体は継続します。ctx がキャンセルされた場合はエラーを返します。
func Run(ctx context.Context, o Options) (*Result, error) {
	start := time.Now()
	log := zerolog.Ctx(ctx)
	if o.Jobs <= 0 {
		o.Jobs = min(runtime.NumCPU(), maxJobs)
	}
	if o.Root == "" {
		o.Root = "."
	}
	m, err := o.matcher()
	if err != nil {
		return nil, err
	}

	files, errs := collectFiles(ctx, o)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debug().Int("files", len(files)).Int("jobs", o.Jobs).Msg("collected files")

	obs := o.ProgressObserver
	if obs == nil {
		if o.Progress {
			obs = progress.NewAutoObserver(os.Stderr, *log)
		} else {
			obs = progress.NoopObserver{}
		}
	}
	est := progress.NewEstimator(0, progress.Config{})
	obs.Publish(est.Begin(len(files)))

	reports := make([]*FileReport, len(files))
	var errsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Jobs)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, itemErr := scanFile(gctx, f, o, m)
			if itemErr != nil {
				errsMu.Lock()
				errs = append(errs, *itemErr)
				errsMu.Unlock()
			}
			reports[i] = rep
			pairs, unmatched := 0, 0
			if rep != nil {
				pairs, unmatched = len(rep.Collection.Pairs), len(rep.Collection.Unmatched)
			}
			if snap, notify := est.Advance(pairs, unmatched); notify {
				obs.Publish(snap)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		obs.Done(est.Snapshot())
		return nil, err
	}
	obs.Done(est.Snapshot())

	res := &Result{Files: make([]FileReport, 0, len(reports))}
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		res.Files = append(res.Files, *rep)
		res.TotalPairs += len(rep.Collection.Pairs)
		res.TotalUnmatched += len(rep.Collection.Unmatched)
		res.MaxDepth = max(res.MaxDepth, rep.Collection.MaxDepth)
		if rep.Cached {
			res.CacheHits++
		}
	}
	sort.SliceStable(res.Files, func(i, j int) bool { return res.Files[i].File < res.Files[j].File })
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].File == errs[j].File {
			return errs[i].Stage < errs[j].Stage
		}
		return errs[i].File < errs[j].File
	})
	res.TotalFiles = len(res.Files)
	res.Errors = errs
	res.ErrorCount = len(errs)
	res.ElapsedMS = time.Since(start).Milliseconds()

	log.Info().
		Int("files", res.TotalFiles).
		Int("pairs", res.TotalPairs).
		Int("unmatched", res.TotalUnmatched).
		Int("errors", res.ErrorCount).
		Int64("elapsed_ms", res.ElapsedMS).
		Msg("scan complete")
	return res, nil
}

// ScanText scans one in-memory buffer with the same matcher and cache as Run.
func ScanText(ctx context.Context, content string, lang bracket.Language, o Options) (bracket.Collection, error) {
	if !utf8.ValidString(content) {
		return bracket.Collection{}, ErrInvalidUTF8
	}
	if err := ctx.Err(); err != nil {
		return bracket.Collection{}, err
	}
	m, err := o.matcher()
	if err != nil {
		return bracket.Collection{}, err
	}
	coll, _ := analyze(ctx, []byte(content), lang, o, m)
	return coll, nil
}

func (o Options) matcher() (*bracket.Matcher, error) {
	colors := o.Colors
	if colors == 0 {
		colors = bracket.DefaultColorCount
	}
	scheme, err := bracket.NewColorScheme(colors)
	if err != nil {
		return nil, err
	}
	return bracket.NewMatcher(scheme, bracket.WithAnglePolicy(o.Policy)), nil
}

func (o Options) policyKey() string {
	if o.PolicyKey != "" {
		return o.PolicyKey
	}
	if name := strings.TrimSpace(o.AnglePolicy); name != "" {
		return strings.ToLower(name)
	}
	return "heuristic"
}

// analyze runs the matcher, going through the cache when one is configured.
func analyze(ctx context.Context, data []byte, lang bracket.Language, o Options, m *bracket.Matcher) (bracket.Collection, bool) {
	if o.Cache == nil {
		return m.Match(string(data), lang), false
	}
	log := zerolog.Ctx(ctx)
	key := store.KeyFor(data, lang, m.Scheme().Count(), o.policyKey())
	coll, err := o.Cache.Get(ctx, key)
	if err == nil {
		return coll, true
	}
	if !errors.Is(err, store.ErrMiss) {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache lookup failed")
	}
	coll = m.Match(string(data), lang)
	if err := o.Cache.Put(ctx, key, coll); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache store failed")
	}
	return coll, false
}

func scanFile(ctx context.Context, f candidate, o Options, m *bracket.Matcher) (*FileReport, *ItemError) {
	log := zerolog.Ctx(ctx)
	if o.MaxFileBytes > 0 {
		if info, err := os.Stat(f.full); err == nil && info.Size() > int64(o.MaxFileBytes) {
			log.Debug().Str("file", f.rel).Int64("bytes", info.Size()).Msg("skipped large file")
			return nil, nil
		}
	}
	data, err := os.ReadFile(f.full)
	if err != nil {
		ie := newItemError(f.rel, "read", err)
		return nil, &ie
	}
	if bytes.IndexByte(data[:min(len(data), sniffBytes)], 0) >= 0 {
		log.Debug().Str("file", f.rel).Msg("skipped binary file")
		return nil, nil
	}
	if !utf8.Valid(data) {
		ie := newItemError(f.rel, "decode", ErrInvalidUTF8)
		return nil, &ie
	}

	info := detect.FromPathAndContent(f.rel, data)
	if o.Lang != "" {
		info = detect.FromName(o.Lang)
	}
	if !detect.MatchesLang(info, o.Languages) {
		return nil, nil
	}

	coll, cached := analyze(ctx, data, info.Language, o, m)
	lang := info.Name
	if lang == "" {
		lang = info.Language.String()
	}
	log.Debug().
		Str("file", f.rel).
		Str("lang", lang).
		Int("pairs", len(coll.Pairs)).
		Int("unmatched", len(coll.Unmatched)).
		Bool("cached", cached).
		Msg("scanned")
	return &FileReport{
		File:       f.rel,
		Lang:       lang,
		Language:   info.Language,
		Bytes:      len(data),
		Cached:     cached,
		Collection: coll,
	}, nil
}

func newItemError(file, stage string, err error) ItemError {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "unknown error"
	}
	return ItemError{File: file, Stage: stage, Message: msg}
}

// Summary renders a one-line human summary of r.
func Summary(r *Result) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%d files, %d pairs, %d unmatched, max depth %d (%d ms)",
		r.TotalFiles, r.TotalPairs, r.TotalUnmatched, r.MaxDepth, r.ElapsedMS)
}
