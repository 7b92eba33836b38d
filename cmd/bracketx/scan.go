package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/config"
	"github.com/phyten/bracketx/internal/engine"
	"github.com/phyten/bracketx/internal/output"
	"github.com/phyten/bracketx/internal/store"
)

// stdinName is the file name reported for content read from standard input.
const stdinName = "-"

type scanFlags struct {
	lang            string
	languages       []string
	colors          int
	anglePolicy     string
	angleScript     string
	jobs            int
	maxFileBytes    int
	excludes        []string
	excludeTypical  bool
	pathRegex       []string
	output          string
	color           string
	cache           string
	failOnUnmatched bool
	progress        bool
	fields          string
	palette         string
	showPairs       bool
}

func (a *app) scanCmd() *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Report unmatched brackets in files and directories",
		Long:  "Scans the given files and directories (default: the current directory) and lists every unmatched bracket. A single - reads standard input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd, args, f.layer(cmd, args))
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.lang, "lang", "", "force the language of every input (required for useful results on stdin)")
	fs.StringSliceVar(&f.languages, "languages", nil, "only scan files detected as these languages (comma-separated)")
	fs.IntVar(&f.colors, "colors", bracket.DefaultColorCount, "number of rainbow levels")
	fs.StringVar(&f.anglePolicy, "angle-policy", "heuristic", "angle bracket policy: heuristic|syntax|script|always|never")
	fs.StringVar(&f.angleScript, "angle-script", "", "Risor script deciding angle brackets (with --angle-policy=script)")
	fs.IntVar(&f.jobs, "jobs", 0, "max parallel workers (default: number of CPUs)")
	fs.IntVar(&f.maxFileBytes, "max-file-bytes", 0, "skip files larger than this (0 = unlimited)")
	fs.StringSliceVar(&f.excludes, "exclude", nil, "glob patterns of paths to skip (repeatable)")
	fs.BoolVar(&f.excludeTypical, "exclude-typical", false, "also skip build output and dependency directories")
	fs.StringArrayVar(&f.pathRegex, "path-regex", nil, "only scan paths matching this regular expression (repeatable)")
	fs.StringVarP(&f.output, "output", "o", "table", "output format: table|json|ndjson|csv|markdown|msgpack")
	fs.StringVar(&f.color, "color", "auto", "color mode: auto|always|never")
	fs.StringVar(&f.cache, "cache", "", "SQLite result cache path")
	fs.BoolVar(&f.failOnUnmatched, "fail-on-unmatched", false, "exit with status 1 when any bracket is unmatched")
	fs.BoolVar(&f.progress, "progress", false, "show progress on stderr")
	fs.StringVar(&f.fields, "fields", config.DefaultFields, "columns for table and csv output")
	fs.StringVar(&f.palette, "palette", "", "rainbow colors as hex, e.g. #ffd700,#da70d6")
	fs.BoolVar(&f.showPairs, "show-pairs", false, "print a per-file pair summary before the table")
	return cmd
}

// layer turns explicitly set flags into the topmost config layer.
func (f *scanFlags) layer(cmd *cobra.Command, args []string) config.Config {
	var c config.Config
	changed := cmd.Flags().Changed
	if changed("lang") {
		c.Scan.Lang = &f.lang
	}
	if changed("languages") {
		c.Scan.Languages = &f.languages
	}
	if changed("colors") {
		c.Scan.Colors = &f.colors
	}
	if changed("angle-policy") {
		c.Scan.AnglePolicy = &f.anglePolicy
	}
	if changed("angle-script") {
		c.Scan.AngleScript = &f.angleScript
	}
	if changed("jobs") {
		c.Scan.Jobs = &f.jobs
	}
	if changed("max-file-bytes") {
		c.Scan.MaxFileBytes = &f.maxFileBytes
	}
	if changed("exclude") {
		c.Scan.Excludes = &f.excludes
	}
	if changed("exclude-typical") {
		c.Scan.ExcludeTypical = &f.excludeTypical
	}
	if changed("path-regex") {
		c.Scan.PathRegex = &f.pathRegex
	}
	if changed("output") {
		c.Scan.Output = &f.output
	}
	if changed("color") {
		c.Scan.Color = &f.color
	}
	if changed("cache") {
		c.Scan.Cache = &f.cache
	}
	if changed("fail-on-unmatched") {
		c.Scan.FailOnUnmatched = &f.failOnUnmatched
	}
	if changed("progress") {
		c.Scan.Progress = &f.progress
	}
	if changed("fields") {
		c.UI.Fields = &f.fields
	}
	if changed("palette") {
		c.UI.Palette = &f.palette
	}
	if changed("show-pairs") {
		c.UI.ShowPairs = &f.showPairs
	}
	if len(args) > 0 && !isStdin(args) {
		paths := append([]string(nil), args...)
		c.Scan.Paths = &paths
	}
	return c
}

func isStdin(args []string) bool {
	return len(args) == 1 && args[0] == stdinName
}

func (a *app) runScan(cmd *cobra.Command, args []string, flags config.Config) error {
	ctx := cmd.Context()
	log := zerolog.Ctx(ctx)
	for _, arg := range args {
		if arg == stdinName && !isStdin(args) {
			return fmt.Errorf("- must be the only argument")
		}
	}

	s, err := a.loadSettings(ctx, flags)
	if err != nil {
		return err
	}

	if s.scan.Cache != "" {
		st, err := store.Open(s.scan.Cache)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				log.Warn().Err(err).Msg("close cache")
			}
		}()
		if err := st.Migrate(); err != nil {
			return err
		}
		s.opts.Cache = st
	}

	var res *engine.Result
	if isStdin(args) {
		res, err = a.scanStdin(ctx, s.opts)
	} else {
		res, err = engine.Run(ctx, s.opts)
	}
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		log.Warn().Str("file", e.File).Str("stage", e.Stage).Msg(e.Message)
	}

	if err := a.writeResult(cmd.OutOrStdout(), res, s); err != nil {
		return err
	}
	if s.scan.FailOnUnmatched && res.HasUnmatched() {
		return errUnmatched
	}
	return nil
}

func (a *app) scanStdin(ctx context.Context, o engine.Options) (*engine.Result, error) {
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	lang := bracket.ParseLanguage(o.Lang)
	coll, err := engine.ScanText(ctx, string(data), lang, o)
	if err != nil {
		return nil, fmt.Errorf("stdin: %w", err)
	}
	return &engine.Result{
		Files: []engine.FileReport{{
			File:       stdinName,
			Lang:       lang.String(),
			Language:   lang,
			Bytes:      len(data),
			Collection: coll,
		}},
		TotalFiles:     1,
		TotalPairs:     len(coll.Pairs),
		TotalUnmatched: len(coll.Unmatched),
		MaxDepth:       coll.MaxDepth,
		ElapsedMS:      coll.ElapsedMS,
	}, nil
}

func (a *app) writeResult(w io.Writer, res *engine.Result, s settings) error {
	fields := s.fields()
	switch s.scan.Output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(res)
	case "ndjson":
		return output.WriteNDJSON(w, res.Files)
	case "csv":
		return output.WriteCSV(w, output.Rows(res), fields)
	case "markdown":
		return output.WriteMarkdownTable(w, res.Files)
	case "msgpack":
		return output.WriteMsgpack(w, res)
	}

	t, err := a.terminal(s.scan.Color, w)
	if err != nil {
		return err
	}
	style := output.TableStyle{Terminal: t, Palette: s.palette()}
	if s.ui.ShowPairs {
		if err := output.WriteSummaryTable(w, res.Files, style); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	if rows := output.Rows(res); len(rows) > 0 {
		if err := output.WriteTable(w, rows, fields, style); err != nil {
			return err
		}
	}
	summary := engine.Summary(res)
	if res.ErrorCount > 0 {
		summary += fmt.Sprintf(", %d errors", res.ErrorCount)
	}
	_, err = fmt.Fprintln(w, strings.TrimSpace(summary))
	return err
}
