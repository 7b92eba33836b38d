package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/config"
	"github.com/phyten/bracketx/internal/detect"
	"github.com/phyten/bracketx/internal/engine"
	"github.com/phyten/bracketx/internal/render"
)

func (a *app) paintCmd() *cobra.Command {
	var (
		lang, color, palette, anglePolicy string
		colors                            int
		noAnnotate                        bool
	)
	cmd := &cobra.Command{
		Use:   "paint <file>",
		Short: "Print a file with rainbow-colored brackets",
		Long:  "Prints the file with every bracket colored by nesting depth, followed by a caret line under each unmatched bracket. Use - for standard input.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var layer config.Config
			changed := cmd.Flags().Changed
			if changed("lang") {
				layer.Scan.Lang = &lang
			}
			if changed("colors") {
				layer.Scan.Colors = &colors
			}
			if changed("angle-policy") {
				layer.Scan.AnglePolicy = &anglePolicy
			}
			if changed("color") {
				layer.Scan.Color = &color
			}
			if changed("palette") {
				layer.UI.Palette = &palette
			}
			return a.runPaint(cmd, args[0], layer, !noAnnotate)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&lang, "lang", "", "language of the input (default: detected from the file name)")
	fs.IntVar(&colors, "colors", bracket.DefaultColorCount, "number of rainbow levels")
	fs.StringVar(&anglePolicy, "angle-policy", "heuristic", "angle bracket policy: heuristic|syntax|always|never")
	fs.StringVar(&color, "color", "auto", "color mode: auto|always|never")
	fs.StringVar(&palette, "palette", "", "rainbow colors as hex, e.g. #ffd700,#da70d6")
	fs.BoolVar(&noAnnotate, "no-annotate", false, "do not print caret lines for unmatched brackets")
	return cmd
}

func (a *app) runPaint(cmd *cobra.Command, name string, layer config.Config, annotate bool) error {
	ctx := cmd.Context()
	s, err := a.loadSettings(ctx, layer)
	if err != nil {
		return err
	}

	var data []byte
	if name == stdinName {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return err
	}

	info := detect.FromPathAndContent(name, data)
	if s.opts.Lang != "" {
		info = detect.FromName(s.opts.Lang)
	}
	coll, err := engine.ScanText(ctx, string(data), info.Language, s.opts)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	w := cmd.OutOrStdout()
	t, err := a.terminal(s.scan.Color, w)
	if err != nil {
		return err
	}
	ro := render.Options{Terminal: t, Palette: s.palette()}
	if name != stdinName {
		ro.Name = name
	}
	if err := render.Paint(w, string(data), coll, ro); err != nil {
		return err
	}
	if !annotate || len(coll.Unmatched) == 0 {
		return nil
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return render.Annotate(w, string(data), coll, ro)
}
