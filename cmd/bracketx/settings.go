package main

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/phyten/bracketx/internal/config"
	"github.com/phyten/bracketx/internal/engine"
	"github.com/phyten/bracketx/internal/engine/opts"
	"github.com/phyten/bracketx/internal/termcolor"
)

// settings is the merged view of defaults, config file, environment and flags.
type settings struct {
	scan config.ScanSettings
	ui   config.UISettings
	opts engine.Options
}

// loadSettings layers defaults <- config file <- BRACKETX_* <- explicit flags.
func (a *app) loadSettings(ctx context.Context, flags config.Config) (settings, error) {
	log := zerolog.Ctx(ctx)
	base := opts.Defaults(".")

	var fileCfg config.Config
	explicit := a.configPath
	if strings.TrimSpace(explicit) == "" {
		explicit = a.getenv("BRACKETX_CONFIG")
	}
	path, source, err := config.Find(".", explicit, a.getenv("XDG_CONFIG_HOME"), a.getenv("HOME"))
	if err != nil {
		return settings{}, err
	}
	if path != "" {
		fileCfg, err = config.Load(path)
		if err != nil {
			return settings{}, err
		}
		log.Debug().Str("path", path).Str("source", source).Msg("loaded config")
	}

	envCfg, err := config.FromEnv(a.getenv)
	if err != nil {
		return settings{}, err
	}

	scan := config.MergeScan(config.ScanSettingsFromOptions(base), fileCfg.Scan, envCfg.Scan, flags.Scan)
	ui := config.MergeUI(config.DefaultUISettings(), fileCfg.UI, envCfg.UI, flags.UI)
	if scan, err = config.NormalizeScan(scan); err != nil {
		return settings{}, err
	}
	if ui, err = config.NormalizeUI(ui); err != nil {
		return settings{}, err
	}

	o := base
	scan.ApplyToOptions(&o)
	if err := opts.NormalizeAndValidate(&o); err != nil {
		return settings{}, err
	}
	return settings{scan: scan, ui: ui, opts: o}, nil
}

// terminal resolves how colored output to w should be.
func (a *app) terminal(mode string, w any) (termcolor.Terminal, error) {
	m, err := termcolor.ParseMode(mode)
	if err != nil {
		return termcolor.Terminal{}, err
	}
	f, _ := w.(*os.File)
	return termcolor.ResolveTerminal(m, f, termcolor.EnvMap(a.environ())), nil
}

func (s settings) palette() termcolor.Palette {
	if s.ui.Palette == "" {
		return nil
	}
	// NormalizeUI has already validated the palette.
	pal, _ := termcolor.ParsePalette(s.ui.Palette)
	return pal
}

func (s settings) fields() []string {
	fields, err := config.CanonicalizeFields(s.ui.Fields)
	if err != nil {
		fields, _ = config.CanonicalizeFields(config.DefaultFields)
	}
	return fields
}
