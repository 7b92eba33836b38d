package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/config"
	"github.com/phyten/bracketx/internal/store"
	"github.com/phyten/bracketx/internal/transport"
	"github.com/phyten/bracketx/internal/web"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var (
		addr, anglePolicy, cache string
		colors                   int
		open                     bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI and the scan API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var layer config.Config
			changed := cmd.Flags().Changed
			if changed("colors") {
				layer.Scan.Colors = &colors
			}
			if changed("angle-policy") {
				layer.Scan.AnglePolicy = &anglePolicy
			}
			if changed("cache") {
				layer.Scan.Cache = &cache
			}
			return a.runServe(cmd, addr, open, layer)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	fs.BoolVar(&open, "open", false, "open the UI in the default browser")
	fs.IntVar(&colors, "colors", bracket.DefaultColorCount, "default number of rainbow levels")
	fs.StringVar(&anglePolicy, "angle-policy", "heuristic", "default angle bracket policy: heuristic|syntax|script|always|never")
	fs.StringVar(&cache, "cache", "", "SQLite result cache path")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, addr string, open bool, layer config.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log := zerolog.Ctx(ctx)

	s, err := a.loadSettings(ctx, layer)
	if err != nil {
		return err
	}
	if s.scan.Cache != "" {
		st, err := store.Open(s.scan.Cache)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(); err != nil {
			return err
		}
		s.opts.Cache = st
	}

	srv, err := web.NewServer(web.Deps{Log: *log, Options: s.opts, Registry: transport.NewRegistry()})
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	url := "http://" + displayAddr(ln.Addr())
	log.Info().Str("url", url).Msg("listening")
	if open {
		if err := browser.OpenURL(url); err != nil {
			log.Warn().Err(err).Msg("open browser")
		}
	}
	return serveOn(ctx, ln, srv)
}

// serveOn serves h on ln until ctx is cancelled, then shuts down gracefully.
func serveOn(ctx context.Context, ln net.Listener, h http.Handler) error {
	log := zerolog.Ctx(ctx)
	hs := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}

func displayAddr(addr net.Addr) string {
	s := addr.String()
	if strings.HasPrefix(s, "[::]:") {
		return "localhost:" + strings.TrimPrefix(s, "[::]:")
	}
	if strings.HasPrefix(s, "0.0.0.0:") {
		return "localhost:" + strings.TrimPrefix(s, "0.0.0.0:")
	}
	return s
}
