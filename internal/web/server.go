// Package web serves the browser UI and the scan APIs over HTTP and WebSocket.
package web

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/engine"
	"github.com/phyten/bracketx/internal/engine/opts"
	"github.com/phyten/bracketx/internal/transport"
)

// MaxBodyBytes caps the source text accepted by /api/scan and per WebSocket frame.
const MaxBodyBytes = 1 << 20

// Deps are the collaborators of a Server.
type Deps struct {
	Log zerolog.Logger
	// Options are the normalized base options; queries refine them per request.
	Options engine.Options
	// Registry owns encoded responses between a WebSocket call and its write.
	// A private registry is created when nil.
	Registry *transport.Registry
}

type Server struct {
	log      zerolog.Logger
	base     engine.Options
	matcher  *bracket.Matcher
	reg      *transport.Registry
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewServer validates the base options and wires every route.
func NewServer(d Deps) (*Server, error) {
	base := d.Options
	if err := opts.NormalizeAndValidate(&base); err != nil {
		return nil, err
	}
	scheme, err := bracket.NewColorScheme(base.Colors)
	if err != nil {
		return nil, err
	}
	reg := d.Registry
	if reg == nil {
		reg = transport.NewRegistry()
	}
	s := &Server{
		log:     d.Log,
		base:    base,
		matcher: bracket.NewMatcher(scheme, bracket.WithAnglePolicy(base.Policy)),
		reg:     reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		mux: http.NewServeMux(),
	}
	s.registerAssets(s.mux)
	s.mux.HandleFunc("POST /api/scan", s.apiScanHandler)
	s.mux.HandleFunc("GET /ws", s.wsHandler)
	s.mux.HandleFunc("GET /healthz", healthHandler)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("elapsed", time.Since(start)).
		Msg("request")
}

func (s *Server) colors() int {
	return s.matcher.Scheme().Count()
}

func (s *Server) apiScanHandler(w http.ResponseWriter, r *http.Request) {
	o, err := opts.ApplyWebQueryToOptions(s.base, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := opts.NormalizeAndValidate(&o); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	coll, err := engine.ScanText(r.Context(), string(body), bracket.ParseLanguage(o.Lang), o)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrInvalidUTF8) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, coll)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// writeJSON encodes v without HTML escaping; the UI escapes on render.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func languageNames() []string {
	langs := bracket.Languages()
	out := make([]string, len(langs))
	for i, l := range langs {
		out[i] = l.String()
	}
	return out
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to the WebSocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}
