// Package transport is the boundary between a host process and the matcher.
// Requests and responses travel as MessagePack maps; results handed across a
// foreign-memory style boundary are kept alive in a Registry until the host
// releases them.
package transport

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/phyten/bracketx/internal/bracket"
)

var (
	ErrInvalidUTF8   = errors.New("transport: content is not valid UTF-8")
	ErrUnknownHandle = errors.New("transport: unknown handle")
)

// Request asks for one scan. Colors of 0 keeps the server's color count.
type Request struct {
	ID       string `msgpack:"id,omitempty" json:"id,omitempty"`
	Content  string `msgpack:"content" json:"content"`
	Language string `msgpack:"language" json:"language"`
	Colors   int    `msgpack:"colors,omitempty" json:"colors,omitempty"`
}

// Response mirrors bracket.Collection plus the request id. Error is set
// instead of the result fields when the request could not be served.
type Response struct {
	ID        string              `msgpack:"id,omitempty" json:"id,omitempty"`
	Pairs     []bracket.Pair      `msgpack:"pairs" json:"pairs"`
	Unmatched []bracket.Unmatched `msgpack:"unmatched" json:"unmatched"`
	MaxDepth  int                 `msgpack:"max_depth" json:"max_depth"`
	Stats     bracket.Statistics  `msgpack:"statistics" json:"statistics"`
	ElapsedMS int64               `msgpack:"elapsed_ms" json:"elapsed_ms"`
	Error     string              `msgpack:"error,omitempty" json:"error,omitempty"`
}

func NewResponse(id string, c bracket.Collection) Response {
	return Response{
		ID:        id,
		Pairs:     c.Pairs,
		Unmatched: c.Unmatched,
		MaxDepth:  c.MaxDepth,
		Stats:     c.Stats,
		ElapsedMS: c.ElapsedMS,
	}
}

// ErrorResponse reports err for request id.
func ErrorResponse(id string, err error) Response {
	return Response{ID: id, Pairs: []bracket.Pair{}, Unmatched: []bracket.Unmatched{}, Error: err.Error()}
}

func (r Response) Collection() bracket.Collection {
	return bracket.Collection{
		Pairs:     r.Pairs,
		Unmatched: r.Unmatched,
		MaxDepth:  r.MaxDepth,
		Stats:     r.Stats,
		ElapsedMS: r.ElapsedMS,
	}
}

func DecodeRequest(b []byte) (Request, error) {
	var req Request
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func EncodeRequest(req Request) ([]byte, error) {
	return encode(req)
}

func EncodeResponse(resp Response) ([]byte, error) {
	return encode(resp)
}

func DecodeResponse(b []byte) (Response, error) {
	var resp Response
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// encode uses the JSON names for nested bracket types, which only carry
// json tags.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Serve validates req and scans it with m.
func Serve(m *bracket.Matcher, req Request) (Response, error) {
	if !utf8.ValidString(req.Content) {
		return Response{}, ErrInvalidUTF8
	}
	if req.Colors != 0 && req.Colors != m.Scheme().Count() {
		scheme, err := bracket.NewColorScheme(req.Colors)
		if err != nil {
			return Response{}, err
		}
		m = m.WithScheme(scheme)
	}
	c := m.Match(req.Content, bracket.ParseLanguage(req.Language))
	return NewResponse(req.ID, c), nil
}

// HandlePayload decodes a MessagePack request, scans it and returns the encoded
// response.
func HandlePayload(m *bracket.Matcher, payload []byte) ([]byte, error) {
	req, err := DecodeRequest(payload)
	if err != nil {
		return nil, err
	}
	resp, err := Serve(m, req)
	if err != nil {
		return nil, err
	}
	return EncodeResponse(resp)
}
