package transport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/phyten/bracketx/internal/bracket"
)

func TestHandlePayloadRoundTrip(t *testing.T) {
	payload, err := EncodeRequest(Request{ID: "r1", Content: "fn f() -> Vec<u8> { [1] }", Language: "rs"})
	require.NoError(t, err)

	out, err := HandlePayload(bracket.NewMatcher(bracket.DefaultRainbow()), payload)
	require.NoError(t, err)

	resp, err := DecodeResponse(out)
	require.NoError(t, err)
	assert.Equal(t, "r1", resp.ID)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.Unmatched)
	assert.Len(t, resp.Pairs, 3)
	assert.Equal(t, 1, resp.MaxDepth)
	assert.Equal(t, 1, resp.Stats.SquarePairs)

	want := bracket.Match("fn f() -> Vec<u8> { [1] }", bracket.Rust)
	want.ElapsedMS = resp.ElapsedMS
	assert.Equal(t, want, resp.Collection())
}

func TestResponseWireNames(t *testing.T) {
	out, err := EncodeResponse(NewResponse("x", bracket.Match("(]", bracket.Generic)))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, msgpack.Unmarshal(out, &raw))
	for _, key := range []string{"id", "pairs", "unmatched", "max_depth", "statistics", "elapsed_ms"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "error")

	unmatched, ok := raw["unmatched"].([]any)
	require.True(t, ok)
	require.Len(t, unmatched, 2)
	first, ok := unmatched[0].(map[string]any)
	require.True(t, ok)
	reason, ok := first["reason"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "type_mismatch", reason["kind"])
	assert.Equal(t, "round", reason["expected"])
	assert.Equal(t, "square", reason["found"])
	b, ok := first["bracket"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "]", b["char"])
	assert.Contains(t, b, "position")
}

func TestServeRejectsInvalidUTF8(t *testing.T) {
	_, err := Serve(bracket.NewMatcher(bracket.DefaultRainbow()), Request{Content: "a\xffb"})
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	payload, err := EncodeRequest(Request{Content: "(\xfe)"})
	require.NoError(t, err)
	_, err = HandlePayload(bracket.NewMatcher(bracket.DefaultRainbow()), payload)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestServeHonorsColors(t *testing.T) {
	m := bracket.NewMatcher(bracket.DefaultRainbow())
	resp, err := Serve(m, Request{Content: "((()))", Colors: 2})
	require.NoError(t, err)
	levels := []int{}
	for _, p := range resp.Pairs {
		levels = append(levels, p.Opening.ColorLevel)
	}
	assert.Equal(t, []int{0, 1, 0}, levels)
	assert.Equal(t, bracket.DefaultColorCount, m.Scheme().Count(), "matcher must not be mutated")

	_, err = Serve(m, Request{Content: "()", Colors: -1})
	assert.ErrorIs(t, err, bracket.ErrInvalidColorCount)
}

func TestDecodeRequestGarbage(t *testing.T) {
	_, err := DecodeRequest([]byte{0xc1})
	assert.Error(t, err)
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse("id", ErrInvalidUTF8)
	assert.Equal(t, ErrInvalidUTF8.Error(), resp.Error)
	assert.NotNil(t, resp.Pairs)
	assert.NotNil(t, resp.Unmatched)
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	a := reg.Put([]byte("alpha"))
	b := reg.Put([]byte("beta"))
	assert.NotEqual(t, Handle(0), a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, reg.Len())

	got, err := reg.Get(a)
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))

	require.NoError(t, reg.Release(a))
	assert.ErrorIs(t, reg.Release(a), ErrUnknownHandle)
	_, err = reg.Get(a)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistrySkipsZeroOnWrap(t *testing.T) {
	reg := NewRegistry()
	reg.next = ^Handle(0)
	h := reg.Put(nil)
	assert.Equal(t, Handle(1), h)
}

func TestRegistryConcurrentPut(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	handles := make([]Handle, 64)
	for i := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i] = reg.Put([]byte{byte(i)})
		}()
	}
	wg.Wait()
	seen := map[Handle]bool{}
	for _, h := range handles {
		assert.False(t, seen[h], "duplicate handle %d", h)
		seen[h] = true
	}
	assert.Equal(t, 64, reg.Len())
}

func TestPackUnpack(t *testing.T) {
	v := Pack(7, 1234)
	assert.Equal(t, uint64(7)<<32|1234, v)
	h, n := Unpack(v)
	assert.Equal(t, Handle(7), h)
	assert.Equal(t, 1234, n)
}

func TestSessionCallAndClose(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Session()
	payload, err := EncodeRequest(Request{ID: "s", Content: "[x", Language: "go"})
	require.NoError(t, err)

	packed, err := sess.Call(bracket.NewMatcher(bracket.DefaultRainbow()), payload)
	require.NoError(t, err)
	h, n := Unpack(packed)
	buf, err := reg.Get(h)
	require.NoError(t, err)
	assert.Len(t, buf, n)

	resp, err := DecodeResponse(buf)
	require.NoError(t, err)
	require.Len(t, resp.Unmatched, 1)
	assert.Equal(t, bracket.MissingClosing, resp.Unmatched[0].Reason.Kind)

	_, err = sess.Put([]byte("extra"))
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	require.NoError(t, sess.Close())
	assert.Equal(t, 0, reg.Len())
	require.NoError(t, sess.Close())

	_, err = sess.Put([]byte("late"))
	assert.Error(t, err)
}

func TestSessionCloseReportsForeignRelease(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Session()
	h, err := sess.Put([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, reg.Release(h))
	assert.ErrorIs(t, sess.Close(), ErrUnknownHandle)
}

func TestSessionReleaseEarly(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Session()
	h, err := sess.Put([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, sess.Release(h))
	assert.Equal(t, 0, reg.Len())
	require.NoError(t, sess.Close())
}
