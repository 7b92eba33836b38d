package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/phyten/bracketx/internal/bracket"
)

// Handle names a buffer owned by a Registry. Zero is never issued.
type Handle uint32

// Registry owns buffers handed to a host until the host releases them.
type Registry struct {
	mu   sync.Mutex
	next Handle
	bufs map[Handle][]byte
}

func NewRegistry() *Registry {
	return &Registry{bufs: make(map[Handle][]byte)}
}

// Put takes ownership of b and returns a fresh handle for it.
func (r *Registry) Put(b []byte) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		r.next++
		if r.next == 0 {
			continue
		}
		if _, taken := r.bufs[r.next]; !taken {
			break
		}
	}
	r.bufs[r.next] = b
	return r.next
}

func (r *Registry) Get(h Handle) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bufs[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return b, nil
}

func (r *Registry) Release(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bufs[h]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	delete(r.bufs, h)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bufs)
}

// Pack combines a handle and a length into one word: handle<<32 | length.
func Pack(h Handle, n int) uint64 {
	return uint64(h)<<32 | uint64(uint32(n))
}

func Unpack(v uint64) (Handle, int) {
	return Handle(v >> 32), int(uint32(v))
}

// Session tracks the handles created during one host call so they can be
// released together.
type Session struct {
	reg     *Registry
	mu      sync.Mutex
	handles map[Handle]struct{}
	closed  bool
}

func (r *Registry) Session() *Session {
	return &Session{reg: r, handles: make(map[Handle]struct{})}
}

var errSessionClosed = errors.New("transport: session closed")

func (s *Session) Put(b []byte) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errSessionClosed
	}
	h := s.reg.Put(b)
	s.handles[h] = struct{}{}
	return h, nil
}

// Call serves one encoded request and returns the packed handle and length
// of the encoded response.
func (s *Session) Call(m *bracket.Matcher, payload []byte) (uint64, error) {
	out, err := HandlePayload(m, payload)
	if err != nil {
		return 0, err
	}
	h, err := s.Put(out)
	if err != nil {
		return 0, err
	}
	return Pack(h, len(out)), nil
}

// Release frees one handle early.
func (s *Session) Release(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles, h)
	return s.reg.Release(h)
}

// Close releases every handle still held. Handles released behind the
// session's back are reported.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for h := range s.handles {
		if err := s.reg.Release(h); err != nil {
			errs = append(errs, err)
		}
	}
	s.handles = nil
	return errors.Join(errs...)
}
