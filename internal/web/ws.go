package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/phyten/bracketx/internal/engine/opts"
	"github.com/phyten/bracketx/internal/transport"
)

// wsHandler serves scan requests over one WebSocket. Text frames carry JSON,
// binary frames carry MessagePack; each reply uses the frame type of its request.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	conn.SetReadLimit(MaxBodyBytes)

	connID := uuid.NewString()
	log := s.log.With().Str("conn", connID).Logger()
	sess := s.reg.Session()
	log.Debug().Msg("websocket open")

	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn().Err(err).Msg("release session handles")
		}
		_ = conn.Close()
		log.Debug().Msg("websocket closed")
	}()

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}
		var reply []byte
		switch kind {
		case websocket.TextMessage:
			reply = s.serveText(msg)
		case websocket.BinaryMessage:
			reply, err = s.serveBinary(log, sess, msg)
			if err != nil {
				log.Error().Err(err).Msg("encode reply")
				return
			}
		default:
			continue
		}
		if err := conn.WriteMessage(kind, reply); err != nil {
			log.Warn().Err(err).Msg("websocket write")
			return
		}
	}
}

func (s *Server) serveText(msg []byte) []byte {
	var req transport.Request
	resp := func() transport.Response {
		if err := json.Unmarshal(msg, &req); err != nil {
			return transport.ErrorResponse(req.ID, fmt.Errorf("decode request: %w", err))
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		return s.serve(req)
	}()
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(transport.ErrorResponse(req.ID, err))
	}
	return out
}

// serveBinary goes through the session like a host call: the encoded reply is
// parked in the registry, read back by handle and released once written.
func (s *Server) serveBinary(log zerolog.Logger, sess *transport.Session, msg []byte) ([]byte, error) {
	req, err := transport.DecodeRequest(msg)
	if err != nil {
		return transport.EncodeResponse(transport.ErrorResponse("", err))
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := checkColors(req.Colors); err != nil {
		return transport.EncodeResponse(transport.ErrorResponse(req.ID, err))
	}
	payload, err := transport.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	packed, err := sess.Call(s.matcher, payload)
	if err != nil {
		return transport.EncodeResponse(transport.ErrorResponse(req.ID, err))
	}
	h, n := transport.Unpack(packed)
	out, err := s.reg.Get(h)
	if err != nil {
		return nil, err
	}
	out = out[:n]
	if err := sess.Release(h); err != nil {
		if errors.Is(err, transport.ErrUnknownHandle) {
			log.Warn().Err(err).Uint32("handle", uint32(h)).Msg("release unknown handle")
		} else {
			return nil, err
		}
	}
	return out, nil
}

func (s *Server) serve(req transport.Request) transport.Response {
	if err := checkColors(req.Colors); err != nil {
		return transport.ErrorResponse(req.ID, err)
	}
	resp, err := transport.Serve(s.matcher, req)
	if err != nil {
		return transport.ErrorResponse(req.ID, err)
	}
	return resp
}

func checkColors(n int) error {
	if n < 0 || n > opts.MaxColors {
		return fmt.Errorf("colors must be between 1 and %d", opts.MaxColors)
	}
	return nil
}
