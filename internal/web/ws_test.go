package web

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/phyten/bracketx/internal/bracket"
	"github.com/phyten/bracketx/internal/transport"
)

func dialWS(t *testing.T, reg *transport.Registry) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestServer(t, reg))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("WebSocket の接続に失敗しました: %v", err)
	}
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, kind int, msg []byte) (int, []byte) {
	t.Helper()
	if err := conn.WriteMessage(kind, msg); err != nil {
		t.Fatalf("送信に失敗しました: %v", err)
	}
	gotKind, reply, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("受信に失敗しました: %v", err)
	}
	return gotKind, reply
}

func TestWSテキストフレームはJSONで応答する(t *testing.T) {
	t.Parallel()
	conn := dialWS(t, nil)

	kind, reply := roundTrip(t, conn, websocket.TextMessage, []byte(`{"content":"(]","language":"generic"}`))
	if kind != websocket.TextMessage {
		t.Fatalf("応答のフレーム種別が異なります: %d", kind)
	}
	var resp transport.Response
	if err := json.Unmarshal(reply, &resp); err != nil {
		t.Fatalf("JSONのデコードに失敗しました: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("ID が補完されていません")
	}
	if resp.Error != "" {
		t.Fatalf("予期しないエラー: %s", resp.Error)
	}
	if len(resp.Unmatched) != 2 || resp.Unmatched[0].Reason.Kind != bracket.TypeMismatch {
		t.Fatalf("型不一致が報告されていません: %+v", resp.Unmatched)
	}

	_, reply = roundTrip(t, conn, websocket.TextMessage, []byte(`{"id":"a-1","content":"[<T>]","language":"rust","colors":2}`))
	resp = transport.Response{}
	if err := json.Unmarshal(reply, &resp); err != nil {
		t.Fatalf("JSONのデコードに失敗しました: %v", err)
	}
	if resp.ID != "a-1" || len(resp.Pairs) != 1 {
		t.Fatalf("応答が期待値と異なります: %+v", resp)
	}
}

func TestWSテキストフレームの不正な要求はエラーを返す(t *testing.T) {
	t.Parallel()
	conn := dialWS(t, nil)

	cases := []struct {
		msg  string
		want string
	}{
		{`{"content":`, "decode request"},
		{`{"id":"c","content":"()","colors":999}`, "colors"},
	}
	for _, tc := range cases {
		_, reply := roundTrip(t, conn, websocket.TextMessage, []byte(tc.msg))
		var resp transport.Response
		if err := json.Unmarshal(reply, &resp); err != nil {
			t.Fatalf("JSONのデコードに失敗しました: %v", err)
		}
		if !strings.Contains(resp.Error, tc.want) {
			t.Fatalf("%s: エラーに %q が含まれていません: %q", tc.msg, tc.want, resp.Error)
		}
	}
}

func TestWSバイナリフレームはMessagePackで応答しハンドルを解放する(t *testing.T) {
	t.Parallel()
	reg := transport.NewRegistry()
	conn := dialWS(t, reg)

	payload, err := transport.EncodeRequest(transport.Request{ID: "b1", Content: "fn f() { [0] }", Language: "rust"})
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	kind, reply := roundTrip(t, conn, websocket.BinaryMessage, payload)
	if kind != websocket.BinaryMessage {
		t.Fatalf("応答のフレーム種別が異なります: %d", kind)
	}
	resp, err := transport.DecodeResponse(reply)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if resp.ID != "b1" || len(resp.Pairs) != 3 || resp.Stats.CurlyPairs != 1 {
		t.Fatalf("応答が期待値と異なります: %+v", resp)
	}
	if n := reg.Len(); n != 0 {
		t.Fatalf("ハンドルが解放されていません: %d", n)
	}

	kind, reply = roundTrip(t, conn, websocket.BinaryMessage, []byte{0xc1})
	if kind != websocket.BinaryMessage {
		t.Fatalf("応答のフレーム種別が異なります: %d", kind)
	}
	resp, err = transport.DecodeResponse(reply)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if !strings.Contains(resp.Error, "decode request") {
		t.Fatalf("不正なペイロードのエラーが返りません: %+v", resp)
	}

	payload, _ = transport.EncodeRequest(transport.Request{Content: "(\xff)"})
	_, reply = roundTrip(t, conn, websocket.BinaryMessage, payload)
	resp, err = transport.DecodeResponse(reply)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if resp.ID == "" || !strings.Contains(resp.Error, "UTF-8") {
		t.Fatalf("不正なUTF-8のエラーが返りません: %+v", resp)
	}
	if n := reg.Len(); n != 0 {
		t.Fatalf("エラー時にハンドルが残っています: %d", n)
	}
}
