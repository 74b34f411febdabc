package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"nhooyr.io/websocket"

	"github.com/thecdrz/connect-four/internal/protocol"
	"github.com/thecdrz/connect-four/internal/room"
	"github.com/thecdrz/connect-four/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts       *httptest.Server
	registry *room.Registry
	store    *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := room.NewRegistry(store)

	webFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html><body>test</body></html>")},
	}
	srv := New(registry, store, webFS)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, registry: registry, store: store}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
}

// wsDial opens a gateway connection and registers cleanup.
func wsDial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// wsSend marshals and writes one envelope, calling t.Fatal on error.
func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		p, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		raw = p
	}
	data, err := json.Marshal(protocol.Message{Type: msgType, Payload: raw})
	if err != nil {
		t.Fatalf("marshal ws message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

// wsRead reads and unmarshals one envelope, calling t.Fatal on error.
func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	return msg
}

// readUntil reads envelopes until one of msgType arrives, skipping other
// event types the server interleaves (playersUpdated, lobby pushes).
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string) protocol.Message {
	t.Helper()
	for {
		msg := wsRead(ctx, t, conn)
		if msg.Type == msgType {
			return msg
		}
		if msg.Type == protocol.TypeError {
			t.Fatalf("expected %q, got error: %s", msgType, string(msg.Payload))
		}
	}
}

// readError expects the next envelope to be an error and returns its message.
func readError(ctx context.Context, t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != protocol.TypeError {
		t.Fatalf("expected error message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var ep protocol.ErrorMessage
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Message
}

// decodePayload unmarshals msg.Payload into out, failing the test on error.
func decodePayload(t *testing.T, msg protocol.Message, out any) {
	t.Helper()
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		t.Fatalf("unmarshal %s payload: %v", msg.Type, err)
	}
}

// createRoom drives one connection through createGame and returns the
// connection plus the room code.
func createRoom(ctx context.Context, t *testing.T, ts *httptest.Server, name, gameType string) (*websocket.Conn, string) {
	t.Helper()
	conn := wsDial(t, ts)
	wsSend(ctx, t, conn, protocol.TypeCreateGame, protocol.CreateGame{PlayerName: name, GameType: gameType})
	var created protocol.GameCreated
	decodePayload(t, readUntil(ctx, t, conn, protocol.TypeGameCreated), &created)
	if created.GameID == "" {
		t.Fatal("expected non-empty game id")
	}
	return conn, created.GameID
}

// joinRoom drives a second connection through joinGame and waits for the
// gameStart broadcast on both ends.
func joinRoom(ctx context.Context, t *testing.T, ts *httptest.Server, host *websocket.Conn, code, name string) *websocket.Conn {
	t.Helper()
	conn := wsDial(t, ts)
	wsSend(ctx, t, conn, protocol.TypeJoinGame, protocol.JoinGame{GameID: code, PlayerName: name})
	readUntil(ctx, t, conn, protocol.TypeGameStart)
	readUntil(ctx, t, host, protocol.TypeGameStart)
	return conn
}
