package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/thecdrz/connect-four/internal/ai"
	"github.com/thecdrz/connect-four/internal/protocol"
	"github.com/thecdrz/connect-four/internal/room"
)

// conn is the per-connection session state: at most one assigned
// room+slot, or one spectated room, never both. All fields are touched
// only by the connection's reader goroutine.
type conn struct {
	client     *room.Client
	name       string
	roomCode   string
	slot       int
	spectating string
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer wsConn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	c := &conn{client: room.NewClient(uuid.NewString())}
	log.Debug().Str("conn", c.client.ID).Msg("connection opened")

	// Writer goroutine: drain the mailbox into the socket. The mailbox is
	// never closed; the writer stops on cancel so a room or lobby push
	// racing the disconnect can still send safely.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case data := <-c.client.Send:
				if err := wsConn.Write(ctx, websocket.MessageText, data); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, data, err := wsConn.Read(ctx)
		if err != nil {
			break
		}
		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(c, "invalid message")
			continue
		}
		s.handleMessage(c, msg)
	}

	s.teardown(c)
	cancel()
	<-done
	log.Debug().Str("conn", c.client.ID).Msg("connection closed")
}

// teardown releases everything the connection held: room slot, spectator
// registration, lobby subscription.
func (s *Server) teardown(c *conn) {
	s.unsubscribeLobby(c.client.ID)
	s.detachSpectator(c)
	s.leaveRoom(c)
}

func (s *Server) leaveRoom(c *conn) {
	if c.roomCode == "" {
		return
	}
	if rm, ok := s.registry.Get(c.roomCode); ok {
		if rm.RemovePlayer(c.client.ID) == 0 {
			s.registry.Remove(c.roomCode)
		}
	}
	log.Info().Str("conn", c.client.ID).Str("room", c.roomCode).Msg("player left room")
	c.roomCode = ""
	c.slot = 0
}

func (s *Server) detachSpectator(c *conn) {
	if c.spectating == "" {
		return
	}
	if rm, ok := s.registry.Get(c.spectating); ok {
		rm.RemoveSpectator(c.client.ID)
	}
	c.spectating = ""
}

func (s *Server) handleMessage(c *conn, msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeCreateGame:
		s.handleCreateGame(c, msg.Payload)
	case protocol.TypeJoinGame:
		s.handleJoinGame(c, msg.Payload)
	case protocol.TypeMakeMove:
		s.handleMakeMove(c, msg.Payload)
	case protocol.TypeCheckersMove:
		s.handleCheckersMove(c, msg.Payload)
	case protocol.TypeRequestRematch:
		s.handleRequestRematch(c)
	case protocol.TypeSendChatMessage:
		s.handleChat(c, msg.Payload)
	case protocol.TypeTyping:
		s.handleTyping(c, msg.Payload)
	case protocol.TypeLeaveGame:
		s.leaveRoom(c)
		c.client.Deliver(protocol.Encode(protocol.TypeGameLeft, nil))
	case protocol.TypeSpectateGame:
		s.handleSpectate(c, msg.Payload)
	case protocol.TypeLobbySubscribe:
		s.subscribeLobby(c.client)
	case protocol.TypeLobbyUnsubscribe:
		s.unsubscribeLobby(c.client.ID)
	case protocol.TypeGetLeaderboard:
		s.handleGetLeaderboard(c)
	default:
		s.sendError(c, "unknown message type: "+msg.Type)
	}
}

func validName(name string) bool {
	n := len(strings.TrimSpace(name))
	return n >= 2 && n <= 15
}

func (s *Server) handleCreateGame(c *conn, payload json.RawMessage) {
	var req protocol.CreateGame
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(c, "invalid payload")
		return
	}
	if c.roomCode != "" || c.spectating != "" {
		s.sendError(c, room.ErrAlreadyInRoom.Error())
		return
	}
	if !validName(req.PlayerName) {
		s.sendError(c, room.ErrInvalidName.Error())
		return
	}
	gameType := req.GameType
	switch gameType {
	case "", protocol.GameConnect4:
		gameType = protocol.GameConnect4
	case protocol.GameCheckers:
	default:
		s.sendError(c, "unknown game type: "+gameType)
		return
	}

	rm := s.registry.Create(gameType)
	slot, err := rm.AddPlayer(c.client, strings.TrimSpace(req.PlayerName))
	if err != nil {
		s.sendError(c, err.Error())
		return
	}
	c.roomCode = rm.Code()
	c.slot = slot
	c.name = strings.TrimSpace(req.PlayerName)
	c.client.Deliver(protocol.Encode(protocol.TypeGameCreated, protocol.GameCreated{
		GameID:       rm.Code(),
		PlayerNumber: slot,
	}))
	log.Info().Str("room", rm.Code()).Str("player", c.name).Msg("game created")

	if req.VsCPU {
		if err := rm.AddBot(parseDifficulty(req.Difficulty)); err != nil {
			s.sendError(c, err.Error())
		}
	}
}

func parseDifficulty(d string) ai.Difficulty {
	switch ai.Difficulty(d) {
	case ai.Easy, ai.Medium, ai.Hard:
		return ai.Difficulty(d)
	}
	return ai.Medium
}

func (s *Server) handleJoinGame(c *conn, payload json.RawMessage) {
	var req protocol.JoinGame
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(c, "invalid payload")
		return
	}
	if c.roomCode != "" || c.spectating != "" {
		s.sendError(c, room.ErrAlreadyInRoom.Error())
		return
	}
	if !validName(req.PlayerName) {
		s.sendError(c, room.ErrInvalidName.Error())
		return
	}
	rm, ok := s.registry.Get(strings.ToUpper(strings.TrimSpace(req.GameID)))
	if !ok {
		s.sendError(c, room.ErrRoomNotFound.Error())
		return
	}
	name := strings.TrimSpace(req.PlayerName)
	slot, err := rm.AddPlayer(c.client, name)
	if err != nil {
		s.sendError(c, err.Error())
		return
	}
	c.roomCode = rm.Code()
	c.slot = slot
	c.name = name
	c.client.Deliver(protocol.Encode(protocol.TypeGameJoined, protocol.GameJoined{
		GameID:       rm.Code(),
		PlayerNumber: slot,
		PlayerName:   name,
	}))
	log.Info().Str("room", rm.Code()).Str("player", name).Int("slot", slot).Msg("player joined")
}

// currentRoom resolves the connection's room or reports the error to it.
func (s *Server) currentRoom(c *conn) (*room.Room, bool) {
	if c.roomCode == "" {
		s.sendError(c, room.ErrRoomNotFound.Error())
		return nil, false
	}
	rm, ok := s.registry.Get(c.roomCode)
	if !ok {
		s.sendError(c, room.ErrRoomNotFound.Error())
		return nil, false
	}
	return rm, true
}

func (s *Server) handleMakeMove(c *conn, payload json.RawMessage) {
	var req protocol.MakeMove
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(c, "invalid payload")
		return
	}
	rm, ok := s.currentRoom(c)
	if !ok {
		return
	}
	if req.Player != c.slot {
		s.sendError(c, "invalid player")
		return
	}
	if err := rm.MakeMove(c.slot, req.Col); err != nil {
		s.sendError(c, err.Error())
	}
}

func (s *Server) handleCheckersMove(c *conn, payload json.RawMessage) {
	var req protocol.CheckersMove
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(c, "invalid payload")
		return
	}
	rm, ok := s.currentRoom(c)
	if !ok {
		return
	}
	if err := rm.MakeCheckersMove(c.slot, req.From, req.To); err != nil {
		s.sendError(c, err.Error())
	}
}

func (s *Server) handleRequestRematch(c *conn) {
	rm, ok := s.currentRoom(c)
	if !ok {
		return
	}
	rm.RequestRematch(c.slot)
}

func (s *Server) handleChat(c *conn, payload json.RawMessage) {
	var req protocol.SendChatMessage
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(c, "invalid payload")
		return
	}
	if len(req.Message) == 0 {
		return
	}
	if len(req.Message) > 200 {
		s.sendError(c, room.ErrMessageTooLong.Error())
		return
	}
	rm, ok := s.currentRoom(c)
	if !ok {
		return
	}
	rm.AddChatMessage(c.slot, req.Message)
}

func (s *Server) handleTyping(c *conn, payload json.RawMessage) {
	var req protocol.Typing
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	if rm, ok := s.registry.Get(c.roomCode); ok {
		rm.Typing(c.slot, req.IsTyping)
	}
}

func (s *Server) handleSpectate(c *conn, payload json.RawMessage) {
	var req protocol.SpectateGame
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(c, "invalid payload")
		return
	}
	if c.roomCode != "" {
		s.sendError(c, room.ErrAlreadyInRoom.Error())
		return
	}
	rm, ok := s.registry.Get(strings.ToUpper(strings.TrimSpace(req.GameID)))
	if !ok {
		s.sendError(c, room.ErrRoomNotFound.Error())
		return
	}
	// Switching rooms implicitly detaches from the previous one.
	s.detachSpectator(c)
	snap := rm.AddSpectator(c.client)
	c.spectating = rm.Code()
	c.client.Deliver(protocol.Encode(protocol.TypeSpectatorJoined, snap))
}

func (s *Server) handleGetLeaderboard(c *conn) {
	top, err := s.store.Top(LeaderboardSize)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard query")
		s.sendError(c, "leaderboard unavailable")
		return
	}
	c.client.Deliver(protocol.Encode(protocol.TypeLeaderboard, top))
}

// sendError surfaces a rejected request to the offending connection only.
func (s *Server) sendError(c *conn, message string) {
	c.client.Deliver(protocol.Encode(protocol.TypeError, protocol.ErrorMessage{Message: message}))
}
