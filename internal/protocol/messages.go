// Package protocol defines the closed set of wire message kinds exchanged
// with clients: a tagged envelope plus one payload struct per event,
// validated at the boundary before any of it reaches room logic.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/thecdrz/connect-four/internal/checkers"
	"github.com/thecdrz/connect-four/internal/connect4"
)

// Message is the JSON envelope for every client and server event.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client-to-server message types.
const (
	TypeCreateGame       = "createGame"
	TypeJoinGame         = "joinGame"
	TypeMakeMove         = "makeMove"
	TypeCheckersMove     = "checkersMove"
	TypeRequestRematch   = "requestRematch"
	TypeSendChatMessage  = "sendChatMessage"
	TypeTyping           = "typing"
	TypeLeaveGame        = "leaveGame"
	TypeSpectateGame     = "spectateGame"
	TypeLobbySubscribe   = "lobby:subscribe"
	TypeLobbyUnsubscribe = "lobby:unsubscribe"
	TypeGetLeaderboard   = "getLeaderboard"
)

// Server-to-client message types.
const (
	TypeGameCreated        = "gameCreated"
	TypeGameJoined         = "gameJoined"
	TypeGameStart          = "gameStart"
	TypePlayersUpdated     = "playersUpdated"
	TypeMoveMade           = "moveMade"
	TypeCheckersMoveMade   = "checkersMoveMade"
	TypeMoveConfirmed      = "moveConfirmed"
	TypeTurnUpdate         = "turnUpdate"
	TypeGameWon            = "gameWon"
	TypeGameDraw           = "gameDraw"
	TypeRematchVote        = "rematchVote"
	TypeRematchStarted     = "rematchStarted"
	TypeChatMessage        = "chatMessage"
	TypeGameLeft           = "gameLeft"
	TypePlayerDisconnected = "playerDisconnected"
	TypeSpectatorJoined    = "spectatorJoined"
	TypeSpectateEnded      = "spectateEnded"
	TypeLobbyUpdate        = "lobby:update"
	TypeLeaderboard        = "leaderboard"
	TypeError              = "error"
)

// Game type identifiers carried by createGame and room summaries.
const (
	GameConnect4 = "connect4"
	GameCheckers = "checkers"
)

// CreateGame requests a new room. GameType defaults to connect4; VsCPU
// fills the second slot with a computer opponent at Difficulty.
type CreateGame struct {
	PlayerName string `json:"playerName"`
	GameType   string `json:"gameType,omitempty"`
	VsCPU      bool   `json:"vsCpu,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type JoinGame struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

type MakeMove struct {
	GameID string `json:"gameId"`
	Col    int    `json:"col"`
	Player int    `json:"player"`
}

type CheckersMove struct {
	GameID string         `json:"gameId"`
	From   checkers.Coord `json:"from"`
	To     checkers.Coord `json:"to"`
}

type RequestRematch struct {
	GameID string `json:"gameId"`
}

type SendChatMessage struct {
	GameID  string `json:"gameId"`
	Message string `json:"message"`
}

type Typing struct {
	GameID   string `json:"gameId"`
	IsTyping bool   `json:"isTyping"`
}

type SpectateGame struct {
	GameID string `json:"gameId"`
}

type GameCreated struct {
	GameID       string `json:"gameId"`
	PlayerNumber int    `json:"playerNumber"`
}

type GameJoined struct {
	GameID       string `json:"gameId"`
	PlayerNumber int    `json:"playerNumber"`
	PlayerName   string `json:"playerName"`
}

type GameStart struct {
	GameID       string `json:"gameId"`
	PlayerNumber int    `json:"playerNumber"`
}

// PlayerInfo is one roster entry.
type PlayerInfo struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

type PlayersUpdated struct {
	Players []PlayerInfo `json:"players"`
}

type MoveMade struct {
	Col    int `json:"col"`
	Player int `json:"player"`
	Row    int `json:"row"`
}

type CheckersMoveMade struct {
	Player     int             `json:"player"`
	From       checkers.Coord  `json:"from"`
	To         checkers.Coord  `json:"to"`
	Captured   bool            `json:"captured"`
	CapturedAt *checkers.Coord `json:"capturedAt,omitempty"`
	King       bool            `json:"king"`
}

type MoveConfirmed struct {
	NextPlayer int `json:"nextPlayer"`
}

type TurnUpdate struct {
	CurrentPlayer int    `json:"currentPlayer"`
	PlayerColor   string `json:"playerColor"`
}

type GameWon struct {
	Winner       int              `json:"winner"`
	WinnerName   string           `json:"winnerName"`
	WinningCells []connect4.Coord `json:"winningCells,omitempty"`
}

type RematchVote struct {
	Votes  int `json:"votes"`
	Needed int `json:"needed"`
}

type ChatMessage struct {
	PlayerNumber int    `json:"playerNumber"`
	PlayerName   string `json:"playerName"`
	Message      string `json:"message"`
	Timestamp    int64  `json:"timestamp"` // unix milliseconds
}

type TypingUpdate struct {
	PlayerNumber int    `json:"playerNumber"`
	PlayerName   string `json:"playerName"`
	IsTyping     bool   `json:"isTyping"`
}

// Snapshot is the full room state sent to a spectator joining mid-game.
type Snapshot struct {
	GameID        string                                        `json:"gameId"`
	GameType      string                                        `json:"gameType"`
	Status        string                                        `json:"status"`
	Players       []PlayerInfo                                  `json:"players"`
	CurrentPlayer int                                           `json:"currentPlayer"`
	Board         *[connect4.Rows][connect4.Cols]connect4.Cell  `json:"board,omitempty"`
	Squares       *[checkers.Size][checkers.Size]checkers.Piece `json:"squares,omitempty"`
	Chat          []ChatMessage                                 `json:"chat"`
}

// RoomSummary is one lobby entry.
type RoomSummary struct {
	ID             string    `json:"id"`
	GameType       string    `json:"gameType"`
	HostName       string    `json:"hostName"`
	OpponentName   string    `json:"opponentName,omitempty"`
	Status         string    `json:"status"` // waiting, playing, finished
	PlayerCount    int       `json:"playerCount"`
	SpectatorCount int       `json:"spectatorCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// Encode marshals a payload into its envelope. Payload marshalling of the
// types above cannot fail; a nil payload produces an empty envelope.
func Encode(msgType string, payload any) []byte {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	data, _ := json.Marshal(Message{Type: msgType, Payload: raw})
	return data
}
