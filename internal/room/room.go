// Package room implements the authoritative game session: the two-player
// roster, turn sequencing, chat, rematch voting, spectators, and the
// broadcast of resulting events. Rooms own their boards and consult the
// rules engines for every mutation; rendering and transport live
// elsewhere.
package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/thecdrz/connect-four/internal/ai"
	"github.com/thecdrz/connect-four/internal/checkers"
	"github.com/thecdrz/connect-four/internal/connect4"
	"github.com/thecdrz/connect-four/internal/protocol"
)

// Status is the lobby-visible lifecycle of a room.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// ChatLimit caps the retained chat log.
const ChatLimit = 50

// BotThinkDelay is the pause before a CPU reply. Presentation only; the
// move selection itself is synchronous.
const BotThinkDelay = 700 * time.Millisecond

// Player is one occupied slot. Client is nil for CPU players.
type Player struct {
	Client *Client
	Slot   int
	Name   string
	Bot    bool
}

// ResultRecorder receives game outcomes for the leaderboard.
type ResultRecorder interface {
	RecordResult(name string, won bool) error
}

// Room is one isolated game session identified by a short code. A single
// mutex serializes every mutation, so each operation runs to completion
// before the next is observed.
type Room struct {
	mu sync.Mutex

	code      string
	gameType  string
	createdAt time.Time

	players    []*Player
	spectators map[string]*Client

	active   bool
	finished bool
	turn     int // slot number, 1 or 2

	board    *connect4.Board
	checkers *checkers.Board
	// chained-capture lock: the piece that must continue capturing
	mustContinue *checkers.Coord

	chat         []protocol.ChatMessage
	rematchVotes map[int]bool

	botDifficulty ai.Difficulty
	botDelay      time.Duration

	recorder ResultRecorder
	onChange func()
}

// New creates an empty room. recorder and onChange may be nil.
func New(code, gameType string, recorder ResultRecorder, onChange func()) *Room {
	r := &Room{
		code:         code,
		gameType:     gameType,
		createdAt:    time.Now(),
		spectators:   make(map[string]*Client),
		rematchVotes: make(map[int]bool),
		botDelay:     BotThinkDelay,
		recorder:     recorder,
		onChange:     onChange,
	}
	if gameType == protocol.GameCheckers {
		r.checkers = checkers.New()
	} else {
		r.gameType = protocol.GameConnect4
		r.board = connect4.New()
	}
	return r
}

// Code returns the room's identifier.
func (r *Room) Code() string { return r.code }

// GameType returns connect4 or checkers.
func (r *Room) GameType() string { return r.gameType }

func (r *Room) notifyChange() {
	if r.onChange != nil {
		r.onChange()
	}
}

// AddPlayer assigns the next free slot to the client and broadcasts the
// roster. Filling the second slot starts the game.
func (r *Room) AddPlayer(c *Client, name string) (int, error) {
	r.mu.Lock()
	if len(r.players) >= 2 {
		r.mu.Unlock()
		return 0, ErrRoomFull
	}
	slot := r.nextFreeSlotLocked()
	r.players = append(r.players, &Player{Client: c, Slot: slot, Name: name})
	r.broadcastLocked(protocol.Encode(protocol.TypePlayersUpdated, protocol.PlayersUpdated{Players: r.rosterLocked()}))
	if len(r.players) == 2 {
		r.startLocked()
	}
	r.mu.Unlock()
	r.notifyChange()
	return slot, nil
}

// AddBot fills slot 2 with a CPU opponent and starts the game.
func (r *Room) AddBot(d ai.Difficulty) error {
	r.mu.Lock()
	if len(r.players) >= 2 {
		r.mu.Unlock()
		return ErrRoomFull
	}
	r.botDifficulty = d
	r.players = append(r.players, &Player{
		Slot: r.nextFreeSlotLocked(),
		Name: fmt.Sprintf("CPU (%s)", d),
		Bot:  true,
	})
	r.broadcastLocked(protocol.Encode(protocol.TypePlayersUpdated, protocol.PlayersUpdated{Players: r.rosterLocked()}))
	if len(r.players) == 2 {
		r.startLocked()
	}
	r.mu.Unlock()
	r.notifyChange()
	return nil
}

// SetBotDelay overrides the CPU thinking delay. Tests use zero.
func (r *Room) SetBotDelay(d time.Duration) {
	r.mu.Lock()
	r.botDelay = d
	r.mu.Unlock()
}

func (r *Room) startLocked() {
	r.active = true
	r.finished = false
	r.turn = 1
	for _, p := range r.players {
		p.Client.Deliver(protocol.Encode(protocol.TypeGameStart, protocol.GameStart{
			GameID:       r.code,
			PlayerNumber: p.Slot,
		}))
	}
	for _, s := range r.spectators {
		s.Deliver(protocol.Encode(protocol.TypeGameStart, protocol.GameStart{GameID: r.code}))
	}
}

// MakeMove drops slot's piece into col on a Connect Four board. The first
// in-turn submission wins; a racing second submission is rejected with
// ErrNotYourTurn once the turn has flipped.
func (r *Room) MakeMove(slot, col int) error {
	r.mu.Lock()
	err := r.applyDropLocked(slot, col)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.notifyChange()
	return nil
}

func (r *Room) applyDropLocked(slot, col int) error {
	if r.board == nil {
		return ErrInvalidMove
	}
	if !r.active {
		return ErrGameNotActive
	}
	if slot != r.turn {
		return ErrNotYourTurn
	}
	player := cellForSlot(slot)
	row, err := r.board.Drop(col, player)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	r.broadcastLocked(protocol.Encode(protocol.TypeMoveMade, protocol.MoveMade{Col: col, Player: slot, Row: row}))

	if r.board.CheckWin(row, col, player) {
		r.finishWinLocked(slot, r.board.WinningCells(row, col, player))
		return nil
	}
	if r.board.IsFull() {
		r.finishDrawLocked()
		return nil
	}
	r.turn = otherSlot(slot)
	r.scheduleBotLocked()
	return nil
}

// MakeCheckersMove validates and applies a checkers move for slot. Slot 1
// plays red, slot 2 plays black. After a capture the same piece must keep
// capturing while it can; the turn passes only when no capture remains.
func (r *Room) MakeCheckersMove(slot int, from, to checkers.Coord) error {
	r.mu.Lock()
	err := r.applyCheckersLocked(slot, from, to)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.notifyChange()
	return nil
}

func (r *Room) applyCheckersLocked(slot int, from, to checkers.Coord) error {
	if r.checkers == nil {
		return ErrInvalidMove
	}
	if !r.active {
		return ErrGameNotActive
	}
	if slot != r.turn {
		return ErrNotYourTurn
	}
	if r.mustContinue != nil {
		// Mid-chain the pinned piece may only keep capturing.
		if from != *r.mustContinue || abs(to.Row-from.Row) != 2 {
			return fmt.Errorf("%w: capture must continue", ErrInvalidMove)
		}
	}
	color := colorForSlot(slot)
	res, err := r.checkers.Apply(from.Row, from.Col, to.Row, to.Col, color)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}

	made := protocol.CheckersMoveMade{
		Player:   slot,
		From:     from,
		To:       to,
		Captured: res.Captured,
		King:     r.checkers.At(to.Row, to.Col).King,
	}
	if res.Captured {
		at := res.CapturedAt
		made.CapturedAt = &at
	}
	r.broadcastLocked(protocol.Encode(protocol.TypeCheckersMoveMade, made))

	opponent := color.Opponent()
	if r.checkers.PieceCount(opponent) == 0 || len(r.checkers.MovesFor(opponent)) == 0 {
		r.mustContinue = nil
		r.finishWinLocked(slot, nil)
		return nil
	}

	if res.Captured && len(r.checkers.CapturesForPiece(to.Row, to.Col)) > 0 {
		// Chain continues, turn stays with the mover.
		pinned := to
		r.mustContinue = &pinned
	} else {
		r.mustContinue = nil
		r.turn = otherSlot(slot)
	}

	r.sendToSlotLocked(slot, protocol.Encode(protocol.TypeMoveConfirmed, protocol.MoveConfirmed{NextPlayer: r.turn}))
	r.broadcastLocked(protocol.Encode(protocol.TypeTurnUpdate, protocol.TurnUpdate{
		CurrentPlayer: r.turn,
		PlayerColor:   colorForSlot(r.turn).String(),
	}))
	r.scheduleBotLocked()
	return nil
}

func (r *Room) finishWinLocked(slot int, cells []connect4.Coord) {
	r.active = false
	r.finished = true
	winner := r.playerBySlotLocked(slot)
	name := ""
	if winner != nil {
		name = winner.Name
	}
	r.broadcastLocked(protocol.Encode(protocol.TypeGameWon, protocol.GameWon{
		Winner:       slot,
		WinnerName:   name,
		WinningCells: cells,
	}))
	r.recordLocked(func(p *Player) bool { return p.Slot == slot })
}

func (r *Room) finishDrawLocked() {
	r.active = false
	r.finished = true
	r.broadcastLocked(protocol.Encode(protocol.TypeGameDraw, nil))
	// Draws count as a loss for both sides under the current scoring policy.
	r.recordLocked(func(*Player) bool { return false })
}

// recordLocked pushes results to the leaderboard, fire-and-forget. Bot
// games never touch the leaderboard.
func (r *Room) recordLocked(won func(*Player) bool) {
	if r.recorder == nil {
		return
	}
	for _, p := range r.players {
		if p.Bot {
			return
		}
	}
	if len(r.players) < 2 {
		return
	}
	rec := r.recorder
	// A pair per player, not a map: two players sharing a display name
	// still produce two results.
	type result struct {
		name string
		won  bool
	}
	results := make([]result, 0, len(r.players))
	for _, p := range r.players {
		results = append(results, result{name: p.Name, won: won(p)})
	}
	go func() {
		for _, res := range results {
			rec.RecordResult(res.name, res.won)
		}
	}()
}

// scheduleBotLocked arms the CPU reply when it is now a bot's turn.
func (r *Room) scheduleBotLocked() {
	if !r.active {
		return
	}
	current := r.playerBySlotLocked(r.turn)
	if current == nil || !current.Bot {
		return
	}
	slot := current.Slot
	if r.botDelay <= 0 {
		r.playBotLocked(slot)
		return
	}
	time.AfterFunc(r.botDelay, func() {
		r.PlayBotMove(slot)
	})
}

// PlayBotMove performs the CPU move for slot if it is still that bot's
// turn. Invoked by the scheduled callback; exported for tests that run
// with a zero delay disabled.
func (r *Room) PlayBotMove(slot int) {
	r.mu.Lock()
	r.playBotLocked(slot)
	r.mu.Unlock()
	r.notifyChange()
}

func (r *Room) playBotLocked(slot int) {
	if !r.active || r.turn != slot {
		return
	}
	p := r.playerBySlotLocked(slot)
	if p == nil || !p.Bot {
		return
	}
	if r.board != nil {
		col, ok := ai.ChooseColumn(r.board, cellForSlot(slot), r.botDifficulty)
		if !ok {
			return
		}
		r.applyDropLocked(slot, col)
		return
	}
	var move checkers.Move
	var ok bool
	if r.mustContinue != nil {
		caps := r.checkers.CapturesForPiece(r.mustContinue.Row, r.mustContinue.Col)
		if len(caps) == 0 {
			return
		}
		move, ok = caps[0], true
	} else {
		move, ok = ai.ChooseCheckersMove(r.checkers, colorForSlot(slot))
	}
	if !ok {
		return
	}
	r.applyCheckersLocked(slot, move.From, move.To)
}

// RequestRematch records slot's vote. A unanimous vote resets the board
// and starts a fresh game; votes outside the finished state are ignored.
func (r *Room) RequestRematch(slot int) {
	r.mu.Lock()
	if !r.finished {
		r.mu.Unlock()
		return
	}
	if r.playerBySlotLocked(slot) == nil {
		r.mu.Unlock()
		return
	}
	r.rematchVotes[slot] = true
	// A bot always agrees to a rematch.
	for _, p := range r.players {
		if p.Bot {
			r.rematchVotes[p.Slot] = true
		}
	}
	needed := len(r.players)
	votes := len(r.rematchVotes)
	r.broadcastLocked(protocol.Encode(protocol.TypeRematchVote, protocol.RematchVote{Votes: votes, Needed: needed}))
	if votes < needed {
		r.mu.Unlock()
		return
	}
	r.rematchVotes = make(map[int]bool)
	r.mustContinue = nil
	if r.board != nil {
		r.board.Reset()
	} else {
		r.checkers = checkers.New()
	}
	r.broadcastLocked(protocol.Encode(protocol.TypeRematchStarted, nil))
	r.startLocked()
	r.mu.Unlock()
	r.notifyChange()
}

// RemovePlayer detaches the client's slot. The remaining player is told
// the opponent left and further moves are rejected. Reports whether the
// room still has players.
func (r *Room) RemovePlayer(clientID string) (remaining int) {
	r.mu.Lock()
	idx := -1
	for i, p := range r.players {
		if p.Client != nil && p.Client.ID == clientID {
			idx = i
			break
		}
	}
	if idx == -1 {
		remaining = r.humanCountLocked()
		r.mu.Unlock()
		return remaining
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	r.active = false
	if r.humanCountLocked() > 0 {
		r.broadcastLocked(protocol.Encode(protocol.TypePlayerDisconnected, nil))
	}
	remaining = r.humanCountLocked()
	r.mu.Unlock()
	r.notifyChange()
	return remaining
}

func (r *Room) humanCountLocked() int {
	n := 0
	for _, p := range r.players {
		if !p.Bot {
			n++
		}
	}
	return n
}

// AddSpectator registers the client for all broadcasts and returns a full
// state snapshot in place of incremental history.
func (r *Room) AddSpectator(c *Client) protocol.Snapshot {
	r.mu.Lock()
	r.spectators[c.ID] = c
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.notifyChange()
	return snap
}

// RemoveSpectator detaches a spectator.
func (r *Room) RemoveSpectator(clientID string) {
	r.mu.Lock()
	delete(r.spectators, clientID)
	r.mu.Unlock()
	r.notifyChange()
}

// NotifySpectateEnded tells every spectator the room is gone and detaches
// them. The registry calls this before destroying a room.
func (r *Room) NotifySpectateEnded() {
	r.mu.Lock()
	for _, s := range r.spectators {
		s.Deliver(protocol.Encode(protocol.TypeSpectateEnded, nil))
	}
	r.spectators = make(map[string]*Client)
	r.mu.Unlock()
}

func (r *Room) snapshotLocked() protocol.Snapshot {
	snap := protocol.Snapshot{
		GameID:        r.code,
		GameType:      r.gameType,
		Status:        string(r.statusLocked()),
		Players:       r.rosterLocked(),
		CurrentPlayer: r.turn,
		Chat:          append([]protocol.ChatMessage(nil), r.chat...),
	}
	if r.board != nil {
		cells := r.board.Cells()
		snap.Board = &cells
	} else {
		squares := r.checkers.Squares()
		snap.Squares = &squares
	}
	return snap
}

// AddChatMessage appends to the capped log and broadcasts. Unknown slots
// are a silent no-op.
func (r *Room) AddChatMessage(slot int, text string) {
	r.mu.Lock()
	p := r.playerBySlotLocked(slot)
	if p == nil {
		r.mu.Unlock()
		return
	}
	msg := protocol.ChatMessage{
		PlayerNumber: slot,
		PlayerName:   p.Name,
		Message:      text,
		Timestamp:    time.Now().UnixMilli(),
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > ChatLimit {
		r.chat = r.chat[len(r.chat)-ChatLimit:]
	}
	r.broadcastLocked(protocol.Encode(protocol.TypeChatMessage, msg))
	r.mu.Unlock()
}

// Typing relays a presence hint to everyone but the typist.
func (r *Room) Typing(slot int, isTyping bool) {
	r.mu.Lock()
	p := r.playerBySlotLocked(slot)
	if p == nil {
		r.mu.Unlock()
		return
	}
	data := protocol.Encode(protocol.TypeTyping, protocol.TypingUpdate{
		PlayerNumber: slot,
		PlayerName:   p.Name,
		IsTyping:     isTyping,
	})
	for _, other := range r.players {
		if other.Slot != slot {
			other.Client.Deliver(data)
		}
	}
	for _, s := range r.spectators {
		s.Deliver(data)
	}
	r.mu.Unlock()
}

// Summary derives the lobby entry for this room.
func (r *Room) Summary() protocol.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := protocol.RoomSummary{
		ID:             r.code,
		GameType:       r.gameType,
		Status:         string(r.statusLocked()),
		PlayerCount:    len(r.players),
		SpectatorCount: len(r.spectators),
		CreatedAt:      r.createdAt,
	}
	if len(r.players) > 0 {
		sum.HostName = r.players[0].Name
	}
	if len(r.players) > 1 {
		sum.OpponentName = r.players[1].Name
	}
	return sum
}

// Status returns the lobby-visible state.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

func (r *Room) statusLocked() Status {
	switch {
	case r.finished:
		return StatusFinished
	case r.active:
		return StatusPlaying
	default:
		return StatusWaiting
	}
}

// PlayerCount returns the number of occupied slots (bots included).
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// HumanCount returns the number of connected (non-bot) players.
func (r *Room) HumanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.humanCountLocked()
}

// CreatedAt returns the room's creation time.
func (r *Room) CreatedAt() time.Time {
	return r.createdAt
}

// Turn returns the slot whose move is next.
func (r *Room) Turn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn
}

// Board exposes the Connect Four board for snapshots and tests.
func (r *Room) Board() *connect4.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board
}

// CheckersBoard exposes the checkers board for snapshots and tests.
func (r *Room) CheckersBoard() *checkers.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkers
}

// Roster returns the current [slot, name] list.
func (r *Room) Roster() []protocol.PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rosterLocked()
}

func (r *Room) rosterLocked() []protocol.PlayerInfo {
	roster := make([]protocol.PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		roster = append(roster, protocol.PlayerInfo{Number: p.Slot, Name: p.Name})
	}
	return roster
}

func (r *Room) nextFreeSlotLocked() int {
	for slot := 1; ; slot++ {
		if r.playerBySlotLocked(slot) == nil {
			return slot
		}
	}
}

func (r *Room) playerBySlotLocked(slot int) *Player {
	for _, p := range r.players {
		if p.Slot == slot {
			return p
		}
	}
	return nil
}

// broadcastLocked delivers to both players and every spectator.
func (r *Room) broadcastLocked(data []byte) {
	for _, p := range r.players {
		p.Client.Deliver(data)
	}
	for _, s := range r.spectators {
		s.Deliver(data)
	}
}

func (r *Room) sendToSlotLocked(slot int, data []byte) {
	if p := r.playerBySlotLocked(slot); p != nil {
		p.Client.Deliver(data)
	}
}

func cellForSlot(slot int) connect4.Cell {
	if slot == 1 {
		return connect4.Player1
	}
	return connect4.Player2
}

func colorForSlot(slot int) checkers.Color {
	if slot == 1 {
		return checkers.Red
	}
	return checkers.Black
}

func otherSlot(slot int) int {
	if slot == 1 {
		return 2
	}
	return 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
