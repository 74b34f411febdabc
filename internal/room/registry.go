package room

import (
	"crypto/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thecdrz/connect-four/internal/protocol"
)

// codeAlphabet and codeLength define the room code format: short,
// uppercase alphanumeric, collision-tolerant.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// Registry owns every live room, keyed by code. It is an explicitly
// constructed object, not a process global, so tests build isolated
// instances.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	recorder ResultRecorder
	onChange func()
}

// NewRegistry creates an empty registry. recorder may be nil.
func NewRegistry(recorder ResultRecorder) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		recorder: recorder,
	}
}

// OnChange registers a callback invoked after any room or registry
// mutation; the gateway uses it to push lobby updates. Must be set before
// rooms are created.
func (g *Registry) OnChange(fn func()) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

func (g *Registry) notifyChange() {
	g.mu.RLock()
	fn := g.onChange
	g.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Create inserts an empty room under a fresh code, regenerating on the
// rare collision.
func (g *Registry) Create(gameType string) *Room {
	g.mu.Lock()
	var code string
	for {
		code = generateCode()
		if _, exists := g.rooms[code]; !exists {
			break
		}
	}
	r := New(code, gameType, g.recorder, g.notifyChange)
	g.rooms[code] = r
	g.mu.Unlock()
	log.Info().Str("room", code).Str("game", r.GameType()).Msg("room created")
	g.notifyChange()
	return r
}

// Get returns a room by code.
func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[code]
	return r, ok
}

// Remove destroys a room, telling any spectators first.
func (g *Registry) Remove(code string) {
	g.mu.Lock()
	r, ok := g.rooms[code]
	delete(g.rooms, code)
	g.mu.Unlock()
	if !ok {
		return
	}
	r.NotifySpectateEnded()
	log.Info().Str("room", code).Msg("room removed")
	g.notifyChange()
}

// Summaries derives the lobby listing: waiting rooms first, then playing,
// then finished, newest-created first within each group.
func (g *Registry) Summaries() []protocol.RoomSummary {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	sums := make([]protocol.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		sums = append(sums, r.Summary())
	}
	sort.Slice(sums, func(i, j int) bool {
		a, b := statusRank(sums[i].Status), statusRank(sums[j].Status)
		if a != b {
			return a < b
		}
		return sums[i].CreatedAt.After(sums[j].CreatedAt)
	})
	return sums
}

func statusRank(status string) int {
	switch Status(status) {
	case StatusWaiting:
		return 0
	case StatusPlaying:
		return 1
	default:
		return 2
	}
}

// Sweep removes every room with zero human players, spectators or not.
func (g *Registry) Sweep() {
	g.mu.RLock()
	var stale []string
	for code, r := range g.rooms {
		if r.HumanCount() == 0 {
			stale = append(stale, code)
		}
	}
	g.mu.RUnlock()
	for _, code := range stale {
		log.Info().Str("room", code).Msg("sweeping empty room")
		g.Remove(code)
	}
}

// SweepLoop runs Sweep at the given interval until stop is closed.
func (g *Registry) SweepLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.Sweep()
		case <-stop:
			return
		}
	}
}

func generateCode() string {
	b := make([]byte, codeLength)
	rand.Read(b)
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}
