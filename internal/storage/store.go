// Package storage persists the win/loss leaderboard in SQLite. Records
// are keyed by display name, so multiple sessions under the same name
// accumulate into one record; records are never deleted.
package storage

import (
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

// Entry is one leaderboard row.
type Entry struct {
	Name    string  `json:"name"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Games   int     `json:"games"`
	WinRate float64 `json:"winRate"` // percentage, one decimal
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			name   TEXT PRIMARY KEY,
			wins   INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			games  INTEGER NOT NULL DEFAULT 0
		);
	`)
	return err
}

// RecordResult increments games and either wins or losses for name,
// creating the record on first completion. Each update is flushed
// immediately; there is no batching at this scale.
func (s *Store) RecordResult(name string, won bool) error {
	wins, losses := 0, 1
	if won {
		wins, losses = 1, 0
	}
	_, err := s.db.Exec(`
		INSERT INTO players (name, wins, losses, games)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(name) DO UPDATE SET
			wins   = wins + excluded.wins,
			losses = losses + excluded.losses,
			games  = games + 1
	`, name, wins, losses)
	return err
}

// Get returns one player's record.
func (s *Store) Get(name string) (Entry, error) {
	row := s.db.QueryRow("SELECT name, wins, losses, games FROM players WHERE name = ?", name)
	var e Entry
	if err := row.Scan(&e.Name, &e.Wins, &e.Losses, &e.Games); err != nil {
		return Entry{}, err
	}
	e.WinRate = winRate(e.Wins, e.Games)
	return e, nil
}

// Top returns at most n entries ordered by wins descending, ties broken
// by win rate descending.
func (s *Store) Top(n int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT name, wins, losses, games FROM players
		ORDER BY wins DESC, CAST(wins AS REAL) / MAX(games, 1) DESC, name ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Wins, &e.Losses, &e.Games); err != nil {
			return nil, err
		}
		e.WinRate = winRate(e.Wins, e.Games)
		result = append(result, e)
	}
	return result, rows.Err()
}

// winRate reports wins/games as a percentage rounded to one decimal;
// zero games reports 0.
func winRate(wins, games int) float64 {
	if games == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(games)*1000) / 10
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
