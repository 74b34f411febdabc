package main

import (
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	connectfour "github.com/thecdrz/connect-four"
	"github.com/thecdrz/connect-four/internal/room"
	"github.com/thecdrz/connect-four/internal/server"
	"github.com/thecdrz/connect-four/internal/storage"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}

	dbPath := "connect4.db"
	if p := os.Getenv("DB_PATH"); p != "" {
		dbPath = p
	}

	store, err := storage.New(dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("open database")
	}
	defer store.Close()

	registry := room.NewRegistry(store)

	// Sweep abandoned rooms every minute.
	stop := make(chan struct{})
	defer close(stop)
	go registry.SweepLoop(time.Minute, stop)

	webFS, err := fs.Sub(connectfour.WebFS, "web")
	if err != nil {
		log.Fatal().Err(err).Msg("web assets")
	}

	srv := server.New(registry, store, webFS)

	log.Info().Str("addr", addr).Msg("listening")
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
