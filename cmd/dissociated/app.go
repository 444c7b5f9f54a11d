package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matiasleandrokruk/dissociated/internal/domain/corpus"
	"github.com/matiasleandrokruk/dissociated/internal/domain/generation"
	"github.com/matiasleandrokruk/dissociated/internal/infra/config"
	"github.com/matiasleandrokruk/dissociated/internal/infra/eventbus"
	"github.com/matiasleandrokruk/dissociated/internal/infra/logging"
	"github.com/matiasleandrokruk/dissociated/internal/infra/sqlite"
)

// app holds the wiring shared by the subcommands.
type app struct {
	cfg     config.Config
	logger  logging.Logger
	db      *sql.DB
	bus     *eventbus.Bus
	corpora *corpus.Service
}

// newApp loads configuration and the logger. withStore also opens the
// database and the corpus service.
func newApp(stderr io.Writer, withStore bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		logger: logging.New(logging.Config{
			Level:      logging.ParseLevel(cfg.LogLevel),
			Output:     stderr,
			JSON:       cfg.LogJSON,
			TimeFormat: time.Kitchen,
		}),
	}
	if !withStore {
		return a, nil
	}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	a.db = db
	a.bus = eventbus.New()
	a.corpora = corpus.NewService(db, a.bus, corpus.NewTokenCache())
	return a, nil
}

// watch logs corpus events until ctx ends.
func (a *app) watch(ctx context.Context) {
	if a.bus != nil {
		go corpus.WatchEvents(ctx, a.bus, a.logger)
	}
}

func (a *app) generationService() *generation.Service {
	return generation.NewService(a.corpora, generation.Defaults{
		ChunkSize: a.cfg.ChunkSize,
		Chunks:    a.cfg.Chunks,
		MaxChunks: a.cfg.MaxChunks,
		Strict:    a.cfg.Strict,
	}, a.logger)
}

func (a *app) Close() {
	if a.bus != nil {
		a.bus.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "err", err)
		}
	}
}

// generate runs req and prints the text, plus statistics when asked.
func generate(gen *generation.Service, req generation.Request, stats bool, stdout, stderr io.Writer) int {
	res, err := gen.Generate(context.Background(), req)
	if err != nil {
		return fail(stderr, err)
	}

	fmt.Fprintln(stdout, res.Text) //nolint:errcheck
	if stats {
		seed := strings.Join(res.Seed, " ")
		fmt.Fprintf(stderr, "seed=%q seed_index=%d words=%d steps=%d choices=%s stop=%s\n", //nolint:errcheck
			seed, res.SeedIndex, len(res.Tokens), len(res.Steps), res.Choices.String(), stopReason(res.StopReason))
	}
	return exitOK
}
