// Package generation resolves a request (stored corpus or inline text plus
// optional overrides) into a press run. Results are returned, never stored.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/matiasleandrokruk/dissociated/internal/domain/press"
	"github.com/matiasleandrokruk/dissociated/internal/infra/logging"
)

var (
	ErrTooManyChunks = errors.New("too many chunks requested")
	ErrNoInput       = errors.New("either a corpus or source text is required")
	ErrAmbiguous     = errors.New("corpus and source text are mutually exclusive")
)

// TokenSource resolves a stored corpus reference to its tokens.
type TokenSource interface {
	Tokens(ctx context.Context, ref string) ([]string, error)
}

// Defaults fill request fields left at zero.
type Defaults struct {
	ChunkSize int
	Chunks    int
	MaxChunks int
	Strict    bool
}

// Request is one generation. Pointer fields distinguish "unset" from zero.
type Request struct {
	Corpus    string   // corpus ID or name
	Sources   []string // inline texts, joined in order
	ChunkSize *int     // nil = default
	Chunks    *int     // nil = default; 0 = seed only
	Seed      *uint64  // nil = system-seeded
	SeedIndex *int
	Prompt    string
	Strict    *bool
}

// Service runs generations against stored or inline corpora.
type Service struct {
	corpora  TokenSource
	defaults Defaults
	logger   logging.Logger
}

func NewService(corpora TokenSource, defaults Defaults, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{corpora: corpora, defaults: defaults, logger: logger}
}

// Generate validates req, resolves its tokens and runs the generator.
func (s *Service) Generate(ctx context.Context, req Request) (*press.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens, err := s.tokens(ctx, req)
	if err != nil {
		return nil, err
	}

	chunkSize := s.defaults.ChunkSize
	if req.ChunkSize != nil {
		chunkSize = *req.ChunkSize
	}
	chunks := s.defaults.Chunks
	if req.Chunks != nil {
		chunks = *req.Chunks
	}
	if s.defaults.MaxChunks > 0 && chunks > s.defaults.MaxChunks {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyChunks, chunks, s.defaults.MaxChunks)
	}

	strict := s.defaults.Strict
	if req.Strict != nil {
		strict = *req.Strict
	}

	opts := []press.Option{press.WithStrict(strict), press.WithLogger(s.logger)}
	if req.Seed != nil {
		opts = append(opts, press.WithSource(press.NewSource(*req.Seed)))
	}
	if req.SeedIndex != nil {
		opts = append(opts, press.WithSeedIndex(*req.SeedIndex))
	}
	if req.Prompt != "" {
		opts = append(opts, press.WithPrompt(req.Prompt))
	}

	res, err := press.New(opts...).Run(tokens, chunkSize, chunks)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("generation finished",
		"corpus", req.Corpus,
		"chunk_size", chunkSize,
		"chunks", len(res.Steps),
		"words", len(res.Tokens),
		"stop_reason", string(res.StopReason),
	)
	return res, nil
}

func (s *Service) tokens(ctx context.Context, req Request) ([]string, error) {
	switch {
	case req.Corpus != "" && len(req.Sources) > 0:
		return nil, ErrAmbiguous
	case req.Corpus != "":
		if s.corpora == nil {
			return nil, fmt.Errorf("corpus %q: no corpus store configured", req.Corpus)
		}
		return s.corpora.Tokens(ctx, req.Corpus)
	case len(req.Sources) > 0:
		return press.Tokenize(press.Join(req.Sources)), nil
	default:
		return nil, ErrNoInput
	}
}
