package press

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/matiasleandrokruk/dissociated/internal/infra/logging"
)

// StopReason explains why a run produced fewer chunks than requested.
type StopReason string

const (
	StopNone      StopReason = ""
	StopTruncated StopReason = "truncated"
	StopNoMatch   StopReason = "no_match"
)

// Result is a finished generation plus its diagnostics.
type Result struct {
	Text      string
	Tokens    []string
	Seed      []string
	SeedIndex int // -1 when the run started from a prompt
	Steps     []Step
	// Choices is the product of every step's match count: how many distinct
	// paths could have produced this text from the same seed.
	Choices    *big.Int
	Stopped    bool
	StopReason StopReason
}

// Generator drives a ChunkGenerator for a requested number of iterations.
type Generator struct {
	rng       Source
	strict    bool
	seedIndex int
	hasSeed   bool
	prompt    []string
	logger    logging.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource injects the pseudorandom source used for every choice.
func WithSource(src Source) Option {
	return func(g *Generator) {
		if src != nil {
			g.rng = src
		}
	}
}

// WithStrict selects strict propagation: a dead end fails the run with
// *NoMatchError instead of returning the text produced so far.
func WithStrict(strict bool) Option {
	return func(g *Generator) { g.strict = strict }
}

// WithSeedIndex fixes the start index of the seed chunk instead of drawing it.
func WithSeedIndex(i int) Option {
	return func(g *Generator) {
		g.seedIndex = i
		g.hasSeed = true
	}
}

// WithPrompt starts generation from the given text instead of a random seed.
// The prompt is tokenized like the corpus; its last chunk-size tokens are the
// first chunk looked up. A prompt that never occurs in the corpus dead-ends at once.
func WithPrompt(text string) Option {
	return func(g *Generator) { g.prompt = Tokenize(text) }
}

// WithLogger sets the logger used for per-step debug output.
func WithLogger(l logging.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New returns a Generator. Without WithSource it uses SystemSource.
func New(opts ...Option) *Generator {
	g := &Generator{logger: logging.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = SystemSource()
	}
	return g
}

// Generate runs the algorithm over the concatenation of sources with a
// system-seeded source and returns only the text.
func Generate(sources []string, chunkSize, chunks int) (string, error) {
	res, err := New().Generate(sources, chunkSize, chunks)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Generate tokenizes the concatenation of sources and calls Run.
func (g *Generator) Generate(sources []string, chunkSize, chunks int) (*Result, error) {
	return g.Run(Tokenize(Join(sources)), chunkSize, chunks)
}

// Run generates from an already tokenized corpus. tokens is never modified.
//
// Output is the seed chunk followed by up to chunks generated chunks, joined by
// single spaces: chunkSize*(chunks+1) words unless the run stopped early.
func (g *Generator) Run(tokens []string, chunkSize, chunks int) (*Result, error) {
	if err := validate(tokens, chunkSize, chunks); err != nil {
		return nil, err
	}

	seed, seedIndex, err := g.pickSeed(tokens, chunkSize)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Seed:      seed,
		SeedIndex: seedIndex,
		Choices:   big.NewInt(1),
	}
	out := make([]string, 0, len(seed)+chunkSize*chunks)
	out = append(out, seed...)

	gen := NewChunkGenerator(tokens, seed[len(seed)-chunkSize:], g.rng)
	for i := 0; i < chunks; i++ {
		step, advErr := gen.Advance()
		if advErr != nil {
			if g.strict || !errors.Is(advErr, ErrNoMatch) {
				return nil, advErr
			}
			g.logger.Warn("generation dead end", "iteration", i, "error", advErr)
			res.Stopped, res.StopReason = true, StopNoMatch
			break
		}

		res.Steps = append(res.Steps, step)
		res.Choices.Mul(res.Choices, big.NewInt(int64(step.Matches)))
		out = append(out, step.Chunk...)
		g.logger.Debug("chunk advanced", "iteration", i, "index", step.Index, "matches", step.Matches)

		if gen.State() == StateExhausted {
			res.Stopped, res.StopReason = true, StopTruncated
			break
		}
	}

	res.Tokens = out
	res.Text = strings.Join(out, " ")
	return res, nil
}

func validate(tokens []string, chunkSize, chunks int) error {
	if chunkSize < 1 {
		return fmt.Errorf("%w: %d (must be >= 1)", ErrInvalidChunkSize, chunkSize)
	}
	if chunks < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidChunkCount, chunks)
	}
	if len(tokens) == 0 {
		return ErrEmptyInput
	}
	if chunkSize > len(tokens) {
		return fmt.Errorf("%w: %d exceeds token count %d", ErrInvalidChunkSize, chunkSize, len(tokens))
	}
	return nil
}

// pickSeed returns the opening tokens of the output and, when they were taken
// from the corpus, their start index (-1 for a prompt).
func (g *Generator) pickSeed(tokens []string, chunkSize int) ([]string, int, error) {
	if len(g.prompt) > 0 {
		if len(g.prompt) < chunkSize {
			return nil, 0, fmt.Errorf("%w: prompt has %d tokens, chunk size is %d", ErrInvalidChunkSize, len(g.prompt), chunkSize)
		}
		return g.prompt, -1, nil
	}

	last := len(tokens) - chunkSize
	var start int
	if g.hasSeed {
		if g.seedIndex < 0 || g.seedIndex > last {
			return nil, 0, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidSeedIndex, g.seedIndex, last)
		}
		start = g.seedIndex
	} else {
		start = g.rng.IntN(last + 1)
	}
	return tokens[start : start+chunkSize], start, nil
}
