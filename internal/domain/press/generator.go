package press

import (
	"errors"
	"slices"
)

// State is the lifecycle of a ChunkGenerator.
type State int

const (
	// StateSeeded holds a full-size current chunk and can advance.
	StateSeeded State = iota
	// StateAdvancing is held only while a match set is computed and sampled.
	StateAdvancing
	// StateExhausted is terminal: a dead end or a truncated chunk was reached.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateSeeded:
		return "seeded"
	case StateAdvancing:
		return "advancing"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ErrExhausted is returned by Advance once the generator reached StateExhausted.
var ErrExhausted = errors.New("chunk generator exhausted")

// Step is the outcome of one advance.
type Step struct {
	// Chunk is the continuation; shorter than the chunk size only at the tail of the corpus.
	Chunk []string
	// Index is the chosen occurrence of the previous chunk in the token sequence.
	Index int
	// Matches is the size of the match set the index was drawn from.
	Matches int
}

// Advance computes the match set of current in tokens, picks one occurrence
// uniformly with rng and returns the len(current) tokens that follow it.
// Returns *NoMatchError when current occurs nowhere.
func Advance(tokens, current []string, rng Source) (Step, error) {
	matches := FindAll(tokens, current)
	if len(matches) == 0 {
		return Step{}, &NoMatchError{Chunk: slices.Clone(current)}
	}

	i := matches[rng.IntN(len(matches))]
	start := i + len(current)
	end := min(start+len(current), len(tokens))

	return Step{
		Chunk:   slices.Clip(tokens[start:end]),
		Index:   i,
		Matches: len(matches),
	}, nil
}

// ChunkGenerator walks the token sequence one chunk at a time.
// It is not safe for concurrent use.
type ChunkGenerator struct {
	tokens    []string
	size      int
	rng       Source
	state     State
	current   []string
	iteration int
}

// NewChunkGenerator starts a generator whose chunk size is len(seed).
// A seed shorter than one token yields an already exhausted generator.
func NewChunkGenerator(tokens, seed []string, rng Source) *ChunkGenerator {
	g := &ChunkGenerator{
		tokens:  tokens,
		size:    len(seed),
		rng:     rng,
		current: slices.Clone(seed),
	}
	if g.size == 0 {
		g.state = StateExhausted
	}
	return g
}

// State returns the current lifecycle state.
func (g *ChunkGenerator) State() State { return g.state }

// Current returns the chunk the next Advance will look up.
func (g *ChunkGenerator) Current() []string { return g.current }

// Advance produces the next chunk. A short chunk is returned normally but
// moves the generator to StateExhausted; it is never matched again.
func (g *ChunkGenerator) Advance() (Step, error) {
	if g.state == StateExhausted {
		return Step{}, ErrExhausted
	}

	g.state = StateAdvancing
	step, err := Advance(g.tokens, g.current, g.rng)
	if err != nil {
		g.state = StateExhausted
		var nm *NoMatchError
		if errors.As(err, &nm) {
			nm.Iteration = g.iteration
		}
		return Step{}, err
	}

	g.iteration++
	g.current = step.Chunk
	if len(step.Chunk) < g.size {
		g.state = StateExhausted
	} else {
		g.state = StateSeeded
	}
	return step, nil
}
