package press

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidChunkSize is returned when chunk size is < 1 or larger than the token count.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkCount is returned when the requested number of chunks is negative.
	ErrInvalidChunkCount = errors.New("invalid chunk count")

	// ErrInvalidSeedIndex is returned when a fixed seed start index falls outside the token sequence.
	ErrInvalidSeedIndex = errors.New("invalid seed index")

	// ErrEmptyInput is returned when the tokenized corpus has zero tokens.
	ErrEmptyInput = errors.New("empty input: corpus has no tokens")

	// ErrNoMatch is the sentinel matched by every *NoMatchError.
	ErrNoMatch = errors.New("no match for chunk")
)

// NoMatchError reports a dead end: the current chunk does not occur anywhere
// in the token sequence, so no continuation can be chosen.
type NoMatchError struct {
	Chunk     []string
	Iteration int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("%s %q at iteration %d", ErrNoMatch, strings.Join(e.Chunk, " "), e.Iteration)
}

// Is lets errors.Is(err, ErrNoMatch) succeed for any *NoMatchError.
func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatch
}
