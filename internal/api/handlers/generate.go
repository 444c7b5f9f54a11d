package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/dissociated/internal/domain/generation"
	"github.com/matiasleandrokruk/dissociated/internal/domain/press"
)

// Generator is satisfied by *generation.Service.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*press.Result, error)
}

// GenerateHandler serves POST /api/v1/generate.
type GenerateHandler struct {
	generator Generator
}

func NewGenerateHandler(generator Generator) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

// GenerateRequest is the body of POST /api/v1/generate.
// Exactly one of Corpus and Sources must be set.
type GenerateRequest struct {
	Corpus    string   `json:"corpus,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	ChunkSize *int     `json:"chunkSize,omitempty"`
	Chunks    *int     `json:"chunks,omitempty"`
	Seed      *uint64  `json:"seed,omitempty"`
	SeedIndex *int     `json:"seedIndex,omitempty"`
	Prompt    string   `json:"prompt,omitempty"`
	Strict    *bool    `json:"strict,omitempty"`
}

// GenerateResponse is the body returned on success. Choices is a decimal
// string because the product of match counts overflows any JSON number.
type GenerateResponse struct {
	Text       string `json:"text"`
	Words      int    `json:"words"`
	Seed       string `json:"seed"`
	SeedIndex  int    `json:"seedIndex"`
	Steps      int    `json:"steps"`
	Choices    string `json:"choices"`
	Stopped    bool   `json:"stopped"`
	StopReason string `json:"stopReason,omitempty"`
}

// Generate handles POST /api/v1/generate.
//
// Response codes:
//   - 200 OK: text generated (possibly stopped early, see stopReason)
//   - 400 Bad Request: invalid body or parameters
//   - 404 Not Found: unknown corpus
//   - 409 Conflict: strict run reached a dead end
//   - 422 Unprocessable Entity: input has no words
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.generator.Generate(r.Context(), generation.Request{
		Corpus:    req.Corpus,
		Sources:   req.Sources,
		ChunkSize: req.ChunkSize,
		Chunks:    req.Chunks,
		Seed:      req.Seed,
		SeedIndex: req.SeedIndex,
		Prompt:    req.Prompt,
		Strict:    req.Strict,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toGenerateResponse(res))
}

func toGenerateResponse(res *press.Result) GenerateResponse {
	return GenerateResponse{
		Text:       res.Text,
		Words:      len(res.Tokens),
		Seed:       strings.Join(res.Seed, " "),
		SeedIndex:  res.SeedIndex,
		Steps:      len(res.Steps),
		Choices:    res.Choices.String(),
		Stopped:    res.Stopped,
		StopReason: string(res.StopReason),
	}
}
