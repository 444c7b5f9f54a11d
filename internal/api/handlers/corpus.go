package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/dissociated/internal/domain/corpus"
)

// CorpusStore is satisfied by *corpus.Service.
type CorpusStore interface {
	Create(ctx context.Context, input corpus.CreateInput) (*corpus.Corpus, error)
	Get(ctx context.Context, ref string) (*corpus.Corpus, error)
	List(ctx context.Context, input corpus.ListInput) ([]*corpus.Corpus, int, error)
	Delete(ctx context.Context, ref string) error
}

// CorpusHandler serves the /api/v1/corpora resource.
type CorpusHandler struct {
	store CorpusStore
}

func NewCorpusHandler(store CorpusStore) *CorpusHandler {
	return &CorpusHandler{store: store}
}

// CreateCorpusRequest is the body of POST /api/v1/corpora.
type CreateCorpusRequest struct {
	Name    string   `json:"name"`
	Sources []string `json:"sources"`
}

// ListCorporaResponse wraps a page of corpora, without their content.
type ListCorporaResponse struct {
	Data []*corpus.Corpus `json:"data"`
	Meta listMeta         `json:"meta"`
}

type listMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// CreateCorpus handles POST /api/v1/corpora.
//
// Response codes:
//   - 201 Created
//   - 400 Bad Request: invalid body, missing name or sources
//   - 409 Conflict: name already taken
//   - 422 Unprocessable Entity: sources contain no words
func (h *CorpusHandler) CreateCorpus(w http.ResponseWriter, r *http.Request) {
	var req CreateCorpusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.store.Create(r.Context(), corpus.CreateInput{Name: req.Name, Sources: req.Sources})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	c.Content = ""
	writeJSON(w, http.StatusCreated, c)
}

// ListCorpora handles GET /api/v1/corpora?limit=&offset=.
func (h *CorpusHandler) ListCorpora(w http.ResponseWriter, r *http.Request) {
	page := parsePaginationParams(r)

	items, total, err := h.store.List(r.Context(), corpus.ListInput{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []*corpus.Corpus{}
	}

	writeJSON(w, http.StatusOK, ListCorporaResponse{
		Data: items,
		Meta: listMeta{Total: total, Limit: page.Limit, Offset: page.Offset},
	})
}

// GetCorpus handles GET /api/v1/corpora/{id}; {id} may also be the corpus name.
func (h *CorpusHandler) GetCorpus(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCorpus handles DELETE /api/v1/corpora/{id}.
func (h *CorpusHandler) DeleteCorpus(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
