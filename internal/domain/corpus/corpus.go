// Package corpus stores named source texts so they can be generated from
// repeatedly without re-reading files. Generated text is never stored here.
package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/matiasleandrokruk/dissociated/internal/domain/press"
	"github.com/matiasleandrokruk/dissociated/internal/infra/eventbus"
)

// Event bus topics published by Service.
const (
	TopicCorpusCreated = "corpus.created"
	TopicCorpusDeleted = "corpus.deleted"
)

var (
	ErrNotFound      = errors.New("corpus not found")
	ErrNameRequired  = errors.New("corpus name is required")
	ErrDuplicateName = errors.New("corpus name already exists")
	ErrNoSources     = errors.New("at least one source text is required")
)

// Corpus is a stored, already concatenated source text.
type Corpus struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Content     string    `json:"content,omitempty"`
	TokenCount  int       `json:"tokenCount"`
	SourceCount int       `json:"sourceCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateInput struct {
	Name    string
	Sources []string
}

type ListInput struct {
	Limit  int
	Offset int
}

// CreatedEvent is the payload of TopicCorpusCreated.
type CreatedEvent struct {
	ID         string
	Name       string
	TokenCount int
}

// DeletedEvent is the payload of TopicCorpusDeleted.
type DeletedEvent struct {
	ID   string
	Name string
}

// Service persists corpora in SQLite and serves their token sequences.
type Service struct {
	db    *sql.DB
	bus   eventbus.Publisher
	cache *TokenCache
}

// NewService wires the store. bus and cache may be nil.
func NewService(db *sql.DB, bus eventbus.Publisher, cache *TokenCache) *Service {
	return &Service{db: db, bus: bus, cache: cache}
}

// Create joins the sources, checks they hold at least one token and stores
// the result under a new UUIDv7.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Corpus, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(input.Sources) == 0 {
		return nil, ErrNoSources
	}

	content := press.Join(input.Sources)
	tokens := press.Tokenize(content)
	if len(tokens) == 0 {
		return nil, press.ErrEmptyInput
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("create corpus: id: %w", err)
	}
	c := &Corpus{
		ID:          id.String(),
		Name:        name,
		Content:     content,
		TokenCount:  len(tokens),
		SourceCount: len(input.Sources),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO corpus (id, name, content, token_count, source_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Content, c.TokenCount, c.SourceCount, c.CreatedAt.Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if err != nil {
		return nil, fmt.Errorf("create corpus: %w", err)
	}

	if s.cache != nil {
		s.cache.Put(c.ID, c.Name, tokens)
	}
	if s.bus != nil {
		s.bus.Publish(TopicCorpusCreated, CreatedEvent{ID: c.ID, Name: c.Name, TokenCount: c.TokenCount})
	}
	return c, nil
}

// Get looks a corpus up by ID or by name.
func (s *Service) Get(ctx context.Context, ref string) (*Corpus, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, content, token_count, source_count, created_at FROM corpus WHERE id = ? OR name = ? LIMIT 1`,
		ref, ref,
	)
	c, err := scanCorpus(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("get corpus: %w", err)
	}
	return c, nil
}

// List returns corpora newest first, without their content, plus the total count.
func (s *Service) List(ctx context.Context, input ListInput) ([]*Corpus, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpus`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count corpora: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, '', token_count, source_count, created_at FROM corpus ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		input.Limit, input.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list corpora: %w", err)
	}
	defer rows.Close()

	out := make([]*Corpus, 0, input.Limit)
	for rows.Next() {
		c, scanErr := scanCorpus(rows, false)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("list corpora: scan: %w", scanErr)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list corpora: %w", err)
	}
	return out, total, nil
}

// Delete removes a corpus by ID or name.
func (s *Service) Delete(ctx context.Context, ref string) error {
	c, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM corpus WHERE id = ?`, c.ID); err != nil {
		return fmt.Errorf("delete corpus: %w", err)
	}
	if s.cache != nil {
		s.cache.Evict(c.ID, c.Name)
	}
	if s.bus != nil {
		s.bus.Publish(TopicCorpusDeleted, DeletedEvent{ID: c.ID, Name: c.Name})
	}
	return nil
}

// Tokens returns the token sequence of a corpus, from the cache when possible.
// Callers must not modify the returned slice.
func (s *Service) Tokens(ctx context.Context, ref string) ([]string, error) {
	if s.cache != nil {
		if tokens, ok := s.cache.Get(ref); ok {
			return tokens, nil
		}
	}
	c, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	tokens := press.Tokenize(c.Content)
	if s.cache != nil {
		s.cache.Put(c.ID, c.Name, tokens)
	}
	return tokens, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCorpus(row rowScanner, withContent bool) (*Corpus, error) {
	var (
		c         Corpus
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Content, &c.TokenCount, &c.SourceCount, &createdAt); err != nil {
		return nil, err
	}
	if !withContent {
		c.Content = ""
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("created_at %q: %w", createdAt, err)
	}
	c.CreatedAt = t
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
