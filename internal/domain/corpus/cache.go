package corpus

import (
	"context"
	"sync"

	"github.com/matiasleandrokruk/dissociated/internal/infra/eventbus"
	"github.com/matiasleandrokruk/dissociated/internal/infra/logging"
)

// TokenCache keeps tokenized corpora in memory, addressable by ID or name.
// Token slices are shared; readers must not modify them.
type TokenCache struct {
	mu     sync.RWMutex
	byID   map[string][]string
	idName map[string]string // name → id
}

// NewTokenCache returns an empty cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{
		byID:   make(map[string][]string),
		idName: make(map[string]string),
	}
}

// Get returns the tokens cached under ref, an ID or a name.
func (c *TokenCache) Get(ref string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if tokens, ok := c.byID[ref]; ok {
		return tokens, true
	}
	if id, ok := c.idName[ref]; ok {
		tokens, found := c.byID[id]
		return tokens, found
	}
	return nil, false
}

func (c *TokenCache) Put(id, name string, tokens []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[id] = tokens
	if name != "" {
		c.idName[name] = id
	}
}

func (c *TokenCache) Evict(id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	if c.idName[name] == id {
		delete(c.idName, name)
	}
}

// Len returns the number of cached corpora.
func (c *TokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Subscriber is the consumer side of the event bus.
type Subscriber interface {
	Subscribe(topic string) (<-chan eventbus.Event, func())
}

// WatchEvents logs corpus lifecycle events until ctx is done or the bus is closed.
// Run it in its own goroutine.
func WatchEvents(ctx context.Context, sub Subscriber, logger logging.Logger) {
	created, cancelCreated := sub.Subscribe(TopicCorpusCreated)
	defer cancelCreated()
	deleted, cancelDeleted := sub.Subscribe(TopicCorpusDeleted)
	defer cancelDeleted()

	for created != nil || deleted != nil {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-created:
			if !ok {
				created = nil
				continue
			}
			if p, isCreated := evt.Payload.(CreatedEvent); isCreated {
				logger.Info("corpus stored", "id", p.ID, "name", p.Name, "tokens", p.TokenCount)
			}
		case evt, ok := <-deleted:
			if !ok {
				deleted = nil
				continue
			}
			if p, isDeleted := evt.Payload.(DeletedEvent); isDeleted {
				logger.Info("corpus deleted", "id", p.ID, "name", p.Name)
			}
		}
	}
}
