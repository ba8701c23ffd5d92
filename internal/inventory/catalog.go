package inventory

import (
	"fmt"
	"sync"

	"github.com/cinexhq/seat-hold-service/internal/domain"
)

// Catalog is the in-process registry of showings and their immutable seat
// layouts. Layout and pricing data is supplied once at showing-creation time
// by the catalog collaborator; after registration a showing is never mutated.
type Catalog struct {
	mu       sync.RWMutex
	showings map[string]*domain.Showing
}

func NewCatalog() *Catalog {
	return &Catalog{
		showings: make(map[string]*domain.Showing),
	}
}

func (c *Catalog) Register(showing *domain.Showing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.showings[showing.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrShowingExists, showing.ID)
	}

	c.showings[showing.ID] = showing

	return nil
}

func (c *Catalog) Get(showingID string) (*domain.Showing, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	showing, ok := c.showings[showingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrShowingNotFound, showingID)
	}

	return showing, nil
}
