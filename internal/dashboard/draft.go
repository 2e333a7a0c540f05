package dashboard

import (
	"context"
	"fmt"
	"sync"

	"trade-dashboard-go/internal/models"
)

// DraftComposer holds the new-trade form until it is submitted.
type DraftComposer struct {
	mu     sync.Mutex
	draft  TradeDraft
	closed bool
}

// Draft returns the current form values.
func (c *DraftComposer) Draft() TradeDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Set updates one form field.
func (c *DraftComposer) Set(f Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.draft.field(f)
	if !ok {
		return fmt.Errorf("unknown field %q", f)
	}
	*p = value
	return nil
}

// Reset clears every field.
func (c *DraftComposer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = TradeDraft{}
}

// Submit creates the drafted trade through store. The form is cleared only on
// success; on any error it is kept as typed.
func (c *DraftComposer) Submit(ctx context.Context, store *TradeStore) (*models.Trade, error) {
	created, err := store.Create(ctx, c.Draft())
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.draft = TradeDraft{}
	}
	return created, nil
}

// Close keeps the form as typed when a submit still in flight completes.
func (c *DraftComposer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
