package dashboard

import (
	"context"
	"errors"
	"sync"

	"trade-dashboard-go/internal/models"
)

// ErrNotEditing is returned when saving without an active edit session.
var ErrNotEditing = errors.New("no trade is being edited")

// EditDraft is the in-place edit form: close and volume as raw text.
type EditDraft struct {
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// Patch parses the draft into a patch carrying both fields.
func (d EditDraft) Patch() models.TradePatch {
	closePrice := ParseNumber(d.Close)
	volume := ParseVolume(d.Volume)
	return models.TradePatch{Close: &closePrice, Volume: &volume}
}

// EditSession tracks the single trade under interactive edit.
// The zero value is idle.
type EditSession struct {
	mu     sync.Mutex
	active bool
	id     uint
	draft  EditDraft
	closed bool
}

// Start begins editing t, replacing any active session.
func (e *EditSession) Start(t models.Trade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = true
	e.id = t.ID
	e.draft = EditDraft{Close: formatPrice(t.Close), Volume: formatVolume(t.Volume)}
}

// Current returns the edited identifier and draft; ok is false when idle.
func (e *EditSession) Current() (id uint, draft EditDraft, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id, e.draft, e.active
}

// SetClose updates the close text. It is ignored when idle.
func (e *EditSession) SetClose(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		e.draft.Close = text
	}
}

// SetVolume updates the volume text. It is ignored when idle.
func (e *EditSession) SetVolume(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		e.draft.Volume = text
	}
}

// Cancel discards the session without contacting the service.
func (e *EditSession) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = false
	e.id = 0
	e.draft = EditDraft{}
}

// Save patches the edited trade through store. The session ends only after
// the store has merged the change; on error it stays open for a retry.
func (e *EditSession) Save(ctx context.Context, store *TradeStore) error {
	id, draft, ok := e.Current()
	if !ok {
		return ErrNotEditing
	}

	if err := store.Patch(ctx, id, draft.Patch()); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	// A different trade may have been opened while the patch was in flight.
	if e.active && e.id == id {
		e.active = false
		e.id = 0
		e.draft = EditDraft{}
	}
	return nil
}

// Close makes the completion of a save still in flight leave the session as is.
func (e *EditSession) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
