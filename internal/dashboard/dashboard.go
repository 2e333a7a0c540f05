// Package dashboard keeps a local view of a server-paginated, server-filtered
// trade collection consistent with the remote trade service across filter
// changes, page navigation, overlapping fetches and local mutations.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"trade-dashboard-go/internal/models"
	"trade-dashboard-go/internal/tradeapi"

	"go.uber.org/zap"
)

// DefaultPageSize is used when a non-positive page size is configured.
const DefaultPageSize = 50

// Snapshot is everything a renderer needs, copied at one point in time.
type Snapshot struct {
	TradeCode string
	Page      int
	PageSize  int
	MaxPage   int
	HasPrev   bool
	HasNext   bool

	Total   int64
	Items   []models.Trade
	Loading bool
	Err     error

	Codes []string

	Editing   bool
	EditingID uint
	EditDraft EditDraft

	Draft  TradeDraft
	Charts Projection
}

// PageLabel renders "Page x of y" with one-based numbers.
func (s Snapshot) PageLabel() string {
	return fmt.Sprintf("Page %d of %d", min(s.Page+1, s.MaxPage+1), s.MaxPage+1)
}

// Dashboard is the application context owning every state container.
type Dashboard struct {
	client tradeapi.RestClientInterface
	logger *zap.Logger

	store     *TradeStore
	fetch     *FetchController
	edit      *EditSession
	draft     *DraftComposer
	projector *Projector

	mu    sync.RWMutex
	codes []string
}

// New wires a dashboard on top of client.
func New(client tradeapi.RestClientInterface, pageSize int, logger *zap.Logger) *Dashboard {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	logger = logger.Named("dashboard")
	store := NewTradeStore(client, logger)
	return &Dashboard{
		client:    client,
		logger:    logger,
		store:     store,
		fetch:     NewFetchController(client, store, pageSize, logger),
		edit:      &EditSession{},
		draft:     &DraftComposer{},
		projector: &Projector{},
		codes:     []string{},
	}
}

// Store returns the trade store.
func (d *Dashboard) Store() *TradeStore { return d.store }

// Fetcher returns the fetch controller.
func (d *Dashboard) Fetcher() *FetchController { return d.fetch }

// Edit returns the edit session.
func (d *Dashboard) Edit() *EditSession { return d.edit }

// Composer returns the new-trade draft composer.
func (d *Dashboard) Composer() *DraftComposer { return d.draft }

// Start loads the trade codes and the first page.
func (d *Dashboard) Start(ctx context.Context) error {
	d.LoadCodes(ctx)
	return d.fetch.Reload(ctx)
}

// LoadCodes refreshes the list of trade codes. A failure leaves the list empty.
func (d *Dashboard) LoadCodes(ctx context.Context) {
	codes, err := d.client.GetTradeCodes(ctx)
	if err != nil {
		d.logger.Warn("Failed to load trade codes", zap.Error(err))
		codes = []string{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.codes = codes
}

// SetFilter selects a trade code ("" for all) and reloads from page 0.
func (d *Dashboard) SetFilter(ctx context.Context, tradeCode string) error {
	return d.fetch.SetFilter(ctx, tradeCode)
}

// SetPage jumps to a zero-based page.
func (d *Dashboard) SetPage(ctx context.Context, page int) error {
	return d.fetch.SetPage(ctx, page)
}

// NextPage moves forward one page.
func (d *Dashboard) NextPage(ctx context.Context) error {
	return d.fetch.NextPage(ctx)
}

// PrevPage moves back one page.
func (d *Dashboard) PrevPage(ctx context.Context) error {
	return d.fetch.PrevPage(ctx)
}

// Reload fetches the active page again.
func (d *Dashboard) Reload(ctx context.Context) error {
	return d.fetch.Reload(ctx)
}

// StartEdit opens an edit session on a loaded trade.
func (d *Dashboard) StartEdit(id uint) error {
	t, ok := d.store.Find(id)
	if !ok {
		return fmt.Errorf("trade %d is not on the current page", id)
	}
	d.edit.Start(t)
	return nil
}

// CancelEdit closes the edit session without saving.
func (d *Dashboard) CancelEdit() {
	d.edit.Cancel()
}

// SaveEdit patches the edited trade.
func (d *Dashboard) SaveEdit(ctx context.Context) error {
	return d.edit.Save(ctx, d.store)
}

// SetDraftField updates one field of the new-trade form.
func (d *Dashboard) SetDraftField(f Field, value string) error {
	return d.draft.Set(f, value)
}

// Submit creates the drafted trade.
func (d *Dashboard) Submit(ctx context.Context) (*models.Trade, error) {
	return d.draft.Submit(ctx, d.store)
}

// Delete removes a trade.
func (d *Dashboard) Delete(ctx context.Context, id uint) error {
	return d.store.Delete(ctx, id)
}

// Snapshot copies the current state for rendering.
func (d *Dashboard) Snapshot() Snapshot {
	q := d.fetch.Query()
	loading, err := d.fetch.Status()
	view := d.store.View()
	pageSize := d.fetch.PageSize()
	maxPage := MaxPage(view.Total, pageSize)

	d.mu.RLock()
	codes := append([]string(nil), d.codes...)
	d.mu.RUnlock()

	editID, editDraft, editing := d.edit.Current()

	return Snapshot{
		TradeCode: q.TradeCode,
		Page:      q.Page,
		PageSize:  pageSize,
		MaxPage:   maxPage,
		HasPrev:   HasPrev(q.Page),
		HasNext:   HasNext(q.Page, view.Total, pageSize),
		Total:     view.Total,
		Items:     view.Items,
		Loading:   loading,
		Err:       err,
		Codes:     codes,
		Editing:   editing,
		EditingID: editID,
		EditDraft: editDraft,
		Draft:     d.draft.Draft(),
		Charts:    d.projector.Project(view.Version, view.Items),
	}
}

// Close tears the dashboard down. Requests still in flight run to completion
// but no longer change any state.
func (d *Dashboard) Close() {
	d.fetch.Close()
	d.store.Close()
	d.edit.Close()
	d.draft.Close()
}
