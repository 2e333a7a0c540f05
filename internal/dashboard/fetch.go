package dashboard

import (
	"context"
	"errors"
	"sync"

	"trade-dashboard-go/internal/tradeapi"

	"go.uber.org/zap"
)

// ErrSuperseded is returned by a fetch whose parameters were replaced by a
// newer request before its response arrived. Its result was discarded.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// Query is the active filter and page.
type Query struct {
	TradeCode string
	Page      int
}

// FetchController loads pages into a TradeStore. Each change of query bumps a
// generation counter; a response is applied only if its generation is still
// the latest, so the most recently requested query always wins regardless of
// the order in which responses arrive.
type FetchController struct {
	client   tradeapi.RestClientInterface
	store    *TradeStore
	logger   *zap.Logger
	pageSize int

	mu         sync.Mutex
	query      Query
	generation uint64
	cancel     context.CancelFunc
	loading    bool
	err        error
	closed     bool
}

// NewFetchController creates a controller filling store with pages of pageSize.
func NewFetchController(client tradeapi.RestClientInterface, store *TradeStore, pageSize int, logger *zap.Logger) *FetchController {
	return &FetchController{
		client:   client,
		store:    store,
		logger:   logger.Named("fetch"),
		pageSize: pageSize,
	}
}

// PageSize returns the fixed page size.
func (f *FetchController) PageSize() int {
	return f.pageSize
}

// Query returns the active query.
func (f *FetchController) Query() Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

// Status returns the loading flag and the last fetch error.
func (f *FetchController) Status() (loading bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading, f.err
}

// SetFilter switches the trade code filter and always goes back to page 0.
// An empty code means every code.
func (f *FetchController) SetFilter(ctx context.Context, tradeCode string) error {
	return f.update(ctx, func(q *Query) {
		q.TradeCode = tradeCode
		q.Page = 0
	})
}

// SetPage moves to page, which is clamped at 0 and below the largest page
// whose offset fits in an int.
func (f *FetchController) SetPage(ctx context.Context, page int) error {
	return f.update(ctx, func(q *Query) {
		q.Page = ClampPage(page, f.pageSize)
	})
}

// NextPage advances one page unless already on the last page.
func (f *FetchController) NextPage(ctx context.Context) error {
	return f.update(ctx, func(q *Query) {
		q.Page = min(q.Page+1, MaxPage(f.store.View().Total, f.pageSize))
	})
}

// PrevPage goes back one page unless already on the first.
func (f *FetchController) PrevPage(ctx context.Context) error {
	return f.update(ctx, func(q *Query) {
		q.Page = max(q.Page-1, 0)
	})
}

// Reload fetches the active query again.
func (f *FetchController) Reload(ctx context.Context) error {
	f.mu.Lock()
	gen, reqCtx, q, ok := f.begin(ctx)
	f.mu.Unlock()
	if !ok {
		return nil
	}
	return f.run(reqCtx, gen, q)
}

// Close cancels the in-flight request and ignores every later response.
func (f *FetchController) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.generation++
	f.loading = false
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// update applies change to the query and fetches if the query changed.
func (f *FetchController) update(ctx context.Context, change func(q *Query)) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	next := f.query
	change(&next)
	if next == f.query {
		f.mu.Unlock()
		return nil
	}
	f.query = next
	gen, reqCtx, q, ok := f.begin(ctx)
	f.mu.Unlock()
	if !ok {
		return nil
	}
	return f.run(reqCtx, gen, q)
}

// begin starts a new generation for the active query. Must hold f.mu.
func (f *FetchController) begin(ctx context.Context) (uint64, context.Context, Query, bool) {
	if f.closed {
		return 0, nil, Query{}, false
	}
	if f.cancel != nil {
		// Advisory only: the generation check decides what is applied.
		f.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.generation++
	f.loading = true
	f.err = nil
	return f.generation, reqCtx, f.query, true
}

func (f *FetchController) run(ctx context.Context, gen uint64, q Query) error {
	window := PageWindow(q.Page, f.pageSize)
	page, err := f.client.ListTrades(ctx, tradeapi.ListParams{
		TradeCode: q.TradeCode,
		Sort:      tradeapi.SortDate,
		Order:     tradeapi.OrderAsc,
		Limit:     window.Limit,
		Offset:    window.Offset,
	})

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		f.logger.Debug("Discarding stale response",
			zap.Uint64("generation", gen),
			zap.Uint64("current", f.generation),
			zap.String("trade_code", q.TradeCode),
			zap.Int("page", q.Page),
		)
		return ErrSuperseded
	}

	f.loading = false
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}

	if err != nil {
		f.logger.Warn("Failed to load trades", zap.Error(err), zap.String("trade_code", q.TradeCode), zap.Int("page", q.Page))
		f.err = err
		return err
	}

	f.store.Replace(*page)
	f.logger.Debug("Loaded trades",
		zap.String("trade_code", q.TradeCode),
		zap.Int("page", q.Page),
		zap.Int("items", len(page.Items)),
		zap.Int64("total", page.Total),
	)
	return nil
}
