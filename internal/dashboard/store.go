package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"trade-dashboard-go/internal/models"
	"trade-dashboard-go/internal/tradeapi"

	"go.uber.org/zap"
)

// ErrValidation marks a create request rejected locally, before any network call.
var ErrValidation = errors.New("validation failed")

// StoreView is a consistent copy of the loaded dataset.
// Items must be treated as read-only.
type StoreView struct {
	Total   int64
	Items   []models.Trade
	Version uint64
}

// TradeStore holds the currently loaded page and reconciles local mutations
// with the remote service. Every mutation is applied only after the service
// confirms it, and becomes a no-op once the store is closed.
type TradeStore struct {
	client tradeapi.RestClientInterface
	logger *zap.Logger

	mu      sync.RWMutex
	total   int64
	items   []models.Trade
	version uint64
	closed  bool
}

// NewTradeStore creates an empty store.
func NewTradeStore(client tradeapi.RestClientInterface, logger *zap.Logger) *TradeStore {
	return &TradeStore{
		client: client,
		logger: logger.Named("store"),
		items:  []models.Trade{},
	}
}

// View returns the current total and items. The items slice is replaced,
// never modified, on every change.
func (s *TradeStore) View() StoreView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreView{Total: s.total, Items: s.items, Version: s.version}
}

// Find returns the loaded record with the given identifier.
func (s *TradeStore) Find(id uint) (models.Trade, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.items {
		if t.ID == id {
			return t, true
		}
	}
	return models.Trade{}, false
}

// Replace swaps in a freshly fetched page, items and total together.
func (s *TradeStore) Replace(page models.TradePage) {
	items := make([]models.Trade, len(page.Items))
	copy(items, page.Items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.items = items
	s.total = page.Total
	s.version++
}

// Create validates and normalizes draft, sends it to the service and appends
// the created record to the end of the loaded page. The appended row is not
// re-sorted; the next fetch restores server order.
func (s *TradeStore) Create(ctx context.Context, draft TradeDraft) (*models.Trade, error) {
	payload, err := draft.Normalize()
	if err != nil {
		return nil, err
	}

	created, err := s.client.CreateTrade(ctx, payload)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Debug("Store closed, dropping created trade", zap.Uint("id", created.ID))
		return created, nil
	}
	items := make([]models.Trade, len(s.items), len(s.items)+1)
	copy(items, s.items)
	s.items = append(items, *created)
	s.total++
	s.version++

	s.logger.Info("Trade created", zap.Uint("id", created.ID), zap.String("trade_code", created.TradeCode))
	return created, nil
}

// Patch sends patch for id and, once accepted, merges the patched fields into
// the matching loaded record in place.
func (s *TradeStore) Patch(ctx context.Context, id uint, patch models.TradePatch) error {
	if _, err := s.client.PatchTrade(ctx, id, patch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	items := make([]models.Trade, len(s.items))
	copy(items, s.items)
	for i := range items {
		if items[i].ID == id {
			patch.Apply(&items[i])
		}
	}
	s.items = items
	s.version++

	s.logger.Info("Trade updated", zap.Uint("id", id))
	return nil
}

// Delete removes id on the service and then locally. The total is decremented
// even when the record is not on the loaded page, and never drops below zero.
func (s *TradeStore) Delete(ctx context.Context, id uint) error {
	if err := s.client.DeleteTrade(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	items := make([]models.Trade, 0, len(s.items))
	for _, t := range s.items {
		if t.ID != id {
			items = append(items, t)
		}
	}
	s.items = items
	if s.total > 0 {
		s.total--
	}
	s.version++

	s.logger.Info("Trade deleted", zap.Uint("id", id))
	return nil
}

// Close turns every later completion into a no-op.
func (s *TradeStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Field names a text input of the new-trade form.
type Field string

const (
	FieldDate      Field = "date"
	FieldTradeCode Field = "trade_code"
	FieldOpen      Field = "open"
	FieldHigh      Field = "high"
	FieldLow       Field = "low"
	FieldClose     Field = "close"
	FieldVolume    Field = "volume"
)

// Fields lists the form inputs in display order.
var Fields = []Field{FieldDate, FieldTradeCode, FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

// TradeDraft is a new trade as raw text.
type TradeDraft struct {
	Date      string `json:"date"`
	TradeCode string `json:"trade_code"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// Normalize trims the mandatory fields and parses the numeric ones.
func (d TradeDraft) Normalize() (models.NewTrade, error) {
	date := strings.TrimSpace(d.Date)
	code := strings.TrimSpace(d.TradeCode)
	if date == "" || code == "" {
		return models.NewTrade{}, fmt.Errorf("%w: date and trade_code are required", ErrValidation)
	}
	return models.NewTrade{
		Date:      date,
		TradeCode: code,
		Open:      ParseNumber(d.Open),
		High:      ParseNumber(d.High),
		Low:       ParseNumber(d.Low),
		Close:     ParseNumber(d.Close),
		Volume:    ParseVolume(d.Volume),
	}, nil
}

func (d *TradeDraft) field(f Field) (*string, bool) {
	switch f {
	case FieldDate:
		return &d.Date, true
	case FieldTradeCode:
		return &d.TradeCode, true
	case FieldOpen:
		return &d.Open, true
	case FieldHigh:
		return &d.High, true
	case FieldLow:
		return &d.Low, true
	case FieldClose:
		return &d.Close, true
	case FieldVolume:
		return &d.Volume, true
	}
	return nil, false
}

// Get returns the text of field f.
func (d TradeDraft) Get(f Field) string {
	if p, ok := d.field(f); ok {
		return *p
	}
	return ""
}
