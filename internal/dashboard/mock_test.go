package dashboard

import (
	"context"
	"testing"

	"trade-dashboard-go/internal/models"
	"trade-dashboard-go/internal/tradeapi"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockRestClient is a mock implementation of the RestClientInterface.
type MockRestClient struct {
	mock.Mock
}

func (m *MockRestClient) GetTradeCodes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	codes, _ := args.Get(0).([]string)
	return codes, args.Error(1)
}

func (m *MockRestClient) ListTrades(ctx context.Context, params tradeapi.ListParams) (*models.TradePage, error) {
	args := m.Called(ctx, params)
	page, _ := args.Get(0).(*models.TradePage)
	return page, args.Error(1)
}

func (m *MockRestClient) CreateTrade(ctx context.Context, trade models.NewTrade) (*models.Trade, error) {
	args := m.Called(ctx, trade)
	created, _ := args.Get(0).(*models.Trade)
	return created, args.Error(1)
}

func (m *MockRestClient) PatchTrade(ctx context.Context, id uint, patch models.TradePatch) (*models.Trade, error) {
	args := m.Called(ctx, id, patch)
	updated, _ := args.Get(0).(*models.Trade)
	return updated, args.Error(1)
}

func (m *MockRestClient) DeleteTrade(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

const testPageSize = 50

// listParams builds the request the fetch controller is expected to send.
func listParams(tradeCode string, page int) tradeapi.ListParams {
	return tradeapi.ListParams{
		TradeCode: tradeCode,
		Sort:      tradeapi.SortDate,
		Order:     tradeapi.OrderAsc,
		Limit:     testPageSize,
		Offset:    page * testPageSize,
	}
}

// tradePage builds a page holding trades with the given identifiers.
func tradePage(total int64, code string, ids ...uint) *models.TradePage {
	items := make([]models.Trade, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.Trade{
			ID:        id,
			Date:      "2020-01-01",
			TradeCode: code,
			Open:      10,
			High:      12,
			Low:       9,
			Close:     float64(id),
			Volume:    int64(id) * 100,
		})
	}
	return &models.TradePage{Total: total, Items: items}
}

func ids(items []models.Trade) []uint {
	out := make([]uint, 0, len(items))
	for _, t := range items {
		out = append(out, t.ID)
	}
	return out
}

// setupTest creates a dashboard backed by a fresh mock client.
func setupTest(t *testing.T) (*Dashboard, *MockRestClient) {
	t.Helper()
	mockClient := new(MockRestClient)
	d := New(mockClient, testPageSize, zap.NewNop())
	return d, mockClient
}

// loadPage seeds the dashboard with a page through a normal reload.
func loadPage(t *testing.T, d *Dashboard, m *MockRestClient, page *models.TradePage) {
	t.Helper()
	q := d.Fetcher().Query()
	m.On("ListTrades", mock.Anything, listParams(q.TradeCode, q.Page)).Return(page, nil).Once()
	if err := d.Reload(context.Background()); err != nil {
		t.Fatalf("seed reload failed: %v", err)
	}
}
