package tradeapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"trade-dashboard-go/internal/config"
	"trade-dashboard-go/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	tradeCodesPath = "/api/trade-codes"
	tradesPath     = "/api/trades"

	// RequestIDHeader correlates a client request with the server's log line.
	RequestIDHeader = "X-Request-ID"

	SortDate   = "date"
	SortClose  = "close"
	SortVolume = "volume"
	OrderAsc   = "asc"
	OrderDesc  = "desc"
)

// RestClientInterface defines the interface for the trade service REST client.
type RestClientInterface interface {
	GetTradeCodes(ctx context.Context) ([]string, error)
	ListTrades(ctx context.Context, params ListParams) (*models.TradePage, error)
	CreateTrade(ctx context.Context, trade models.NewTrade) (*models.Trade, error)
	PatchTrade(ctx context.Context, id uint, patch models.TradePatch) (*models.Trade, error)
	DeleteTrade(ctx context.Context, id uint) error
}

// ListParams selects one page of the filtered, sorted trade collection.
// Empty strings and a zero Limit are omitted from the query.
type ListParams struct {
	TradeCode string
	DateFrom  string
	DateTo    string
	Sort      string
	Order     string
	Limit     int
	Offset    int
}

func (p ListParams) query() map[string]string {
	q := map[string]string{"offset": strconv.Itoa(p.Offset)}
	if p.TradeCode != "" {
		q["trade_code"] = p.TradeCode
	}
	if p.DateFrom != "" {
		q["date_from"] = p.DateFrom
	}
	if p.DateTo != "" {
		q["date_to"] = p.DateTo
	}
	if p.Sort != "" {
		q["sort"] = p.Sort
	}
	if p.Order != "" {
		q["order"] = p.Order
	}
	if p.Limit > 0 {
		q["limit"] = strconv.Itoa(p.Limit)
	}
	return q
}

// APIError is returned when the service answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %s: %s", e.Status, e.Body)
}

// RestClient is a client for the trade service REST API.
// It implements the RestClientInterface.
type RestClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RestClient implements the interface
var _ RestClientInterface = (*RestClient)(nil)

// NewRestClient creates a new trade service REST API client.
func NewRestClient(cfg *config.API, logger *zap.Logger) *RestClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	logger.Info("Using trade service", zap.String("base_url", cfg.BaseURL))

	return &RestClient{
		client:  client,
		logger:  logger.Named("tradeapi"),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// doRequest executes a request exactly once. Failures are never retried here;
// every retry is left to the caller.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	requestID := uuid.NewString()
	req.SetContext(ctx).SetHeader(RequestIDHeader, requestID)

	c.logger.Debug("Executing request",
		zap.String("method", method),
		zap.String("url", c.client.BaseURL+url),
		zap.String("request_id", requestID),
	)

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, url, err)
	}
	if resp.IsError() {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       resp.String(),
		}
	}
	return resp, nil
}

// GetTradeCodes fetches the distinct trade codes known to the service.
func (c *RestClient) GetTradeCodes(ctx context.Context) ([]string, error) {
	var codes []string

	req := c.client.R().SetResult(&codes)
	if _, err := c.doRequest(ctx, http.MethodGet, tradeCodesPath, req); err != nil {
		return nil, fmt.Errorf("failed to get trade codes: %w", err)
	}
	return codes, nil
}

// ListTrades fetches one page of trades.
func (c *RestClient) ListTrades(ctx context.Context, params ListParams) (*models.TradePage, error) {
	var page models.TradePage

	req := c.client.R().
		SetQueryParams(params.query()).
		SetResult(&page)
	if _, err := c.doRequest(ctx, http.MethodGet, tradesPath, req); err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	if page.Items == nil {
		page.Items = []models.Trade{}
	}
	return &page, nil
}

// CreateTrade stores a new trade and returns it with its assigned identifier.
func (c *RestClient) CreateTrade(ctx context.Context, trade models.NewTrade) (*models.Trade, error) {
	var created models.Trade

	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(trade).
		SetResult(&created)
	if _, err := c.doRequest(ctx, http.MethodPost, tradesPath, req); err != nil {
		c.logger.Error("Failed to create trade", zap.Error(err), zap.String("trade_code", trade.TradeCode))
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}
	return &created, nil
}

// PatchTrade updates the editable fields of a trade.
func (c *RestClient) PatchTrade(ctx context.Context, id uint, patch models.TradePatch) (*models.Trade, error) {
	var updated models.Trade

	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(patch).
		SetResult(&updated)
	if _, err := c.doRequest(ctx, http.MethodPatch, tradePath(id), req); err != nil {
		c.logger.Error("Failed to patch trade", zap.Error(err), zap.Uint("id", id))
		return nil, fmt.Errorf("failed to patch trade %d: %w", id, err)
	}
	return &updated, nil
}

// DeleteTrade removes a trade by identifier.
func (c *RestClient) DeleteTrade(ctx context.Context, id uint) error {
	if _, err := c.doRequest(ctx, http.MethodDelete, tradePath(id), c.client.R()); err != nil {
		c.logger.Error("Failed to delete trade", zap.Error(err), zap.Uint("id", id))
		return fmt.Errorf("failed to delete trade %d: %w", id, err)
	}
	return nil
}

func tradePath(id uint) string {
	return tradesPath + "/" + strconv.FormatUint(uint64(id), 10)
}
