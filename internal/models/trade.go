package models

// Trade represents a daily OHLCV record for one trade code.
// The identifier is assigned by the server and never changes.
type Trade struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Date      string  `gorm:"index;not null" json:"date"`
	TradeCode string  `gorm:"index;not null" json:"trade_code"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// NewTrade is the create payload: every trade field except the identifier.
type NewTrade struct {
	Date      string  `json:"date"`
	TradeCode string  `json:"trade_code"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// Trade converts the payload into a record without an identifier.
func (n NewTrade) Trade() Trade {
	return Trade{
		Date:      n.Date,
		TradeCode: n.TradeCode,
		Open:      n.Open,
		High:      n.High,
		Low:       n.Low,
		Close:     n.Close,
		Volume:    n.Volume,
	}
}

// TradePatch carries the fields that may be edited in place.
// Nil fields are left untouched.
type TradePatch struct {
	Close  *float64 `json:"close,omitempty"`
	Volume *int64   `json:"volume,omitempty"`
}

// Apply merges the patched fields into t.
func (p TradePatch) Apply(t *Trade) {
	if p.Close != nil {
		t.Close = *p.Close
	}
	if p.Volume != nil {
		t.Volume = *p.Volume
	}
}

// TradePage is one page of a filtered, sorted trade listing.
// Total counts every record matching the filter, not just Items.
type TradePage struct {
	Total int64   `json:"total"`
	Items []Trade `json:"items"`
}
