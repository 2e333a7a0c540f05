package dashboard

import (
	"sync"

	"trade-dashboard-go/internal/models"
)

// PricePoint is one sample of the close price line.
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// VolumePoint is one bar of the volume chart.
type VolumePoint struct {
	Date   string `json:"date"`
	Volume int64  `json:"volume"`
}

// Projection holds the chart series derived from the loaded page.
type Projection struct {
	Price  []PricePoint  `json:"price"`
	Volume []VolumePoint `json:"volume"`
}

// Project derives both chart series from items, in item order.
func Project(items []models.Trade) Projection {
	p := Projection{
		Price:  make([]PricePoint, 0, len(items)),
		Volume: make([]VolumePoint, 0, len(items)),
	}
	for _, t := range items {
		p.Price = append(p.Price, PricePoint{Date: t.Date, Close: t.Close})
		p.Volume = append(p.Volume, VolumePoint{Date: t.Date, Volume: t.Volume})
	}
	return p
}

// Projector memoizes Project on the store version, so an unchanged page keeps
// returning the same series.
type Projector struct {
	mu      sync.Mutex
	valid   bool
	version uint64
	last    Projection
}

// Project returns the cached projection when version matches the previous call.
func (p *Projector) Project(version uint64, items []models.Trade) Projection {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.valid && p.version == version {
		return p.last
	}
	p.last = Project(items)
	p.version = version
	p.valid = true
	return p.last
}
