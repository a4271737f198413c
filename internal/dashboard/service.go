// Package dashboard aggregates counters and revenue figures for the home
// screen. Results are cached in Redis for a short window since every page
// load hits them.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/facturio/facturio/internal/platform/cache"
)

const (
	statsCacheKey = "dashboard:stats"
	statsCacheTTL = 2 * time.Minute

	revenueCacheKey = "dashboard:revenue"
	revenueCacheTTL = 10 * time.Minute
)

// Stats is the headline block: entity counters, proforma and invoice status
// breakdowns, and outstanding amounts.
type Stats struct {
	Clients   int64         `json:"clients"`
	Products  int64         `json:"products"`
	Proformas StatusCounts  `json:"proformas"`
	Invoices  InvoiceCounts `json:"invoices"`
}

type StatusCounts struct {
	Total    int64 `json:"total"`
	Draft    int64 `json:"draft"`
	Sent     int64 `json:"sent"`
	Accepted int64 `json:"accepted"`
	Refused  int64 `json:"refused"`
	Expired  int64 `json:"expired"`
	Invoiced int64 `json:"invoiced"`
}

type InvoiceCounts struct {
	Total        int64   `json:"total"`
	Draft        int64   `json:"draft"`
	Sent         int64   `json:"sent"`
	Paid         int64   `json:"paid"`
	Partial      int64   `json:"partial"`
	Overdue      int64   `json:"overdue"`
	Cancelled    int64   `json:"cancelled"`
	TotalPaid    float64 `json:"total_paid"`
	TotalPending float64 `json:"total_pending"`
}

// MonthRevenue is one point of the twelve month revenue series.
type MonthRevenue struct {
	Month   string  `json:"month"`
	Year    int     `json:"year"`
	Revenue float64 `json:"revenue"`
}

// StatsSource runs the aggregate queries.
type StatsSource interface {
	CollectStats(ctx context.Context) (*Stats, error)
	MonthlyRevenue(ctx context.Context, months int) ([]MonthRevenue, error)
}

type Service struct {
	source StatsSource
	cache  *redis.Client
}

// NewService constructs the dashboard service. The cache client may be nil;
// stats are then computed on every call.
func NewService(source StatsSource, cacheClient *redis.Client) *Service {
	return &Service{source: source, cache: cacheClient}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if s.cache != nil {
		var cached Stats
		if hit, err := cache.GetJSON(ctx, s.cache, statsCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	stats, err := s.source.CollectStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect dashboard stats: %w", err)
	}

	if s.cache != nil {
		_ = cache.SetJSON(ctx, s.cache, statsCacheKey, stats, statsCacheTTL)
	}
	return stats, nil
}

// Revenue returns the paid revenue per month over the trailing twelve
// months.
func (s *Service) Revenue(ctx context.Context) ([]MonthRevenue, error) {
	if s.cache != nil {
		var cached []MonthRevenue
		if hit, err := cache.GetJSON(ctx, s.cache, revenueCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	series, err := s.source.MonthlyRevenue(ctx, 12)
	if err != nil {
		return nil, fmt.Errorf("collect revenue series: %w", err)
	}

	if s.cache != nil {
		_ = cache.SetJSON(ctx, s.cache, revenueCacheKey, series, revenueCacheTTL)
	}
	return series, nil
}

// Invalidate clears the cached blocks after document mutations.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, statsCacheKey, revenueCacheKey)
}
