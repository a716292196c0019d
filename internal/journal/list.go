package journal

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/storage"
)

// Sort keys accepted by ListStrategies besides the metrics record fields.
const (
	SortByName      = "name"
	SortByCreatedAt = "createdAt"
)

// ListOptions filters and orders a strategy listing.
type ListOptions struct {
	UserID     string // empty lists every owner
	MarketType string // empty disables the filter
	SortBy     string // name, createdAt or a metrics field; default totalPnL
	Ascending  bool
}

// ValidSortKey reports whether key can be used as ListOptions.SortBy.
func ValidSortKey(key string) bool {
	if key == "" || key == SortByName || key == SortByCreatedAt {
		return true
	}
	_, ok := domain.MetricsRecord{}.Field(key)
	return ok
}

// ListStrategies returns the strategies matching opts.
// Strategies with equal sort values keep the store order (newest first).
func (s *Service) ListStrategies(ctx context.Context, opts ListOptions) ([]*domain.Strategy, error) {
	if !ValidSortKey(opts.SortBy) {
		return nil, fmt.Errorf("sort by %q: %w", opts.SortBy, storage.ErrInvalidInput)
	}

	all, err := s.strategies.ListByUser(ctx, opts.UserID)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}

	out := make([]*domain.Strategy, 0, len(all))
	for _, st := range all {
		if opts.MarketType != "" && !st.HasMarketType(opts.MarketType) {
			continue
		}
		out = append(out, st)
	}

	sortStrategies(out, opts.SortBy, opts.Ascending)
	return out, nil
}

func sortStrategies(list []*domain.Strategy, key string, ascending bool) {
	if key == "" {
		key = domain.MetricTotalPnL
	}

	var less func(a, b *domain.Strategy) bool
	switch key {
	case SortByName:
		less = func(a, b *domain.Strategy) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case SortByCreatedAt:
		less = func(a, b *domain.Strategy) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	default:
		less = func(a, b *domain.Strategy) bool {
			av, _ := a.Metrics.Field(key)
			bv, _ := b.Metrics.Field(key)
			return av < bv
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		if ascending {
			return less(list[i], list[j])
		}
		return less(list[j], list[i])
	})
}
