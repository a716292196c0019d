package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/storage"
)

func names(list []*domain.Strategy) []string {
	out := make([]string, len(list))
	for i, st := range list {
		out[i] = st.Name
	}
	return out
}

func TestListStrategies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.strategy(t, "", domain.StrategyCreateInput{UserID: "u1", Name: "alpha", MarketTypes: []string{domain.MarketTypeStocks}})
	beta := f.strategy(t, "", domain.StrategyCreateInput{UserID: "u1", Name: "Beta", MarketTypes: []string{domain.MarketTypeCrypto}})
	f.strategy(t, "", domain.StrategyCreateInput{UserID: "u2", Name: "gamma", MarketTypes: []string{domain.MarketTypeStocks}})

	require.NoError(t, f.strategies.PersistMetrics(ctx, alpha.ID, domain.MetricsRecord{TotalPnL: 10, WinRate: 80}))
	require.NoError(t, f.strategies.PersistMetrics(ctx, beta.ID, domain.MetricsRecord{TotalPnL: 50, WinRate: 20}))

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"default total pnl desc", ListOptions{UserID: "u1"}, []string{"Beta", "alpha"}},
		{"win rate desc", ListOptions{UserID: "u1", SortBy: domain.MetricWinRate}, []string{"alpha", "Beta"}},
		{"name asc ignores case", ListOptions{SortBy: SortByName, Ascending: true}, []string{"alpha", "Beta", "gamma"}},
		{"created desc", ListOptions{SortBy: SortByCreatedAt}, []string{"gamma", "Beta", "alpha"}},
		{"market filter", ListOptions{MarketType: domain.MarketTypeStocks, SortBy: SortByName, Ascending: true}, []string{"alpha", "gamma"}},
		{"unknown owner", ListOptions{UserID: "nobody"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.ListStrategies(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestListStrategies_RejectsUnknownSortKey(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListStrategies(context.Background(), ListOptions{SortBy: "color"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestValidSortKey(t *testing.T) {
	assert.True(t, ValidSortKey(""))
	assert.True(t, ValidSortKey(SortByName))
	assert.True(t, ValidSortKey(domain.MetricProfitFactor))
	assert.False(t, ValidSortKey("totalpnl"))
}
