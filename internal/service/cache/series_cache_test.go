package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/domain/repository"
	pkgcache "ETFAdvisor/pkg/cache"
)

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) FetchSeries(_ context.Context, symbol string, _ repository.HistoryRange) (models.PriceSeries, error) {
	s.calls++
	if s.err != nil {
		return models.PriceSeries{}, s.err
	}
	return models.PriceSeries{
		Symbol: symbol,
		Bars: []models.PriceBar{
			{Symbol: symbol, Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Close: 150, Volume: 1000},
		},
	}, nil
}

func TestSeriesCache_ServesSecondCallFromCache(t *testing.T) {
	src := &countingSource{}
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer mem.Close()
	c := NewSeriesCache(src, mem, time.Minute, nil)

	first, err := c.FetchSeries(context.Background(), "0050.TW", repository.Range1y)
	require.NoError(t, err)
	second, err := c.FetchSeries(context.Background(), "0050.TW", repository.Range1y)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first.Symbol, second.Symbol)
	require.Len(t, second.Bars, 1)
	assert.True(t, first.Bars[0].Time.Equal(second.Bars[0].Time))

	_, err = c.FetchSeries(context.Background(), "0050.TW", repository.Range1mo)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "range is part of the key")
}

func TestSeriesCache_ErrorsAreNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("upstream down")}
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer mem.Close()
	c := NewSeriesCache(src, mem, time.Minute, nil)

	_, err := c.FetchSeries(context.Background(), "0056.TW", repository.Range1y)
	require.Error(t, err)
	_, err = c.FetchSeries(context.Background(), "0056.TW", repository.Range1y)
	require.Error(t, err)
	assert.Equal(t, 2, src.calls)
}
