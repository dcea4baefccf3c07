package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
	pkgch "ETFAdvisor/pkg/clickhouse"
)

func newMockStore(t *testing.T) (*ClickHouseBarStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewClickHouseBarStore(pkgch.NewClientWithDB(db, "etf"), "yahoo", nil), mock
}

func TestClickHouseBarStore_StoreBatchSkipsInvalid(t *testing.T) {
	store, mock := newMockStore(t)
	day := time.Date(2024, 3, 1, 5, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO etf.etf_bars_daily (day, symbol, close, volume, source) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)")).
		WithArgs(
			day.Truncate(24*time.Hour), "0050.TW", 150.5, 1000.0, "yahoo",
			day.Truncate(24*time.Hour), "0056.TW", 38.2, 0.0, "yahoo",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := store.StoreBatch(context.Background(), []models.PriceBar{
		{Symbol: "0050.TW", Time: day, Close: 150.5, Volume: 1000},
		{Symbol: "", Time: day, Close: 10},
		{Symbol: "00878.TW", Time: day, Close: 0},
		{Symbol: "0056.TW", Time: day, Close: 38.2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseBarStore_StoreBatchEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	require.NoError(t, store.StoreBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseBarStore_StoreBatchError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("too many parts"))

	err := store.StoreBatch(context.Background(), []models.PriceBar{{Symbol: "0050.TW", Time: time.Now(), Close: 1}})
	assert.ErrorContains(t, err, "too many parts")
}

func TestClickHouseBarStore_FetchSeriesOldestFirst(t *testing.T) {
	store, mock := newMockStore(t)
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 3)

	rows := sqlmock.NewRows([]string{"day", "symbol", "close", "volume"}).
		AddRow(d2, "0050.TW", 152.0, 900.0).
		AddRow(d1, "0050.TW", 150.0, 1000.0)
	mock.ExpectQuery("SELECT day, symbol").WithArgs("0050.TW", 22).WillReturnRows(rows)

	series, err := store.FetchSeries(context.Background(), "0050.TW", domrepo.Range1mo)
	require.NoError(t, err)
	require.Len(t, series.Bars, 2)
	assert.True(t, series.Bars[0].Time.Equal(d1))
	assert.Equal(t, 152.0, series.Bars[1].Close)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseBarStore_FetchSeriesEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT day, symbol").WillReturnRows(sqlmock.NewRows([]string{"day", "symbol", "close", "volume"}))

	_, err := store.FetchSeries(context.Background(), "0055.TW", domrepo.Range1y)
	assert.Error(t, err)
}
