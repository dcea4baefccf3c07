package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/domain/repository"
	pkgch "ETFAdvisor/pkg/clickhouse"
	applogger "ETFAdvisor/pkg/logger"
)

const insertChunk = 2000

// ClickHouseBarStore keeps daily bars in ClickHouse. It doubles as a market
// data source that serves the latest stored history.
type ClickHouseBarStore struct {
	db     *sql.DB
	table  string
	source string
	l      *applogger.Logger
}

var (
	_ repository.BarStore         = (*ClickHouseBarStore)(nil)
	_ repository.MarketDataSource = (*ClickHouseBarStore)(nil)
)

// NewClickHouseBarStore creates a bar store. source labels inserted rows.
func NewClickHouseBarStore(ch *pkgch.Client, source string, l *applogger.Logger) *ClickHouseBarStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseBarStore{
		db:     ch.DB(),
		table:  ch.Database() + "." + pkgch.BarsTable,
		source: source,
		l:      l,
	}
}

// StoreBatch inserts bars in multi-row chunks. Bars without a symbol or a
// usable close are skipped.
func (s *ClickHouseBarStore) StoreBatch(ctx context.Context, bars []models.PriceBar) error {
	for start := 0; start < len(bars); start += insertChunk {
		end := start + insertChunk
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, b := range bars[start:end] {
			if b.Symbol == "" || !b.Valid() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, b.Time.UTC().Truncate(24*time.Hour), b.Symbol, b.Close, b.Volume, s.source)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (day, symbol, close, volume, source) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert bars error", applogger.String("table", s.table), applogger.Int("rows", len(values)), applogger.Error(err))
			return fmt.Errorf("insert bars: %w", err)
		}
	}
	return nil
}

// LatestN returns up to n of the most recent bars of symbol, oldest first.
func (s *ClickHouseBarStore) LatestN(ctx context.Context, symbol string, n int) ([]models.PriceBar, error) {
	start := time.Now()
	q := fmt.Sprintf(`SELECT day, symbol, argMax(close, ingested_at), argMax(volume, ingested_at)
        FROM %s
        WHERE symbol = ?
        GROUP BY day, symbol
        ORDER BY day DESC
        LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		s.l.Error("clickhouse latest_bars query error", applogger.String("symbol", symbol), applogger.Int("limit", n), applogger.Error(err))
		return nil, fmt.Errorf("latest bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, n)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Time, &b.Symbol, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	s.l.Debug("clickhouse latest_bars ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)))
	return out, nil
}

// FetchSeries serves the stored history sized for rng.
func (s *ClickHouseBarStore) FetchSeries(ctx context.Context, symbol string, rng repository.HistoryRange) (models.PriceSeries, error) {
	bars, err := s.LatestN(ctx, symbol, rng.TradingDays())
	if err != nil {
		return models.PriceSeries{}, err
	}
	if len(bars) == 0 {
		return models.PriceSeries{}, fmt.Errorf("no stored bars for %s", symbol)
	}
	return models.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

func (s *ClickHouseBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseBarStore) Close() error {
	return nil
}
