package clickhouse

import "fmt"

// BarsTable is the daily bar table name.
const BarsTable = "etf_bars_daily"

// BarSchema returns the idempotent DDL for the daily bar table. Rows are
// deduplicated per (symbol, day) keeping the latest ingest.
func BarSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s
(
    day         Date,
    symbol      LowCardinality(String),
    close       Float64,
    volume      Float64,
    source      LowCardinality(String),
    ingested_at DateTime64(3) DEFAULT now64(3)
)
ENGINE = ReplacingMergeTree(ingested_at)
PARTITION BY toYYYYMM(day)
ORDER BY (symbol, day)`, database, BarsTable),
	}
}
