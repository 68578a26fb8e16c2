// Package repository provides read-only market-data providers: a Postgres
// candle store queried through pgx, and a CSV file loader. The engine
// treats both as external collaborators — no caching or retrying happens
// here.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Global error declarations.
var (
	ErrIntervalNotSupported = errors.New("timeframe not supported")
	ErrAssetNotFound        = errors.New("not found in datasource")
	ErrNoCandles            = errors.New("no candles found in datasource")
)

// Asset is a tradable instrument row.
type Asset struct {
	ID     int
	Ticker string
	Name   string
	Type   string
}

type assetRow struct {
	id     int32
	ticker string
	name   string
	typ    string
}

type candleRow struct {
	bucket time.Time
	open   decimal.Decimal
	high   decimal.Decimal
	low    decimal.Decimal
	close  decimal.Decimal
	volume decimal.Decimal
}

type assetQuerier interface {
	getAssetByTicker(ctx context.Context, ticker string) (assetRow, error)
}

type candleQuerier interface {
	getAggregates(ctx context.Context, assetID int, bucket string, start, end time.Time) ([]candleRow, error)
}

// Database holds the connection pool and query implementations.
type Database struct {
	assets  assetQuerier
	candles candleQuerier
	pool    *pgxpool.Pool
}

// NewDatabase connects to the candle store and verifies connectivity. The
// shopspring decimal codec is registered on every connection so OHLCV
// columns scan directly into decimal.Decimal.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	q := &pgxQuerier{pool: pool}
	return &Database{assets: q, candles: q, pool: pool}, nil
}

// Close releases the connection pool.
func (db *Database) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

type pgxQuerier struct {
	pool *pgxpool.Pool
}

const assetByTickerSQL = `
SELECT id, ticker, name, type
FROM assets
WHERE ticker = $1`

func (q *pgxQuerier) getAssetByTicker(ctx context.Context, ticker string) (assetRow, error) {
	var row assetRow
	err := q.pool.QueryRow(ctx, assetByTickerSQL, ticker).
		Scan(&row.id, &row.ticker, &row.name, &row.typ)
	return row, err
}

const aggregatesSQL = `
SELECT time_bucket($1::interval, ts) AS bucket,
       first(open, ts)               AS open,
       max(high)                     AS high,
       min(low)                      AS low,
       last(close, ts)               AS close,
       sum(volume)                   AS volume
FROM candles
WHERE asset_id = $2 AND ts >= $3 AND ts < $4
GROUP BY bucket
ORDER BY bucket`

func (q *pgxQuerier) getAggregates(ctx context.Context, assetID int, bucket string, start, end time.Time) ([]candleRow, error) {
	rows, err := q.pool.Query(ctx, aggregatesSQL, bucket, assetID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []candleRow
	for rows.Next() {
		var row candleRow
		if err := rows.Scan(&row.bucket, &row.open, &row.high, &row.low, &row.close, &row.volume); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
