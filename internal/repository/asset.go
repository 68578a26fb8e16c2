package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetAssetByTicker retrieves an Asset by its ticker.
func (db *Database) GetAssetByTicker(ctx context.Context, ticker string) (*Asset, error) {
	row, err := db.assets.getAssetByTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticker %s %w", ticker, ErrAssetNotFound)
		}
		return nil, err
	}
	return &Asset{
		ID:     int(row.id),
		Ticker: row.ticker,
		Name:   row.name,
		Type:   row.typ,
	}, nil
}
