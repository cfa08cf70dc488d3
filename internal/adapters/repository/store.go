// Package repository persists game price records.
package repository

import (
	"context"

	"github.com/okian/gamestore/internal/domain/model"
)

// Store provides read/write access to the games table.
type Store interface {
	// Games returns every record in stored order.
	Games(ctx context.Context) ([]model.GameRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// ReplaceAll swaps the table contents for records in one transaction.
	ReplaceAll(ctx context.Context, records []model.GameRecord) error

	Close() error
}
