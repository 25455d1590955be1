package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

type ListingRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	// ListByCategory filters and orders in the store (composite index).
	ListByCategory(ctx context.Context, category string, limit int) ([]*entity.Listing, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Listing, error)
}
