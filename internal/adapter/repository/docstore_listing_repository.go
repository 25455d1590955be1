package repository

import (
	"context"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/docstore"
	apperrors "foodshare/pkg/errors"
)

const listingsCollection = "listings"

type docstoreListingRepository struct {
	store docstore.Store
}

func NewDocstoreListingRepository(store docstore.Store) repository.ListingRepository {
	return &docstoreListingRepository{
		store: store,
	}
}

func (r *docstoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.store.Get(ctx, docstore.DocPath(listingsCollection, id))
	if err != nil {
		return nil, apperrors.FromStore(err, "Listing")
	}
	return listingFromDocument(doc), nil
}

func (r *docstoreListingRepository) ListByCategory(ctx context.Context, category string, limit int) ([]*entity.Listing, error) {
	q := docstore.From(listingsCollection).
		Where("category", docstore.OpEqual, category).
		Ordered("createdAt", docstore.Desc).
		Take(limit)
	return r.list(ctx, q)
}

func (r *docstoreListingRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Listing, error) {
	return r.list(ctx, docstore.From(listingsCollection).Ordered("createdAt", docstore.Desc).Take(limit))
}

func (r *docstoreListingRepository) list(ctx context.Context, q docstore.Query) ([]*entity.Listing, error) {
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, apperrors.FromStore(err, "Listings")
	}
	listings := make([]*entity.Listing, 0, len(docs))
	for _, doc := range docs {
		listings = append(listings, listingFromDocument(doc))
	}
	return listings, nil
}

func listingFromDocument(doc *docstore.Document) *entity.Listing {
	return &entity.Listing{
		ID:               doc.ID,
		Title:            doc.String("title"),
		Description:      doc.String("description"),
		Price:            doc.Float("price"),
		Quantity:         doc.Int("quantity"),
		Category:         doc.String("category"),
		ImageURLs:        doc.Strings("imageUrls"),
		ProducerID:       doc.String("producerId"),
		ProducerName:     doc.String("producerName"),
		ProducerPhotoURL: doc.String("producerPhotoURL"),
		Location:         doc.String("location"),
		PickupDetails:    doc.String("pickupDetails"),
		Status:           entity.ListingStatus(doc.String("status")),
		CreatedAt:        doc.Time("createdAt"),
		UpdatedAt:        doc.Time("updatedAt"),
	}
}
