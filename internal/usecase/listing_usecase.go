package usecase

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

// Upper bound for the unfiltered read used when a filtered query lacks
// its index.
const listingScanLimit = 100

type ListingUseCase struct {
	listingRepo  repository.ListingRepository
	fallbackRepo repository.ListingRepository
	timeout      time.Duration
}

func NewListingUseCase(listingRepo, fallbackRepo repository.ListingRepository, timeout time.Duration) *ListingUseCase {
	return &ListingUseCase{
		listingRepo:  listingRepo,
		fallbackRepo: fallbackRepo,
		timeout:      timeout,
	}
}

// ListingResult carries Degraded when the listings came from the fallback
// catalogue instead of the store.
type ListingResult struct {
	Listings []*entity.Listing `json:"listings"`
	Degraded bool              `json:"degraded"`
}

// List returns available listings, newest first. An empty category means
// all categories.
func (uc *ListingUseCase) List(ctx context.Context, category string, limit int) (*ListingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	listings, err := uc.list(ctx, uc.listingRepo, category, limit)
	if err == nil {
		return &ListingResult{Listings: listings}, nil
	}
	if !degradable(err) {
		log.Printf("ListListings Error: category=%s: %v", category, err)
		return nil, err
	}

	logger.Warn("ListListings: store unavailable, serving fallback listings: %v", err)
	listings, err = uc.list(ctx, uc.fallbackRepo, category, limit)
	if err != nil {
		return nil, err
	}
	return &ListingResult{Listings: listings, Degraded: true}, nil
}

func (uc *ListingUseCase) list(ctx context.Context, repo repository.ListingRepository, category string, limit int) ([]*entity.Listing, error) {
	if category == "" {
		listings, err := repo.ListRecent(ctx, listingScanLimit)
		if err != nil {
			return nil, err
		}
		return availableListings(listings, "", limit), nil
	}

	listings, err := repo.ListByCategory(ctx, category, listingScanLimit)
	if errors.Is(err, errors.CodeIndexRequired) {
		logger.Warn("ListListings: missing index for category query, filtering client-side")
		listings, err = repo.ListRecent(ctx, listingScanLimit)
	}
	if err != nil {
		return nil, err
	}
	return availableListings(listings, category, limit), nil
}

func (uc *ListingUseCase) Get(ctx context.Context, id string) (*entity.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err == nil {
		return listing, nil
	}
	if !degradable(err) {
		return nil, err
	}

	logger.Warn("GetListing: store unavailable, looking up fallback listing %s: %v", id, err)
	return uc.fallbackRepo.GetByID(ctx, id)
}

// Search matches term against title and description of available listings.
func (uc *ListingUseCase) Search(ctx context.Context, term string, limit int) (*ListingResult, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, errors.BadRequest("Search term is required", nil)
	}

	result, err := uc.List(ctx, "", listingScanLimit)
	if err != nil {
		return nil, err
	}

	matched := make([]*entity.Listing, 0)
	for _, l := range result.Listings {
		if strings.Contains(strings.ToLower(l.Title), term) || strings.Contains(strings.ToLower(l.Description), term) {
			matched = append(matched, l)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return &ListingResult{Listings: matched, Degraded: result.Degraded}, nil
}

func degradable(err error) bool {
	return errors.Is(err, errors.CodePermissionDenied) || errors.Is(err, errors.CodeUnavailable)
}

func availableListings(listings []*entity.Listing, category string, limit int) []*entity.Listing {
	out := make([]*entity.Listing, 0, len(listings))
	for _, l := range listings {
		if !l.Available() {
			continue
		}
		if category != "" && l.Category != category {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
