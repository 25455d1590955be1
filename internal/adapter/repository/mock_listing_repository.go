package repository

import (
	"context"
	"time"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	apperrors "foodshare/pkg/errors"
)

// mockListingRepository serves a fixed catalogue when the real store
// refuses reads (access rules, connectivity).
type mockListingRepository struct {
	listings []*entity.Listing
}

func NewMockListingRepository() repository.ListingRepository {
	return &mockListingRepository{listings: mockListings(time.Now().UTC())}
}

func (r *mockListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	for _, l := range r.listings {
		if l.ID == id {
			copied := *l
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("Listing", nil)
}

func (r *mockListingRepository) ListByCategory(ctx context.Context, category string, limit int) ([]*entity.Listing, error) {
	var out []*entity.Listing
	for _, l := range r.listings {
		if l.Category == category {
			copied := *l
			out = append(out, &copied)
		}
	}
	return truncateListings(out, limit), nil
}

func (r *mockListingRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Listing, error) {
	out := make([]*entity.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		copied := *l
		out = append(out, &copied)
	}
	return truncateListings(out, limit), nil
}

func truncateListings(listings []*entity.Listing, limit int) []*entity.Listing {
	if limit > 0 && len(listings) > limit {
		return listings[:limit]
	}
	return listings
}

func mockListings(now time.Time) []*entity.Listing {
	ago := func(hours int) time.Time { return now.Add(-time.Duration(hours) * time.Hour) }
	return []*entity.Listing{
		{
			ID:               "mock-1",
			Title:            "Grandma's Famous Chocolate Chip Cookies",
			Description:      "Made with love using a 50-year-old family recipe. These cookies are soft, chewy, and loaded with premium chocolate chips. Perfect for any occasion or just a sweet treat!",
			Price:            15,
			Quantity:         24,
			Category:         "dessert",
			ImageURLs:        []string{"/chocolate-chip-cookies.png", "/close-up-chocolate-chip-cookies.png"},
			ProducerID:       "mock-user",
			ProducerName:     "Sarah's Kitchen",
			ProducerPhotoURL: "/woman-chef-preparing-food.png",
			Location:         "Downtown Brooklyn",
			PickupDetails:    "Available for pickup weekdays after 5pm and weekends 10am-6pm. Please message 30 minutes before pickup.",
			Status:           entity.ListingAvailable,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:            "mock-2",
			Title:         "Authentic Italian Lasagna",
			Description:   "Traditional family recipe passed down through generations. Made with fresh pasta, homemade marinara sauce, ricotta, mozzarella, and ground beef. Serves 6-8 people.",
			Price:         35,
			Quantity:      1,
			Category:      "meal",
			ImageURLs:     []string{"/homemade-lasagna.png"},
			ProducerID:    "mock-user-2",
			ProducerName:  "Nonna Maria's Kitchen",
			Location:      "Little Italy, Manhattan",
			PickupDetails: "Best served fresh within 2 hours of pickup. Can be reheated. Available Tuesday-Sunday.",
			Status:        entity.ListingAvailable,
			CreatedAt:     ago(2),
			UpdatedAt:     ago(2),
		},
		{
			ID:            "mock-3",
			Title:         "Fresh Banana Bread Loaf",
			Description:   "Moist and delicious banana bread made with overripe bananas, walnuts, and a hint of cinnamon. No preservatives or artificial ingredients. Perfect for breakfast or snacking.",
			Price:         12,
			Quantity:      2,
			Category:      "baked goods",
			ImageURLs:     []string{"/banana-bread-loaf.jpg"},
			ProducerID:    "mock-user-3",
			ProducerName:  "Baker's Delight",
			Location:      "Park Slope, Brooklyn",
			PickupDetails: "Available all day. Best consumed within 3 days. Can be frozen for longer storage.",
			Status:        entity.ListingAvailable,
			CreatedAt:     ago(4),
			UpdatedAt:     ago(4),
		},
		{
			ID:            "mock-4",
			Title:         "Spicy Thai Green Curry",
			Description:   "Authentic Thai green curry with coconut milk, fresh vegetables, and your choice of protein. Made with homemade curry paste and fresh herbs. Medium spice level.",
			Price:         18,
			Quantity:      3,
			Category:      "meal",
			ImageURLs:     []string{"/thai-curry-bowl.jpg"},
			ProducerID:    "mock-user-4",
			ProducerName:  "Thai Kitchen NYC",
			Location:      "Chinatown, Manhattan",
			PickupDetails: "Ready for pickup after 6pm. Stays hot for 2 hours. Rice included. Specify protein preference when ordering.",
			Status:        entity.ListingAvailable,
			CreatedAt:     ago(6),
			UpdatedAt:     ago(6),
		},
		{
			ID:            "mock-5",
			Title:         "Artisan Sourdough Bread",
			Description:   "Hand-crafted sourdough bread with a perfect golden crust and soft, airy interior. Made with wild yeast starter that's been maintained for over 5 years. 24-hour fermentation process.",
			Price:         8,
			Quantity:      4,
			Category:      "baked goods",
			ImageURLs:     []string{"/rustic-sourdough-loaf.png"},
			ProducerID:    "mock-user-5",
			ProducerName:  "Artisan Bread Co.",
			Location:      "Williamsburg, Brooklyn",
			PickupDetails: "Fresh daily at 2pm. Best consumed within 3 days. Can provide slicing upon request.",
			Status:        entity.ListingAvailable,
			CreatedAt:     ago(8),
			UpdatedAt:     ago(8),
		},
		{
			ID:            "mock-6",
			Title:         "Nutritious Vegan Buddha Bowl",
			Description:   "Colorful and nutritious bowl with quinoa, roasted sweet potatoes, avocado, chickpeas, kale, and homemade tahini dressing. Completely plant-based and gluten-free.",
			Price:         14,
			Quantity:      5,
			Category:      "healthy",
			ImageURLs:     []string{"/vegan-buddha-bowl.png"},
			ProducerID:    "mock-user-6",
			ProducerName:  "Green Eats",
			Location:      "East Village, Manhattan",
			PickupDetails: "Available lunch hours 11am-3pm. Dressing served on the side. Perfect for meal prep.",
			Status:        entity.ListingAvailable,
			CreatedAt:     ago(10),
			UpdatedAt:     ago(10),
		},
	}
}
