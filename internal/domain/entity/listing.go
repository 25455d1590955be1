package entity

import "time"

type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingSold      ListingStatus = "sold"
	ListingPending   ListingStatus = "pending"
)

// Listing is the read-side view of a marketplace item.
type Listing struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Price            float64       `json:"price"`
	Quantity         int           `json:"quantity"`
	Category         string        `json:"category"`
	ImageURLs        []string      `json:"image_urls"`
	ProducerID       string        `json:"producer_id"`
	ProducerName     string        `json:"producer_name"`
	ProducerPhotoURL string        `json:"producer_photo_url,omitempty"`
	Location         string        `json:"location,omitempty"`
	PickupDetails    string        `json:"pickup_details"`
	Status           ListingStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (l *Listing) Available() bool {
	return l.Status == ListingAvailable
}
