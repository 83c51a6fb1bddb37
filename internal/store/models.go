package store

import (
	"encoding/json"
	"time"
)

type Destination struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Country         string    `json:"country"`
	Heading         string    `json:"heading"`
	Overview        string    `json:"overview"`
	Description     string    `json:"description"`
	BestTimeToVisit string    `json:"bestTimeToVisit"`
	TravelTips      string    `json:"travelTips"`
	ImageURL        string    `json:"imageUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Package struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Day             int    `json:"day"`
	Night           int    `json:"night"`
	TourType        string `json:"tourType"`
	ToursID         *int64 `json:"toursId,omitempty"`
	DestinationID   int64  `json:"destinationId"`
	DestinationName string `json:"destination"`
}

// ItineraryDay is one entry of an itinerary's day-by-day plan.
type ItineraryDay struct {
	Day         int    `json:"day"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Meals       string `json:"meals"`
}

type Itinerary struct {
	ID         int64          `json:"id"`
	PackageID  int64          `json:"packageId"`
	Highlights []string       `json:"highlights"`
	Cities     []string       `json:"cities"`
	Days       []ItineraryDay `json:"itinerary"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// decode fills the JSONB-backed fields. NULL columns leave empty slices.
func (it *Itinerary) decode(highlights, cities, days []byte) error {
	it.Highlights, it.Cities, it.Days = []string{}, []string{}, []ItineraryDay{}
	for _, col := range []struct {
		raw  []byte
		dest any
	}{
		{highlights, &it.Highlights},
		{cities, &it.Cities},
		{days, &it.Days},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return err
		}
	}
	return nil
}
