package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/imagesearch"
	"github.com/af-corp/tourdesk/internal/prompt"
	"github.com/af-corp/tourdesk/internal/schema"
	"github.com/af-corp/tourdesk/internal/store"
	"github.com/af-corp/tourdesk/internal/types"
)

type ItineraryRequest struct {
	PackageID int64 `json:"packageId"`
	IsEdit    bool  `json:"isEdit"`
}

type DayEntry = store.ItineraryDay

type ItineraryPayload struct {
	Highlights []string   `json:"highlights"`
	Cities     []string   `json:"cities"`
	Itinerary  []DayEntry `json:"itinerary"`
}

type ItineraryResult struct {
	Highlights []string   `json:"highlights"`
	Cities     []string   `json:"cities"`
	Itinerary  []DayEntry `json:"itinerary"`
}

func NewItineraryPipeline(deps Deps) *Pipeline[ItineraryRequest, ItineraryPayload, ItineraryResult] {
	return NewPipeline(Flow[ItineraryRequest, ItineraryPayload, ItineraryResult]{
		Kind:          types.EntityItinerary,
		RequestSchema: itineraryRequestSchema,
		Model:         func(c config.GenerationConfig) string { return c.ItineraryModel },

		Lookup: func(ctx context.Context, req ItineraryRequest) (any, error) {
			if req.IsEdit {
				return nil, nil
			}
			it, err := deps.Store.FindItineraryByPackage(ctx, req.PackageID)
			if err != nil || it == nil {
				return nil, err
			}
			return it, nil
		},

		Prepare: func(ctx context.Context, req ItineraryRequest) (Plan, error) {
			pkg, err := deps.Store.GetPackage(ctx, req.PackageID)
			if errors.Is(err, store.ErrNotFound) {
				return Plan{}, &Error{Kind: KindNotFound, Message: "Package not found", Err: err}
			}
			if err != nil {
				return Plan{}, err
			}

			instructions, err := prompt.Itinerary(prompt.ItineraryInput{
				PackageName: pkg.Name,
				Destination: pkg.DestinationName,
				Days:        pkg.Day,
				Nights:      pkg.Night,
				TourType:    pkg.TourType,
			})
			if err != nil {
				return Plan{}, err
			}
			return Plan{
				Prompt: instructions,
				Schema: itineraryResponseSchema(pkg.Day),
				Inputs: map[string]string{
					"packageName": pkg.Name,
					"destination": pkg.DestinationName,
					"tourType":    pkg.TourType,
				},
			}, nil
		},

		Check: func(_ ItineraryRequest, p ItineraryPayload) []schema.Issue {
			var issues []schema.Issue
			for i, d := range p.Itinerary {
				if d.Day != i+1 {
					issues = append(issues, schema.Issue{
						Field:   fmt.Sprintf("itinerary.%d.day", i),
						Message: fmt.Sprintf("expected day %d, got %d", i+1, d.Day),
						Code:    "day_sequence",
					})
				}
			}
			return issues
		},

		Shape: func(_ ItineraryRequest, p ItineraryPayload, _ *imagesearch.Image) ItineraryResult {
			days := make([]DayEntry, 0, len(p.Itinerary))
			for _, d := range p.Itinerary {
				days = append(days, DayEntry{
					Day:         d.Day,
					Title:       strings.TrimSpace(d.Title),
					Description: strings.TrimSpace(d.Description),
					Meals:       strings.TrimSpace(d.Meals),
				})
			}
			return ItineraryResult{
				Highlights: trimAll(p.Highlights),
				Cities:     trimAll(p.Cities),
				Itinerary:  days,
			}
		},
	}, deps)
}
