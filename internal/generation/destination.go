package generation

import (
	"context"
	"strings"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/imagesearch"
	"github.com/af-corp/tourdesk/internal/prompt"
	"github.com/af-corp/tourdesk/internal/types"
)

type DestinationRequest struct {
	Destination   string `json:"destination"`
	IsEdit        bool   `json:"isEdit"`
	IsImageChange bool   `json:"isImageChange"`
}

type DestinationPayload struct {
	Name            string `json:"name"`
	Country         string `json:"country"`
	Heading         string `json:"heading"`
	Overview        string `json:"overview"`
	Description     string `json:"description"`
	BestTimeToVisit string `json:"bestTimeToVisit"`
	TravelTips      string `json:"travelTips"`
}

// DestinationForm matches the destination creation form.
type DestinationForm struct {
	Name            string `json:"name"`
	Country         string `json:"country"`
	Heading         string `json:"heading"`
	Overview        string `json:"overview"`
	Description     string `json:"description"`
	BestTimeToVisit string `json:"bestTimeToVisit"`
	TravelTips      string `json:"travelTips"`
	ImageURL        string `json:"imageUrl"`
	ThumbnailURL    string `json:"thumbnailUrl"`
}

func NewDestinationPipeline(deps Deps) *Pipeline[DestinationRequest, DestinationPayload, DestinationForm] {
	return NewPipeline(Flow[DestinationRequest, DestinationPayload, DestinationForm]{
		Kind:          types.EntityDestination,
		RequestSchema: destinationRequestSchema,
		Model:         func(c config.GenerationConfig) string { return c.DestinationModel },

		Lookup: func(ctx context.Context, req DestinationRequest) (any, error) {
			if req.IsEdit {
				return nil, nil
			}
			d, err := deps.Store.FindDestinationByName(ctx, strings.TrimSpace(req.Destination))
			if err != nil || d == nil {
				return nil, err
			}
			return d, nil
		},

		Prepare: func(_ context.Context, req DestinationRequest) (Plan, error) {
			name := strings.TrimSpace(req.Destination)
			instructions, err := prompt.Destination(prompt.DestinationInput{Name: name})
			if err != nil {
				return Plan{}, err
			}
			return Plan{
				Prompt:    instructions,
				Schema:    destinationResponseSchema,
				Inputs:    map[string]string{"destination": name},
				WantImage: req.IsImageChange || !req.IsEdit,
			}, nil
		},

		ImageQuery: func(req DestinationRequest, _ DestinationPayload) string {
			return strings.TrimSpace(req.Destination)
		},

		Shape: func(_ DestinationRequest, p DestinationPayload, img *imagesearch.Image) DestinationForm {
			form := DestinationForm{
				Name:            strings.TrimSpace(p.Name),
				Country:         strings.TrimSpace(p.Country),
				Heading:         strings.TrimSpace(p.Heading),
				Overview:        strings.TrimSpace(p.Overview),
				Description:     strings.TrimSpace(p.Description),
				BestTimeToVisit: strings.TrimSpace(p.BestTimeToVisit),
				TravelTips:      strings.TrimSpace(p.TravelTips),
			}
			if img != nil {
				form.ImageURL = img.URL
				form.ThumbnailURL = img.ThumbnailURL
			}
			return form
		},
	}, deps)
}
