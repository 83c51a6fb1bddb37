package generation

import (
	"context"
	"strings"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/imagesearch"
	"github.com/af-corp/tourdesk/internal/prompt"
	"github.com/af-corp/tourdesk/internal/types"
)

type PackageRequest struct {
	Day           int    `json:"day"`
	Night         int    `json:"night"`
	DestinationID int64  `json:"destinationId"`
	ToursID       *int64 `json:"toursId"`
	Destination   string `json:"destination"`
	TourType      string `json:"tourType"`
	IsEdit        bool   `json:"isEdit"`
	IsImageChange bool   `json:"isImageChange"`
}

type PackagePayload struct {
	Name        string   `json:"name"`
	Heading     string   `json:"heading"`
	Overview    string   `json:"overview"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
	Inclusions  []string `json:"inclusions"`
	Exclusions  []string `json:"exclusions"`
}

// PackageForm matches the package creation form.
type PackageForm struct {
	Name          string   `json:"name"`
	Heading       string   `json:"heading"`
	Overview      string   `json:"overview"`
	Description   string   `json:"description"`
	Highlights    []string `json:"highlights"`
	Inclusions    []string `json:"inclusions"`
	Exclusions    []string `json:"exclusions"`
	Day           int      `json:"day"`
	Night         int      `json:"night"`
	DestinationID int64    `json:"destinationId"`
	ToursID       *int64   `json:"toursId"`
	TourType      string   `json:"tourType"`
	ImageURL      string   `json:"imageUrl"`
	ThumbnailURL  string   `json:"thumbnailUrl"`
}

func NewPackagePipeline(deps Deps) *Pipeline[PackageRequest, PackagePayload, PackageForm] {
	return NewPipeline(Flow[PackageRequest, PackagePayload, PackageForm]{
		Kind:          types.EntityPackage,
		RequestSchema: packageRequestSchema,
		Model:         func(c config.GenerationConfig) string { return c.PackageModel },

		Prepare: func(ctx context.Context, req PackageRequest) (Plan, error) {
			d, err := deps.Store.FindDestinationByID(ctx, req.DestinationID)
			if err != nil {
				return Plan{}, err
			}
			if d == nil {
				return Plan{}, &Error{Kind: KindNotFound, Message: "Destination not found"}
			}

			destination := strings.TrimSpace(req.Destination)
			tourType := strings.TrimSpace(req.TourType)
			instructions, err := prompt.Package(prompt.PackageInput{
				Destination: destination,
				Days:        req.Day,
				Nights:      req.Night,
				TourType:    tourType,
			})
			if err != nil {
				return Plan{}, err
			}
			return Plan{
				Prompt:    instructions,
				Schema:    packageResponseSchema,
				Inputs:    map[string]string{"destination": destination, "tourType": tourType},
				WantImage: req.IsImageChange || !req.IsEdit,
			}, nil
		},

		ImageQuery: func(req PackageRequest, _ PackagePayload) string {
			return strings.TrimSpace(req.Destination)
		},

		Shape: func(req PackageRequest, p PackagePayload, img *imagesearch.Image) PackageForm {
			form := PackageForm{
				Name:          strings.TrimSpace(p.Name),
				Heading:       strings.TrimSpace(p.Heading),
				Overview:      strings.TrimSpace(p.Overview),
				Description:   strings.TrimSpace(p.Description),
				Highlights:    trimAll(p.Highlights),
				Inclusions:    trimAll(p.Inclusions),
				Exclusions:    trimAll(p.Exclusions),
				Day:           req.Day,
				Night:         req.Night,
				DestinationID: req.DestinationID,
				ToursID:       optionalID(req.ToursID),
				TourType:      strings.TrimSpace(req.TourType),
			}
			if img != nil {
				form.ImageURL = img.URL
				form.ThumbnailURL = img.ThumbnailURL
			}
			return form
		},
	}, deps)
}

// optionalID maps the dashboard's 0 placeholder for "no tour selected" to
// an absent id.
func optionalID(id *int64) *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
