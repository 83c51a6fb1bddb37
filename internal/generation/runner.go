package generation

import (
	"context"

	"github.com/af-corp/tourdesk/internal/types"
)

// Runner is the type-erased view of a Pipeline used by the HTTP layer.
type Runner interface {
	Kind() types.EntityKind
	Run(ctx context.Context, requestID string, body []byte) (*Outcome, error)
}

var (
	_ Runner = (*Pipeline[DestinationRequest, DestinationPayload, DestinationForm])(nil)
	_ Runner = (*Pipeline[PackageRequest, PackagePayload, PackageForm])(nil)
	_ Runner = (*Pipeline[ItineraryRequest, ItineraryPayload, ItineraryResult])(nil)
)

// Pipelines groups the three entity pipelines.
type Pipelines struct {
	Destination Runner
	Package     Runner
	Itinerary   Runner
}

func NewPipelines(deps Deps) Pipelines {
	return Pipelines{
		Destination: NewDestinationPipeline(deps),
		Package:     NewPackagePipeline(deps),
		Itinerary:   NewItineraryPipeline(deps),
	}
}
