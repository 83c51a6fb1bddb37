package prompt

// Range is an inclusive character (or item) count bound.
type Range struct {
	Min int
	Max int
}

// Field bounds for generated content. Response schemas are built from the
// same values so the prompt never asks for something validation rejects.
var (
	DestinationName         = Range{1, 100}
	DestinationCountry      = Range{2, 60}
	Heading                 = Range{15, 25}
	Overview                = Range{80, 300}
	Description             = Range{150, 600}
	BestTimeToVisit         = Range{0, 120}
	TravelTips              = Range{0, 400}
	PackageName             = Range{10, 80}
	TourType                = Range{0, 50}
	ListItem                = Range{3, 120}
	PackageHighlights       = Range{3, 8}
	PackageInclusions       = Range{3, 10}
	PackageExclusions       = Range{2, 8}
	ItineraryHighlights     = Range{3, 8}
	ItineraryCities         = Range{1, 10}
	CityName                = Range{1, 80}
	ItineraryDayTitle       = Range{5, 80}
	ItineraryDayDescription = Range{80, 600}
	Meals                   = Range{0, 120}
)
