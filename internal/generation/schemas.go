package generation

import (
	"fmt"
	"sync"

	"github.com/af-corp/tourdesk/internal/prompt"
	"github.com/af-corp/tourdesk/internal/schema"
)

func text(r prompt.Range) map[string]any {
	return schema.String(r.Min, r.Max)
}

// nonBlank additionally rejects whitespace-only strings.
func nonBlank(doc map[string]any) map[string]any {
	doc["pattern"] = `\S`
	return doc
}

func list(count prompt.Range) map[string]any {
	return schema.Array(text(prompt.ListItem), count.Min, count.Max)
}

func optionalBool() map[string]any {
	return schema.Nullable(schema.Boolean())
}

var destinationRequestSchema = schema.MustCompile("destination_request", schema.Object(map[string]any{
	"destination":   nonBlank(text(prompt.DestinationName)),
	"isEdit":        optionalBool(),
	"isImageChange": optionalBool(),
}, "destination"))

var destinationResponseSchema = schema.MustCompile("destination_response", schema.Object(map[string]any{
	"name":            text(prompt.DestinationName),
	"country":         text(prompt.DestinationCountry),
	"heading":         text(prompt.Heading),
	"overview":        text(prompt.Overview),
	"description":     text(prompt.Description),
	"bestTimeToVisit": schema.Nullable(text(prompt.BestTimeToVisit)),
	"travelTips":      schema.Nullable(text(prompt.TravelTips)),
}, "name", "country", "heading", "overview", "description"))

var packageRequestSchema = schema.MustCompile("package_request", schema.Object(map[string]any{
	"day":           schema.Integer(1),
	"night":         schema.Integer(1),
	"destinationId": schema.Integer(1),
	"toursId":       schema.Nullable(schema.Integer(0)),
	"destination":   nonBlank(text(prompt.DestinationName)),
	"tourType":      schema.Nullable(text(prompt.TourType)),
	"isEdit":        optionalBool(),
	"isImageChange": optionalBool(),
}, "day", "night", "destinationId", "destination"))

var packageResponseSchema = schema.MustCompile("package_response", schema.Object(map[string]any{
	"name":        text(prompt.PackageName),
	"heading":     text(prompt.Heading),
	"overview":    text(prompt.Overview),
	"description": text(prompt.Description),
	"highlights":  list(prompt.PackageHighlights),
	"inclusions":  list(prompt.PackageInclusions),
	"exclusions":  list(prompt.PackageExclusions),
}, "name", "heading", "overview", "description", "highlights", "inclusions", "exclusions"))

var itineraryRequestSchema = schema.MustCompile("itinerary_request", schema.Object(map[string]any{
	"packageId": schema.Integer(1),
	"isEdit":    optionalBool(),
}, "packageId"))

var itinerarySchemas sync.Map // day count -> *schema.Schema

// itineraryResponseSchema requires exactly days entries.
func itineraryResponseSchema(days int) *schema.Schema {
	if s, ok := itinerarySchemas.Load(days); ok {
		return s.(*schema.Schema)
	}

	day := schema.Object(map[string]any{
		"day":         schema.Integer(1),
		"title":       text(prompt.ItineraryDayTitle),
		"description": text(prompt.ItineraryDayDescription),
		"meals":       schema.Nullable(text(prompt.Meals)),
	}, "day", "title", "description")

	s := schema.MustCompile(fmt.Sprintf("itinerary_response_%d", days), schema.Object(map[string]any{
		"highlights": list(prompt.ItineraryHighlights),
		"cities":     schema.Array(text(prompt.CityName), prompt.ItineraryCities.Min, prompt.ItineraryCities.Max),
		"itinerary":  schema.Array(day, days, days),
	}, "highlights", "cities", "itinerary"))

	actual, _ := itinerarySchemas.LoadOrStore(days, s)
	return actual.(*schema.Schema)
}
