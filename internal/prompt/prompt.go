// Package prompt renders the instructions sent to the content generator.
// User values are interpolated as-is.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.New("prompts").Option("missingkey=error").ParseFS(templatesFS, "templates/*.tmpl"))

// System is the system instruction shared by every generation call.
const System = "You write accurate, engaging travel marketing content and always answer with a single valid JSON object."

type DestinationInput struct {
	Name string
}

type PackageInput struct {
	Destination string
	Days        int
	Nights      int
	TourType    string
}

type ItineraryInput struct {
	PackageName string
	Destination string
	Days        int
	Nights      int
	TourType    string
}

func Destination(in DestinationInput) (string, error) {
	return render("destination.tmpl", struct {
		DestinationInput
		L map[string]Range
	}{in, map[string]Range{
		"Name":        DestinationName,
		"Country":     DestinationCountry,
		"Heading":     Heading,
		"Overview":    Overview,
		"Description": Description,
		"BestTime":    BestTimeToVisit,
		"Tips":        TravelTips,
	}})
}

func Package(in PackageInput) (string, error) {
	if in.Days < 1 || in.Nights < 0 {
		return "", fmt.Errorf("invalid package duration %d days / %d nights", in.Days, in.Nights)
	}
	return render("package.tmpl", struct {
		PackageInput
		L map[string]Range
	}{in, map[string]Range{
		"Name":        PackageName,
		"Heading":     Heading,
		"Overview":    Overview,
		"Description": Description,
		"Highlights":  PackageHighlights,
		"Inclusions":  PackageInclusions,
		"Exclusions":  PackageExclusions,
		"Item":        ListItem,
	}})
}

func Itinerary(in ItineraryInput) (string, error) {
	if in.Days < 1 {
		return "", fmt.Errorf("invalid itinerary length %d days", in.Days)
	}
	return render("itinerary.tmpl", struct {
		ItineraryInput
		L map[string]Range
	}{in, map[string]Range{
		"Highlights":     ItineraryHighlights,
		"Cities":         ItineraryCities,
		"City":           CityName,
		"Item":           ListItem,
		"Title":          ItineraryDayTitle,
		"DayDescription": ItineraryDayDescription,
		"Meals":          Meals,
	}})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
