package types

// EntityKind names the dashboard entity a generation request targets.
type EntityKind string

const (
	EntityDestination EntityKind = "destination"
	EntityPackage     EntityKind = "package"
	EntityItinerary   EntityKind = "itinerary"
)

// Label returns the capitalised display form used in user-facing messages.
func (k EntityKind) Label() string {
	switch k {
	case EntityDestination:
		return "Destination"
	case EntityPackage:
		return "Package"
	case EntityItinerary:
		return "Itinerary"
	default:
		return string(k)
	}
}
