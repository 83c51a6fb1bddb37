package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/imagesearch"
	"github.com/af-corp/tourdesk/internal/store"
	"github.com/af-corp/tourdesk/internal/types"
)

type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	calls   []types.GenerateRequest
	aliases []string
}

func (g *fakeGenerator) Generate(_ context.Context, alias string, req types.GenerateRequest) (*types.GenerateResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	g.aliases = append(g.aliases, alias)
	if g.err != nil {
		return nil, g.err
	}
	return &types.GenerateResponse{
		RequestID:        req.RequestID,
		Model:            "gemini-1.5-flash",
		Provider:         "gemini",
		Text:             g.text,
		Usage:            types.Usage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300},
		EstimatedCostUSD: 0.0001,
	}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeStore struct {
	destinations []*store.Destination
	packages     map[int64]*store.Package
	itineraries  map[int64]*store.Itinerary
	err          error
}

func (s *fakeStore) FindDestinationByName(_ context.Context, name string) (*store.Destination, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, d := range s.destinations {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindDestinationByID(_ context.Context, id int64) (*store.Destination, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, d := range s.destinations {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetPackage(_ context.Context, id int64) (*store.Package, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.packages[id]
	if !ok {
		return nil, fmt.Errorf("package %d: %w", id, store.ErrNotFound)
	}
	return p, nil
}

func (s *fakeStore) FindItineraryByPackage(_ context.Context, packageID int64) (*store.Itinerary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.itineraries[packageID], nil
}

func (s *fakeStore) Ping(context.Context) error { return s.err }

type fakeSearcher struct {
	mu      sync.Mutex
	img     *imagesearch.Image
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) (*imagesearch.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if f.img == nil {
		return nil, imagesearch.ErrNoResults
	}
	return f.img, nil
}

func testDeps(gen Generator, st store.Store, images imagesearch.Searcher) Deps {
	return Deps{
		Generator: gen,
		Store:     st,
		Images:    images,
		Config:    func() config.GenerationConfig { return config.DefaultConfig().Generation },
	}
}

// omit removes a field from a generated payload.
type omit struct{}

func payloadJSON(base map[string]any, overrides map[string]any) string {
	doc := make(map[string]any, len(base))
	for k, v := range base {
		doc[k] = v
	}
	for k, v := range overrides {
		if _, drop := v.(omit); drop {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func destinationPayload(overrides map[string]any) string {
	return payloadJSON(map[string]any{
		"name":            "Kyoto",
		"country":         "Japan",
		"heading":         "Temples and Tea Gardens",
		"overview":        strings.Repeat("Kyoto temples and gardens. ", 4),
		"description":     strings.Repeat("Kyoto rewards slow travel with shrines and food. ", 4),
		"bestTimeToVisit": "Spring and autumn",
		"travelTips":      "Buy a bus day pass.",
	}, overrides)
}

func packagePayload(overrides map[string]any) string {
	return payloadJSON(map[string]any{
		"name":        "Muscat Heritage Escape",
		"heading":     "Arabian Coast Getaway",
		"overview":    strings.Repeat("Forts, souqs and sea views. ", 4),
		"description": strings.Repeat("Discover the old town, the corniche and the mountains. ", 4),
		"highlights":  []string{" Sultan Qaboos Grand Mosque ", "Mutrah Souq", "Dhow cruise"},
		"inclusions":  []string{"Hotel stay", "Daily breakfast", "Airport transfers"},
		"exclusions":  []string{"Flights", "Travel insurance"},
	}, overrides)
}

func itineraryDays(n int) []map[string]any {
	days := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		days = append(days, map[string]any{
			"day":         i,
			"title":       fmt.Sprintf("Day %d in Muscat", i),
			"description": strings.Repeat("Walk the old town and taste local food. ", 3),
			"meals":       "Breakfast",
		})
	}
	return days
}

func itineraryPayload(overrides map[string]any) string {
	return payloadJSON(map[string]any{
		"highlights": []string{"Grand Mosque", "Mutrah Souq", "Old Muscat"},
		"cities":     []string{"Muscat"},
		"itinerary":  itineraryDays(2),
	}, overrides)
}
