// Package imagesearch looks up a representative photo for a generated entity.
package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/telemetry"
)

var ErrNoResults = errors.New("no image found")

// Image is a full-size and thumbnail URL pair for one photo.
type Image struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Alt          string `json:"alt,omitempty"`
	Credit       string `json:"credit,omitempty"`
}

// Searcher finds an image for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) (*Image, error)
}

// Noop is used when image search is disabled. It always reports ErrNoResults.
type Noop struct{}

func (Noop) Search(context.Context, string) (*Image, error) { return nil, ErrNoResults }

// UnsplashClient queries the Unsplash search/photos endpoint.
type UnsplashClient struct {
	baseURL     string
	accessKey   string
	orientation string
	client      *http.Client
}

func NewUnsplashClient(cfg config.ImageSearchConfig) *UnsplashClient {
	return &UnsplashClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessKey:   cfg.AccessKey,
		orientation: cfg.Orientation,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

// New returns the searcher configured by cfg.
func New(cfg config.ImageSearchConfig) Searcher {
	if !cfg.Enabled || cfg.BaseURL == "" {
		return Noop{}
	}
	return NewUnsplashClient(cfg)
}

type unsplashSearchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Regular string `json:"regular"`
			Thumb   string `json:"thumb"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

func (c *UnsplashClient) Search(ctx context.Context, query string) (*Image, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoResults
	}

	ctx, span := telemetry.StartSpan(ctx, "imagesearch.search")
	defer span.End()
	span.SetAttributes(attribute.String("imagesearch.query", query))

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	if c.orientation != "" {
		params.Set("orientation", c.orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create image search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Version", "v1")
	if c.accessKey != "" {
		req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("image search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("image search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var out unsplashSearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode image search response: %w", err)
	}
	if len(out.Results) == 0 || out.Results[0].URLs.Regular == "" {
		return nil, ErrNoResults
	}

	r := out.Results[0]
	alt := r.AltDescription
	if alt == "" {
		alt = r.Description
	}
	return &Image{
		URL:          r.URLs.Regular,
		ThumbnailURL: r.URLs.Thumb,
		Alt:          alt,
		Credit:       r.User.Name,
	}, nil
}
