package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

const (
	googleGeocodeURL        = "https://maps.googleapis.com/maps/api/geocode/json"
	googleDistanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	defaultHTTPTimeout      = 8 * time.Second
)

// GoogleProvider resolves addresses and drive times through the Google Maps
// web APIs.
type GoogleProvider struct {
	apiKey      string
	geocodeURL  string
	distanceURL string
	httpClient  *http.Client
	logger      *logging.Logger
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithBaseURLs overrides the Google endpoints, used by tests.
func WithBaseURLs(geocodeURL, distanceURL string) GoogleOption {
	return func(g *GoogleProvider) {
		if geocodeURL != "" {
			g.geocodeURL = geocodeURL
		}
		if distanceURL != "" {
			g.distanceURL = distanceURL
		}
	}
}

// WithHTTPClient overrides the HTTP client, used by tests or to tune the
// request timeout.
func WithHTTPClient(client *http.Client) GoogleOption {
	return func(g *GoogleProvider) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// NewGoogleProvider creates a Google Maps backed provider.
func NewGoogleProvider(apiKey string, logger *logging.Logger, opts ...GoogleOption) *GoogleProvider {
	g := &GoogleProvider{
		apiKey:      apiKey,
		geocodeURL:  googleGeocodeURL,
		distanceURL: googleDistanceMatrixURL,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves a street address to coordinates.
func (g *GoogleProvider) Geocode(ctx context.Context, address string) (Point, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return Point{}, fmt.Errorf("geo: address is required")
	}

	params := url.Values{}
	params.Set("address", trimmed)

	var payload googleGeocodeResponse
	if err := g.doRequest(ctx, g.geocodeURL, params, &payload); err != nil {
		return Point{}, err
	}
	if payload.Status == "ZERO_RESULTS" || len(payload.Results) == 0 {
		return Point{}, ErrNoResults
	}
	if payload.Status != "OK" {
		return Point{}, googleStatusError("geocode", payload.Status, payload.ErrorMessage)
	}

	loc := payload.Results[0].Geometry.Location
	return Point{Lat: loc.Lat, Lon: loc.Lng}, nil
}

// Distance looks up the driving leg between two points.
func (g *GoogleProvider) Distance(ctx context.Context, from, to Point) (Leg, error) {
	params := url.Values{}
	params.Set("origins", formatPoint(from))
	params.Set("destinations", formatPoint(to))

	var payload googleDistanceResponse
	if err := g.doRequest(ctx, g.distanceURL, params, &payload); err != nil {
		return Leg{}, err
	}
	if payload.Status != "OK" {
		return Leg{}, googleStatusError("distance matrix", payload.Status, payload.ErrorMessage)
	}
	if len(payload.Rows) == 0 || len(payload.Rows[0].Elements) == 0 {
		return Leg{}, fmt.Errorf("geo: distance matrix returned no elements")
	}
	element := payload.Rows[0].Elements[0]
	if element.Status != "OK" {
		return Leg{}, googleStatusError("distance matrix element", element.Status, "")
	}

	return Leg{
		DistanceKm:      float64(element.Distance.Value) / 1000,
		DurationSeconds: element.Duration.Value,
		DurationText:    element.Duration.Text,
	}, nil
}

func (g *GoogleProvider) doRequest(ctx context.Context, baseURL string, params url.Values, out any) error {
	if g.apiKey == "" {
		return fmt.Errorf("geo: google maps api key is required")
	}
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("geo: build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("geo: request returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("geo: decode response: %w", err)
	}
	return nil
}

func googleStatusError(op, status, detail string) error {
	if detail != "" {
		return fmt.Errorf("geo: %s failed: %s - %s", op, status, detail)
	}
	return fmt.Errorf("geo: %s failed: %s", op, status)
}

func formatPoint(p Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleDistanceResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Rows         []googleDistanceRow `json:"rows"`
}

type googleDistanceRow struct {
	Elements []googleDistanceElement `json:"elements"`
}

type googleDistanceElement struct {
	Status   string          `json:"status"`
	Distance googleValueText `json:"distance"`
	Duration googleValueText `json:"duration"`
}

type googleValueText struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}
