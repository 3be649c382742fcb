package geo

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// Handler exposes the connectivity test endpoints for the maps integration.
// They exist so an operator can verify the API key and quota from a browser
// before trusting route optimization.
type Handler struct {
	provider Provider
	live     bool
	logger   *logging.Logger
}

// NewHandler creates the maps test handler. live reports whether a real
// Google key is configured; when false both endpoints refuse with 400.
func NewHandler(provider Provider, live bool, logger *logging.Logger) *Handler {
	return &Handler{provider: provider, live: live, logger: logger}
}

// TestGeocode handles GET /test/geocode?address=...
func (h *Handler) TestGeocode(w http.ResponseWriter, r *http.Request) {
	if !h.live {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "Google Maps not configured"})
		return
	}

	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "missing address"})
		return
	}

	point, err := h.provider.Geocode(r.Context(), address)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			respondJSON(w, http.StatusNotFound, map[string]any{"status": "no_results", "raw": err.Error()})
			return
		}
		h.logger.Error("geocode test failed", "error", err)
		respondJSON(w, http.StatusBadGateway, map[string]any{"error": "request_failed", "detail": err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"lat": point.Lat, "lon": point.Lon, "status": "ok"})
}

// TestDistance handles GET /test/distance?from=...&to=... where each side is
// either "lat,lon" or a street address.
func (h *Handler) TestDistance(w http.ResponseWriter, r *http.Request) {
	if !h.live {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "Google Maps not configured"})
		return
	}

	origin := strings.TrimSpace(r.URL.Query().Get("from"))
	destination := strings.TrimSpace(r.URL.Query().Get("to"))
	if origin == "" || destination == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "missing parameters 'from' and/or 'to'"})
		return
	}

	from, err := h.resolve(r, origin)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	to, err := h.resolve(r, destination)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	leg, err := h.provider.Distance(r.Context(), from, to)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"distance_km":  math.Round(leg.DistanceKm*1000) / 1000,
		"duration_min": math.Round(leg.Minutes()*10) / 10,
		"status":       "ok",
	})
}

// resolve accepts "lat,lon" directly and geocodes anything else.
func (h *Handler) resolve(r *http.Request, value string) (Point, error) {
	if point, ok := parseLatLon(value); ok {
		return point, nil
	}
	return h.provider.Geocode(r.Context(), value)
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNoResults) {
		respondJSON(w, http.StatusNotFound, map[string]any{"status": "no_results", "raw": err.Error()})
		return
	}
	h.logger.Error("distance test failed", "error", err)
	respondJSON(w, http.StatusBadGateway, map[string]any{"error": "request_failed", "detail": err.Error()})
}

func parseLatLon(value string) (Point, bool) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return Point{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
