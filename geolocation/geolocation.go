// Package geolocation resolves coordinates into a short "City, State" label
// via the Nominatim reverse-geocoding service. Results are cached twice: in
// memory for repeated lookups of the same coordinates, and in the durable
// store so the last known label survives restarts. A stored label is treated
// as fresh for up to one hour.
package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medlinkr/medlinkr-api/interfaces"
	"github.com/medlinkr/medlinkr-api/logging"
	gocache "github.com/patrickmn/go-cache"
)

// Compile-time check to ensure Resolver implements Geocoder
var _ interfaces.Geocoder = (*Resolver)(nil)

// FallbackLabel is used when coordinates resolve but no readable locality is
// found in the address.
const FallbackLabel = "Location detected"

// cacheFreshness is how long a stored label is served without re-resolving.
const cacheFreshness = time.Hour

// Resolver is a Nominatim-backed reverse geocoder.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	store      interfaces.KeyValueStore
	memory     *gocache.Cache
}

// NewResolver creates a resolver against the given Nominatim base URL.
func NewResolver(baseURL string, timeout time.Duration, store interfaces.KeyValueStore) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		store:  store,
		memory: gocache.New(cacheFreshness, 10*time.Minute),
	}
}

// nominatimAddress mirrors the address object of a Nominatim reverse response.
type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	Province     string `json:"province"`
	Region       string `json:"region"`
	Country      string `json:"country"`
}

type nominatimResponse struct {
	Address *nominatimAddress `json:"address"`
}

// ReverseGeocode resolves lat/lon to a "City, State" label using the
// city → town → village → municipality → county chain for the locality and
// state → province → region for the second part.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	cacheKey := fmt.Sprintf("%.4f:%.4f", lat, lon)
	if v, ok := r.memory.Get(cacheKey); ok {
		return v.(string), nil
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("format", "json")
	params.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close geocode response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var decoded nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	label := labelFromAddress(decoded.Address)
	r.memory.Set(cacheKey, label, gocache.DefaultExpiration)
	r.remember(label, lat, lon)

	return label, nil
}

// Refresh re-resolves the last known coordinates so the stored label stays
// fresh. It is a no-op when no coordinates were ever resolved.
func (r *Resolver) Refresh(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	latStr, okLat := r.store.Get("locationLat")
	lonStr, okLon := r.store.Get("locationLon")
	if !okLat || !okLon {
		return nil
	}

	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		return fmt.Errorf("stored coordinates are malformed: %q, %q", latStr, lonStr)
	}

	_, err := r.ReverseGeocode(ctx, lat, lon)
	return err
}

// CachedLabel returns the stored location label when it is fresh enough.
func (r *Resolver) CachedLabel() (string, bool) {
	if r.store == nil {
		return "", false
	}

	label, ok := r.store.Get("locationName")
	if !ok || label == "" {
		return "", false
	}

	updated, ok := r.store.UpdatedAt("locationName")
	if !ok || time.Since(updated) >= cacheFreshness {
		return "", false
	}

	return label, true
}

// remember persists the label and the coordinates it came from, best effort.
func (r *Resolver) remember(label string, lat, lon float64) {
	if r.store == nil {
		return
	}
	if err := r.store.Set("locationName", label); err != nil {
		logging.Warn("Could not save location to store", "error", err)
		return
	}
	if err := r.store.Set("locationLat", strconv.FormatFloat(lat, 'f', -1, 64)); err != nil {
		logging.Warn("Could not save location latitude", "error", err)
	}
	if err := r.store.Set("locationLon", strconv.FormatFloat(lon, 'f', -1, 64)); err != nil {
		logging.Warn("Could not save location longitude", "error", err)
	}
}

// labelFromAddress derives the display label from a Nominatim address using
// the locality and region fallback chains.
func labelFromAddress(addr *nominatimAddress) string {
	if addr == nil {
		return FallbackLabel
	}

	city := firstNonEmpty(addr.City, addr.Town, addr.Village, addr.Municipality, addr.County)
	state := firstNonEmpty(addr.State, addr.Province, addr.Region)

	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	case addr.Country != "":
		return addr.Country
	default:
		return FallbackLabel
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
