package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/logger"
)

// Only this many formatted addresses are considered when no address
// component yields a name.
const maxAddressCandidates = 2

// Matches a plus code such as "87G8Q2RJ+QW" at the start of an address.
var plusCodePattern = regexp.MustCompile(`^[A-Z0-9]{4,8}\+[A-Z0-9]{2,3}`)

// Geocoder performs a reverse geocoding request.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*GeocodeResponse, error)
}

// GeocodeResponse models the subset of the Google Geocoding response that we
// care about.
type GeocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []GeocodeResult `json:"results"`
}

type GeocodeResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []AddressComponent `json:"address_components"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

func (c AddressComponent) hasType(t string) bool {
	for _, v := range c.Types {
		if v == t {
			return true
		}
	}
	return false
}

// GoogleGeocoder calls the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewGoogleGeocoder returns a client with a shared HTTP client bounded by
// timeout and a limiter allowing requestsPerSecond.
func NewGoogleGeocoder(apiKey, baseURL string, timeout time.Duration, requestsPerSecond float64) *GoogleGeocoder {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	return &GoogleGeocoder{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(
			rate.Limit(requestsPerSecond),
			1, // burst size
		),
	}
}

// ReverseGeocode performs the HTTP request and parses the response. A
// non-OK status or an empty result list is an ErrProviderFailure.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*GeocodeResponse, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", apperrors.ErrProviderFailure, err)
	}

	query := url.Values{}
	query.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("key", g.apiKey)
	endpoint := g.baseURL + "/maps/api/geocode/json?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProviderFailure, err)
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProviderFailure, redactKey(err, g.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: geocoder returned status %d", apperrors.ErrProviderFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProviderFailure, err)
	}

	var data GeocodeResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", apperrors.ErrProviderFailure, err)
	}
	if data.Status != "OK" || len(data.Results) == 0 {
		return nil, fmt.Errorf("%w: status %q with %d results", apperrors.ErrProviderFailure, data.Status, len(data.Results))
	}
	return &data, nil
}

// redactKey keeps the API key out of logged transport errors, which quote
// the request URL.
func redactKey(err error, key string) string {
	if key == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED")
}

// ExtractPlaceName builds "City, Region, Country" from the first result's
// address components, falling back to a formatted address that is not a
// bare plus code.
func ExtractPlaceName(results []GeocodeResult) string {
	if len(results) == 0 {
		return ""
	}

	var locality, sublocality, county, region, country string
	for _, c := range results[0].AddressComponents {
		if c.hasType("plus_code") {
			continue
		}
		if c.hasType("locality") && locality == "" {
			locality = c.LongName
		}
		if (c.hasType("sublocality") || c.hasType("sublocality_level_1")) && sublocality == "" {
			sublocality = c.LongName
		}
		if c.hasType("administrative_area_level_2") && county == "" {
			county = c.LongName
		}
		if c.hasType("administrative_area_level_1") && region == "" {
			region = c.ShortName
		}
		if c.hasType("country") && country == "" {
			country = c.LongName
		}
	}

	var parts []string
	if city := firstNonEmpty(locality, sublocality, county); city != "" {
		parts = append(parts, city)
	}
	if region != "" {
		parts = append(parts, region)
	}
	if country != "" {
		parts = append(parts, country)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}

	for i := 0; i < len(results) && i < maxAddressCandidates; i++ {
		addr := strings.TrimSpace(results[i].FormattedAddress)
		if addr != "" && !plusCodePattern.MatchString(addr) {
			return addr
		}
	}
	return ""
}

// GeocodingService resolves coordinates to a place name for a subject,
// consulting the location cache before the provider. A nil provider means
// geocoding is not configured.
type GeocodingService struct {
	provider Geocoder
	cache    LocationCache
	log      *logrus.Entry
}

func NewGeocodingService(provider Geocoder, cache LocationCache) *GeocodingService {
	return &GeocodingService{
		provider: provider,
		cache:    cache,
		log:      logger.Component("geocoding"),
	}
}

// Enabled reports whether a provider credential is configured.
func (g *GeocodingService) Enabled() bool {
	return g != nil && g.provider != nil
}

// Resolve returns the place name for (lat, lon). Every failure is logged and
// reported as ok == false; a found name is written to the cache when
// subjectID is set.
func (g *GeocodingService) Resolve(ctx context.Context, lat, lon float64, subjectID string) (string, bool) {
	if !g.Enabled() {
		return "", false
	}

	if subjectID != "" && g.cache != nil {
		cached, err := g.cache.GetLocation(ctx, subjectID)
		switch {
		case err == nil && cached != "":
			return cached, true
		case errors.Is(err, apperrors.ErrCacheUnavailable):
			g.log.WithError(err).WithField("subject_id", subjectID).Warn("Location cache unavailable, treating as miss")
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			g.log.WithError(err).WithField("subject_id", subjectID).Warn("Location cache read failed, treating as miss")
		}
	}

	resp, err := g.provider.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		g.log.WithError(err).WithFields(logrus.Fields{
			"lat":        lat,
			"lon":        lon,
			"subject_id": subjectID,
		}).Warn("Reverse geocoding failed")
		return "", false
	}

	name := ExtractPlaceName(resp.Results)
	if name == "" {
		g.log.WithField("subject_id", subjectID).Info("Geocoder returned no usable place name")
		return "", false
	}

	if subjectID != "" && g.cache != nil {
		if err := g.cache.PutLocation(ctx, subjectID, name); err != nil {
			g.log.WithError(err).WithField("subject_id", subjectID).Warn("Failed to cache location")
		}
	}
	return name, true
}

// Returns the first non-empty string in the list.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
