package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeoLocation is the resolved location of a visitor IP.
type GeoLocation struct {
	Country     string
	CountryCode string
	City        string
	Region      string
	Latitude    float64
	Longitude   float64
}

var errNoGeoResult = errors.New("no geolocation provider returned a result")

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GeoService resolves IPs against free geolocation APIs, trying each provider
// in order until one answers with a country.
type GeoService struct {
	http      httpDoer
	providers []string
}

// NewGeoService creates a GeoService with the default provider chain.
func NewGeoService() *GeoService {
	return &GeoService{
		http: &http.Client{Timeout: 5 * time.Second},
		providers: []string{
			"https://ipapi.co/%s/json/",
			"http://ip-api.com/json/%s",
		},
	}
}

// SetHTTPClient swaps the underlying HTTP client, for tests.
func (s *GeoService) SetHTTPClient(client httpDoer) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	s.http = client
}

// Lookup resolves an IP to a location. Local and private addresses are never
// sent to a provider and resolve to an empty location.
func (s *GeoService) Lookup(ctx context.Context, ip string) (GeoLocation, error) {
	if isLocalIP(ip) {
		return GeoLocation{}, nil
	}

	for _, provider := range s.providers {
		location, err := s.queryProvider(ctx, provider, ip)
		if err != nil {
			continue
		}
		if location.Country != "" {
			return location, nil
		}
	}
	return GeoLocation{}, errNoGeoResult
}

func (s *GeoService) queryProvider(ctx context.Context, provider, ip string) (GeoLocation, error) {
	url := fmt.Sprintf(provider, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return GeoLocation{}, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return GeoLocation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeoLocation{}, fmt.Errorf("geo provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return GeoLocation{}, err
	}

	return normalizeGeoResponse(body, url)
}

// normalizeGeoResponse maps the provider-specific payloads onto GeoLocation.
func normalizeGeoResponse(body []byte, url string) (GeoLocation, error) {
	switch {
	case strings.Contains(url, "ipapi.co"):
		var payload struct {
			CountryName string  `json:"country_name"`
			CountryCode string  `json:"country_code"`
			City        string  `json:"city"`
			Region      string  `json:"region"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return GeoLocation{}, err
		}
		return GeoLocation{
			Country:     payload.CountryName,
			CountryCode: payload.CountryCode,
			City:        payload.City,
			Region:      payload.Region,
			Latitude:    payload.Latitude,
			Longitude:   payload.Longitude,
		}, nil
	case strings.Contains(url, "ip-api.com"):
		var payload struct {
			Country     string  `json:"country"`
			CountryCode string  `json:"countryCode"`
			City        string  `json:"city"`
			RegionName  string  `json:"regionName"`
			Lat         float64 `json:"lat"`
			Lon         float64 `json:"lon"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return GeoLocation{}, err
		}
		return GeoLocation{
			Country:     payload.Country,
			CountryCode: payload.CountryCode,
			City:        payload.City,
			Region:      payload.RegionName,
			Latitude:    payload.Lat,
			Longitude:   payload.Lon,
		}, nil
	}
	return GeoLocation{}, fmt.Errorf("unknown geo provider: %s", url)
}

var localIPPrefixes = []string{
	"127.", "10.",
	"172.16.", "172.17.", "172.18.", "172.19.",
	"172.20.", "172.21.", "172.22.", "172.23.",
	"172.24.", "172.25.", "172.26.", "172.27.",
	"172.28.", "172.29.", "172.30.", "172.31.",
	"192.168.",
	"::1", "localhost",
}

func isLocalIP(ip string) bool {
	if strings.TrimSpace(ip) == "" {
		return true
	}
	for _, prefix := range localIPPrefixes {
		if strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}
