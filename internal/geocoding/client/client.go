// Package client talks to a Nominatim-compatible geocoding service.
// Every request carries a descriptive User-Agent and a fixed language;
// an empty result set is a normal outcome, not an error.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"propscan_backend/platform/apperr"
	"propscan_backend/platform/config"
	"propscan_backend/platform/logger"
)

// Result is one geocoding candidate.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Street      string
	HouseNumber string
	PostalCode  string
	City        string
	Region      string
	Country     string
}

// Client performs forward and reverse geocoding.
type Client struct {
	baseURL   string
	userAgent string
	language  string
	country   string
	http      *http.Client
	log       *logger.Logger
}

// New creates a new geocoding client.
func New(cfg config.GeocoderConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:   cfg.GetGeocoderBaseURL(),
		userAgent: cfg.GetGeocoderUserAgent(),
		language:  cfg.GetGeocoderLanguage(),
		country:   cfg.GetGeocoderCountry(),
		http:      &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

// Search forward-geocodes a free-text address. No match returns an
// empty slice and a nil error.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("limit", "5")
	params.Add("accept-language", c.language)
	if c.country != "" {
		params.Add("countrycodes", c.country)
	}

	var raw []nominatimResult
	if err := c.get(ctx, "/search", params, &raw); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		result, ok := buildResult(r)
		if !ok {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// Reverse looks up the best address for a coordinate pair. No match
// returns (nil, nil).
func (c *Client) Reverse(ctx context.Context, latitude, longitude float64) (*Result, error) {
	params := url.Values{}
	params.Add("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Add("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("accept-language", c.language)

	var raw nominatimResult
	if err := c.get(ctx, "/reverse", params, &raw); err != nil {
		return nil, err
	}
	if raw.Lat == "" {
		return nil, nil
	}
	result, ok := buildResult(raw)
	if !ok {
		return nil, nil
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("geocoder request failed", "path", path, "error", err)
		return apperr.Wrap(apperr.KindUnavailable, "geocoder unreachable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("geocoder upstream error", "path", path, "status", resp.StatusCode)
		return apperr.Unavailable(fmt.Sprintf("geocoder upstream error: %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error("failed to decode geocoder payload", "path", path, "error", err)
		return fmt.Errorf("decode geocoder payload: %w", err)
	}
	return nil
}

func buildResult(raw nominatimResult) (Result, bool) {
	lat, err := strconv.ParseFloat(raw.Lat, 64)
	if err != nil {
		return Result{}, false
	}
	lon, err := strconv.ParseFloat(raw.Lon, 64)
	if err != nil {
		return Result{}, false
	}

	return Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: raw.DisplayName,
		Street:      raw.Address.Road,
		HouseNumber: raw.Address.HouseNumber,
		PostalCode:  raw.Address.Postcode,
		City:        pickCity(raw.Address),
		Region:      raw.Address.State,
		Country:     raw.Address.Country,
	}, true
}

// pickCity walks the settlement fields from most to least specific.
func pickCity(address nominatimAddress) string {
	if address.City != "" {
		return address.City
	}
	if address.Town != "" {
		return address.Town
	}
	if address.Village != "" {
		return address.Village
	}
	if address.Municipality != "" {
		return address.Municipality
	}
	return address.Hamlet
}

type nominatimAddress struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	Postcode     string `json:"postcode"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	Hamlet       string `json:"hamlet"`
	State        string `json:"state"`
	Country      string `json:"country"`
}

// nominatimResult mirrors the relevant parts of the OSM payload.
type nominatimResult struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}
