package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"ridebook/internal/types"
)

var ErrNoResults = errors.New("maps: no results")

// Geocoder resolves addresses and place ids through the Google Maps APIs.
type Geocoder struct {
	client   *maps.Client
	language string
	region   string
}

type Option func(*options)

type options struct {
	baseURL  string
	language string
	region   string
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

func WithRegion(language, region string) Option {
	return func(o *options) { o.language, o.region = language, region }
}

// NewGeocoder creates a Geocoder with the given API key.
func NewGeocoder(apiKey string, opts ...Option) (*Geocoder, error) {
	o := options{language: "en"}
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(o.baseURL))
	}
	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Geocoder{client: client, language: o.language, region: o.region}, nil
}

func (g *Geocoder) Resolve(ctx context.Context, address string) (types.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return types.Location{}, ErrNoResults
	}
	return g.geocode(ctx, &maps.GeocodingRequest{Address: address, Language: g.language, Region: g.region})
}

func (g *Geocoder) ResolvePlace(ctx context.Context, placeID string) (types.Location, error) {
	return g.geocode(ctx, &maps.GeocodingRequest{PlaceID: placeID, Language: g.language})
}

func (g *Geocoder) geocode(ctx context.Context, r *maps.GeocodingRequest) (types.Location, error) {
	results, err := g.client.Geocode(ctx, r)
	if err != nil {
		return types.Location{}, fmt.Errorf("geocode api error: %w", err)
	}
	if len(results) == 0 {
		return types.Location{}, ErrNoResults
	}
	res := results[0]
	return types.Location{
		Address:   res.FormattedAddress,
		Latitude:  res.Geometry.Location.Lat,
		Longitude: res.Geometry.Location.Lng,
		PlaceID:   res.PlaceID,
	}, nil
}

// Search runs a text search. When near is resolved, results are biased
// toward it and returned nearest first.
func (g *Geocoder) Search(ctx context.Context, query string, near *types.Location, limit int) ([]types.Location, error) {
	r := &maps.TextSearchRequest{Query: query, Language: g.language, Region: g.region}
	if near != nil && near.Resolved() {
		r.Location = &maps.LatLng{Lat: near.Latitude, Lng: near.Longitude}
		r.Radius = 20000
	}

	resp, err := g.client.TextSearch(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	out := make([]types.Location, 0, len(resp.Results))
	for _, res := range resp.Results {
		address := res.FormattedAddress
		if res.Name != "" && !strings.HasPrefix(address, res.Name) {
			address = res.Name + ", " + address
		}
		out = append(out, types.Location{
			Address:   address,
			Latitude:  res.Geometry.Location.Lat,
			Longitude: res.Geometry.Location.Lng,
			PlaceID:   res.PlaceID,
		})
	}
	if near != nil && near.Resolved() {
		types.SortByDistance(out, *near)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
