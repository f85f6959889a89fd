package geocode

import (
	"context"
	"errors"

	"googlemaps.github.io/maps"

	"github.com/openhaus-dev/openhaus/backend/models"
)

// ErrNoResults is returned when the geocoding API resolves the request but
// finds no place for the address. Callers treat it as a bad address, not an
// infrastructure failure.
var ErrNoResults = errors.New("geocode: no results for address")

type GoogleGeocoder struct {
	client *maps.Client
}

func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleGeocoder{client: client}, nil
}

// Geocode resolves a free-text address to a point plus a map reference.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*models.MapRef, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	top := results[0]
	return &models.MapRef{
		PlaceID:          top.PlaceID,
		FormattedAddress: top.FormattedAddress,
		Location:         models.NewGeoPoint(top.Geometry.Location.Lng, top.Geometry.Location.Lat),
	}, nil
}
