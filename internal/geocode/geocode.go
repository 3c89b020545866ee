package geocode

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/fractracker/complaints/internal/models"
)

// Address is a reverse geocoding answer. Only State is required for the
// location to be usable.
type Address struct {
	State       *string
	County      *string
	Zip         *string
	DisplayName *string
}

type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)
}

// Resolver turns raw coordinates into a Location. It never returns an error:
// every failure degrades to an invalid Location.
type Resolver struct {
	Geocoder Geocoder
	Logger   zerolog.Logger
}

func NewResolver(g Geocoder, logger zerolog.Logger) *Resolver {
	return &Resolver{Geocoder: g, Logger: logger}
}

// IsValidCoordinate checks the bounding box covering the continental US and
// its territories.
func IsValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat > 0 && lat <= 90 && lon < 0 && lon >= -180
}

func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) (loc models.Location) {
	loc = models.InvalidLocation(lat, lon)
	if !IsValidCoordinate(lat, lon) {
		r.Logger.Debug().Float64("lat", lat).Float64("lon", lon).Msg("coordinates outside supported area")
		return loc
	}

	defer func() {
		if p := recover(); p != nil {
			r.Logger.Error().Interface("panic", p).Float64("lat", lat).Float64("lon", lon).Msg("geocoder panicked")
			loc = models.InvalidLocation(lat, lon)
		}
	}()

	addr, err := r.Geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		r.Logger.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("reverse geocoding failed")
		return loc
	}
	if addr == nil || addr.State == nil || *addr.State == "" {
		r.Logger.Warn().Float64("lat", lat).Float64("lon", lon).Msg("reverse geocoding returned no state")
		return loc
	}

	return models.Location{
		Lat:         lat,
		Lon:         lon,
		IsValid:     true,
		State:       addr.State,
		County:      addr.County,
		Zip:         addr.Zip,
		FullAddress: addr.DisplayName,
	}
}
