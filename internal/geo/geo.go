package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// MinLatitude..MaxLongitude bound valid WGS84 coordinates.
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
	// EarthRadiusKm is Earth's radius for Haversine calculation.
	EarthRadiusKm = 6371.0088
	// AcquireTimeout caps how long a location acquisition may take before it
	// is treated as a failure.
	AcquireTimeout = 10 * time.Second
)

// Coordinate is a validated latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ErrPermissionDenied means the location source refused access. Distinguished
// from ErrUnavailable so callers can tell users to enable location access
// rather than just retry.
var ErrPermissionDenied = errors.New("location permission denied")

// ErrUnavailable covers every other acquisition failure (timeout, no fix,
// insecure context).
var ErrUnavailable = errors.New("location unavailable")

// ParseCoordinate parses latitude/longitude strings into a validated
// Coordinate. Both values must be parseable numbers within range; callers
// use this to reject a command before any network call is issued.
func ParseCoordinate(lat, lng string) (Coordinate, error) {
	latF, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid latitude %q", lat)
	}
	lngF, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid longitude %q", lng)
	}
	c := Coordinate{Latitude: latF, Longitude: lngF}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate checks the coordinate is within WGS84 bounds and not NaN.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < MinLatitude || c.Latitude > MaxLatitude {
		return fmt.Errorf("latitude %v out of range [%v, %v]", c.Latitude, MinLatitude, MaxLatitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < MinLongitude || c.Longitude > MaxLongitude {
		return fmt.Errorf("longitude %v out of range [%v, %v]", c.Longitude, MinLongitude, MaxLongitude)
	}
	return nil
}

// HaversineKm calculates the great-circle distance between two coordinates
// in kilometers.
func HaversineKm(a, b Coordinate) float64 {
	const degToRad = math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * degToRad
	dLng := (b.Longitude - a.Longitude) * degToRad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*degToRad)*math.Cos(b.Latitude*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Provider yields the caller's current position, standing in for the browser
// geolocation source.
type Provider interface {
	Current(ctx context.Context) (Coordinate, error)
}

// Acquire fetches the current position with the standard timeout applied.
// A deadline expiry is reported as ErrUnavailable; permission errors pass
// through as ErrPermissionDenied.
func Acquire(ctx context.Context, p Provider) (Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, AcquireTimeout)
	defer cancel()
	c, err := p.Current(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return Coordinate{}, ErrPermissionDenied
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Coordinate{}, fmt.Errorf("%w: acquisition timed out", ErrUnavailable)
		}
		return Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := c.Validate(); err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c, nil
}

// StaticProvider always returns a fixed coordinate. Used in tests and for
// deployments pinned to a facility location.
type StaticProvider struct {
	Coord Coordinate
	Err   error
}

func (s StaticProvider) Current(ctx context.Context) (Coordinate, error) {
	if s.Err != nil {
		return Coordinate{}, s.Err
	}
	return s.Coord, nil
}
