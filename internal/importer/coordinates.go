package importer

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

const maxAltitude = 65535

// SettingsReader gives the coordinates system a user enters coordinates in.
type SettingsReader interface {
	CoordinatesSystem(ctx context.Context, userID string) (entity.CoordinatesSystem, error)
}

type coordinateBounds struct {
	minLatitude, maxLatitude   decimal.Decimal
	minLongitude, maxLongitude decimal.Decimal
	places                     int32
}

// Lambert 93 stores northing as latitude and easting as longitude, in meters.
var boundsBySystem = map[entity.CoordinatesSystem]coordinateBounds{
	entity.GPS: {
		minLatitude:  decimal.NewFromInt(-90),
		maxLatitude:  decimal.NewFromInt(90),
		minLongitude: decimal.NewFromInt(-180),
		maxLongitude: decimal.NewFromInt(180),
		places:       6,
	},
	entity.Lambert93: {
		minLatitude:  decimal.NewFromInt(6_000_000),
		maxLatitude:  decimal.NewFromInt(7_200_000),
		minLongitude: decimal.NewFromInt(100_000),
		maxLongitude: decimal.NewFromInt(1_300_000),
		places:       2,
	},
}

type coordinates struct {
	latitude  float64
	longitude float64
	altitude  int
}

func resolveSystem(ctx context.Context, settings SettingsReader, userID string) (entity.CoordinatesSystem, error) {
	if settings == nil {
		return entity.GPS, nil
	}
	system, err := settings.CoordinatesSystem(ctx, userID)
	if err != nil {
		return "", err
	}
	if _, ok := boundsBySystem[system]; !ok {
		return entity.GPS, nil
	}
	return system, nil
}

func parseCoordinates(system entity.CoordinatesSystem, lat, lon, alt string) (coordinates, error) {
	b, ok := boundsBySystem[system]
	if !ok {
		b = boundsBySystem[entity.GPS]
	}

	latitude, ok := parseDecimal(lat, b.minLatitude, b.maxLatitude, b.places)
	if !ok {
		return coordinates{}, ErrInvalidLatitude
	}
	longitude, ok := parseDecimal(lon, b.minLongitude, b.maxLongitude, b.places)
	if !ok {
		return coordinates{}, ErrInvalidLongitude
	}
	altitude, ok := parseAltitude(alt)
	if !ok {
		return coordinates{}, ErrInvalidAltitude
	}
	return coordinates{latitude: latitude, longitude: longitude, altitude: altitude}, nil
}

// parseDecimal accepts both "." and "," as decimal separator.
func parseDecimal(raw string, lower, upper decimal.Decimal, places int32) (float64, bool) {
	raw = strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	d, err := decimal.NewFromString(raw)
	if err != nil || d.LessThan(lower) || d.GreaterThan(upper) {
		return 0, false
	}
	f, _ := d.Round(places).Float64()
	return f, true
}

func parseAltitude(raw string) (int, bool) {
	altitude, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || altitude < 0 || altitude > maxAltitude {
		return 0, false
	}
	return altitude, true
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
