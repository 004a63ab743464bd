// Package rgeo names the place under the camera.
package rgeo

import (
	"fmt"
	"github.com/go-gl/mathgl/mgl64"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	srgeo "github.com/sams96/rgeo"
	"log/slog"
	"math"
	"strings"
	"time"
)

// Ocean is the place name of points no dataset covers.
const Ocean = "open water"

// Locator reverse-geocodes lat/lon pairs with cached, coarse lookups.
// The datasets are big; build one lazily and share it.
type Locator struct {
	r     *srgeo.Rgeo
	cache *lru.Cache[[2]int32, string]
}

// NewLocator loads Countries110, and Provinces10 too when provinces is set.
func NewLocator(provinces bool) (*Locator, error) {
	datasets := []func() []byte{srgeo.Countries110}
	if provinces {
		datasets = append(datasets, srgeo.Provinces10)
	}
	start := time.Now()
	r, err := srgeo.New(datasets...)
	if err != nil {
		return nil, fmt.Errorf("load rgeo datasets: %w", err)
	}
	slog.Debug("Loaded rgeo datasets", "n", len(datasets), "took", time.Since(start).Round(time.Millisecond))
	cache, _ := lru.New[[2]int32, string](4096)
	return &Locator{r: r, cache: cache}, nil
}

// Location is the full dataset record for lat, lon.
func (l *Locator) Location(lat, lon float64) (srgeo.Location, error) {
	return l.r.ReverseGeocode(orb.Point{lon, lat})
}

// Place is a short human name for lat, lon, like "Montana, United States of America".
// Lookups are cached on a 0.01 degree grid.
func (l *Locator) Place(lat, lon float64) string {
	key := [2]int32{int32(math.Round(lat * 100)), int32(math.Round(lon * 100))}
	if v, ok := l.cache.Get(key); ok {
		return v
	}
	v := Ocean
	if loc, err := l.Location(mgl64.Clamp(lat, -90, 90), lon); err == nil {
		v = name(loc)
	}
	l.cache.Add(key, v)
	return v
}

func name(loc srgeo.Location) string {
	parts := make([]string, 0, 2)
	if loc.Province != "" {
		parts = append(parts, loc.Province)
	}
	switch {
	case loc.CountryLong != "":
		parts = append(parts, loc.CountryLong)
	case loc.Country != "":
		parts = append(parts, loc.Country)
	}
	if len(parts) == 0 {
		return Ocean
	}
	return strings.Join(parts, ", ")
}
