// Package geo resolves the request location from explicit coordinates, a
// free-text place description, or the client's network identity, in that
// order of preference. Resolution never fails: every path ends at the
// configured regional fallback.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rootsource/config"
	"rootsource/internal/cache"
)

// Location is a resolved geographic fix. Approximate marks the regional
// fallback: coordinates good enough to display, not good enough to anchor
// satellite data fetches.
type Location struct {
	Lat         float64 `json:"latitude"`
	Lon         float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
	Approximate bool    `json:"approximate,omitempty"`
}

// InputKind tags the Input union.
type InputKind int

const (
	KindUnspecified InputKind = iota
	KindCoordinates
	KindPlaceText
)

// Input is the tagged union of the ways a caller can declare a location.
type Input struct {
	Kind  InputKind
	Lat   float64
	Lon   float64
	Place string
}

// Coordinates builds an explicit-coordinates input.
func Coordinates(lat, lon float64) Input {
	return Input{Kind: KindCoordinates, Lat: lat, Lon: lon}
}

// Place builds a free-text place input.
func Place(text string) Input {
	return Input{Kind: KindPlaceText, Place: text}
}

// Unspecified builds an input that resolves from the client identity.
func Unspecified() Input {
	return Input{Kind: KindUnspecified}
}

// wellKnownPlaces short-circuits the remote geocoder for the region's common
// agricultural capitals. Checked in order, first match wins.
var wellKnownPlaces = []struct {
	key string
	loc Location
}{
	{"dhaka", Location{Lat: 23.8103, Lon: 90.4125, DisplayName: "Dhaka, Bangladesh"}},
	{"new delhi", Location{Lat: 28.6139, Lon: 77.2090, DisplayName: "New Delhi, India"}},
	{"delhi", Location{Lat: 28.6139, Lon: 77.2090, DisplayName: "New Delhi, India"}},
	{"islamabad", Location{Lat: 33.6844, Lon: 73.0479, DisplayName: "Islamabad, Pakistan"}},
	{"colombo", Location{Lat: 6.9271, Lon: 79.8612, DisplayName: "Colombo, Sri Lanka"}},
	{"kathmandu", Location{Lat: 27.7172, Lon: 85.3240, DisplayName: "Kathmandu, Nepal"}},
	{"kansas", Location{Lat: 39.8283, Lon: -98.5795, DisplayName: "Kansas, United States"}},
	{"brasilia", Location{Lat: -14.2350, Lon: -51.9253, DisplayName: "Brasília, Brazil"}},
	{"alice springs", Location{Lat: -25.2744, Lon: 133.7751, DisplayName: "Alice Springs, Australia"}},
}

type ipProvider struct {
	name  string
	build func(base, ip string) string
	parse func(data []byte) (Location, bool)
}

// Resolver turns an Input plus client identity into a Location.
type Resolver struct {
	cfg    config.GeoConfig
	store  *cache.Store
	client *http.Client
	ttl    time.Duration

	providers []ipProvider
	// ipBase overrides the provider hosts in tests.
	ipBase string
}

// NewResolver builds a Resolver. A nil client gets a default with the
// configured timeout.
func NewResolver(cfg config.GeoConfig, cacheCfg config.CacheConfig, store *cache.Store, client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
	}
	if store == nil {
		store = cache.New()
	}
	return &Resolver{
		cfg:       cfg,
		store:     store,
		client:    client,
		ttl:       time.Duration(cacheCfg.LocationTTLSec) * time.Second,
		providers: defaultProviders(),
	}
}

func defaultProviders() []ipProvider {
	return []ipProvider{
		{
			name: "ipapi.co",
			build: func(base, ip string) string {
				return fmt.Sprintf("%s/%s/json/", orDefault(base, "https://ipapi.co"), ip)
			},
			parse: func(data []byte) (Location, bool) {
				var body struct {
					Latitude  float64 `json:"latitude"`
					Longitude float64 `json:"longitude"`
					City      string  `json:"city"`
					Country   string  `json:"country_name"`
				}
				if json.Unmarshal(data, &body) != nil {
					return Location{}, false
				}
				return makeIPLocation(body.Latitude, body.Longitude, body.City, body.Country)
			},
		},
		{
			name: "ip-api.com",
			build: func(base, ip string) string {
				return fmt.Sprintf("%s/json/%s", orDefault(base, "http://ip-api.com"), ip)
			},
			parse: func(data []byte) (Location, bool) {
				var body struct {
					Status  string  `json:"status"`
					Lat     float64 `json:"lat"`
					Lon     float64 `json:"lon"`
					City    string  `json:"city"`
					Country string  `json:"country"`
				}
				if json.Unmarshal(data, &body) != nil || body.Status != "success" {
					return Location{}, false
				}
				return makeIPLocation(body.Lat, body.Lon, body.City, body.Country)
			},
		},
		{
			name: "ipinfo.io",
			build: func(base, ip string) string {
				return fmt.Sprintf("%s/%s/json", orDefault(base, "https://ipinfo.io"), ip)
			},
			parse: func(data []byte) (Location, bool) {
				var body struct {
					Loc     string `json:"loc"`
					City    string `json:"city"`
					Country string `json:"country"`
				}
				if json.Unmarshal(data, &body) != nil {
					return Location{}, false
				}
				parts := strings.SplitN(body.Loc, ",", 2)
				if len(parts) != 2 {
					return Location{}, false
				}
				lat, err1 := strconv.ParseFloat(parts[0], 64)
				lon, err2 := strconv.ParseFloat(parts[1], 64)
				if err1 != nil || err2 != nil {
					return Location{}, false
				}
				return makeIPLocation(lat, lon, body.City, body.Country)
			},
		},
	}
}

func makeIPLocation(lat, lon float64, city, country string) (Location, bool) {
	if lat == 0 && lon == 0 {
		return Location{}, false
	}
	display := strings.TrimSpace(strings.Trim(city+", "+country, ", "))
	if display == "" {
		display = fmt.Sprintf("%.2f, %.2f", lat, lon)
	}
	return Location{Lat: lat, Lon: lon, DisplayName: display}, true
}

func orDefault(v, fallback string) string {
	if v != "" {
		return strings.TrimRight(v, "/")
	}
	return fallback
}

// Resolve maps the input to a location. Unspecified inputs are cached by
// client identity so repeat visitors skip the IP chain.
func (r *Resolver) Resolve(ctx context.Context, in Input, clientID string) Location {
	switch in.Kind {
	case KindCoordinates:
		return Location{
			Lat:         in.Lat,
			Lon:         in.Lon,
			DisplayName: fmt.Sprintf("%.4f, %.4f", in.Lat, in.Lon),
		}
	case KindPlaceText:
		if loc, ok := r.Geocode(ctx, in.Place); ok {
			return loc
		}
		return r.fallback("")
	default:
		return r.resolveByClient(ctx, clientID)
	}
}

// Geocode resolves a place description, checking the well-known table before
// the remote geocoder.
func (r *Resolver) Geocode(ctx context.Context, place string) (Location, bool) {
	lower := strings.ToLower(strings.TrimSpace(place))
	if lower == "" {
		return Location{}, false
	}
	for _, entry := range wellKnownPlaces {
		if strings.Contains(lower, entry.key) {
			return entry.loc, true
		}
	}
	return r.remoteGeocode(ctx, place)
}

func (r *Resolver) remoteGeocode(ctx context.Context, place string) (Location, bool) {
	endpoint := strings.TrimRight(r.cfg.GeocodeBaseURL, "/") + "/search?format=json&limit=1&q=" + url.QueryEscape(place)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Location{}, false
	}
	req.Header.Set("User-Agent", "rootsource/1.0")
	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("geocode failed place=%q err=%v", place, err)
		return Location{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("geocode failed place=%q status=%d", place, resp.StatusCode)
		return Location{}, false
	}
	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil || len(results) == 0 {
		return Location{}, false
	}
	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return Location{}, false
	}
	return Location{Lat: lat, Lon: lon, DisplayName: results[0].DisplayName}, true
}

func (r *Resolver) resolveByClient(ctx context.Context, clientID string) Location {
	if isLocalClient(clientID) {
		return r.fallback(" (localhost)")
	}
	ip := clientID
	if host, _, err := net.SplitHostPort(clientID); err == nil {
		ip = host
	}
	key := cache.LocationKey(ip)
	if v, ok := r.store.Get(key); ok {
		if loc, ok := v.(Location); ok {
			return loc
		}
	}
	for _, p := range r.providers {
		loc, ok := r.lookupIP(ctx, p, ip)
		if ok {
			r.store.Set(key, loc, r.ttl)
			return loc
		}
	}
	log.Printf("ip geolocation exhausted client=%s, using fallback", ip)
	return r.fallback(" (fallback)")
}

func (r *Resolver) lookupIP(ctx context.Context, p ipProvider, ip string) (Location, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.build(r.ipBase, ip), nil)
	if err != nil {
		return Location{}, false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("ip geolocation failed provider=%s err=%v", p.name, err)
		return Location{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Location{}, false
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Location{}, false
	}
	return p.parse(data)
}

func isLocalClient(clientID string) bool {
	host := clientID
	if h, _, err := net.SplitHostPort(clientID); err == nil {
		host = h
	}
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func (r *Resolver) fallback(suffix string) Location {
	return Location{
		Lat:         r.cfg.FallbackLat,
		Lon:         r.cfg.FallbackLon,
		DisplayName: r.cfg.FallbackLabel + suffix,
		Approximate: true,
	}
}
