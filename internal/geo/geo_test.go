package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rootsource/config"
	"rootsource/internal/cache"
)

func testGeoConfig() config.GeoConfig {
	return config.GeoConfig{
		GeocodeBaseURL: "http://unused.invalid",
		TimeoutSec:     2,
		FallbackLat:    23.8103,
		FallbackLon:    90.4125,
		FallbackLabel:  "Dhaka, Bangladesh",
	}
}

func newTestResolver(client *http.Client) *Resolver {
	return NewResolver(testGeoConfig(), config.CacheConfig{LocationTTLSec: 3600}, cache.New(), client)
}

func TestResolveExplicitCoordinates(t *testing.T) {
	r := newTestResolver(nil)
	loc := r.Resolve(context.Background(), Coordinates(28.6139, 77.209), "1.2.3.4")
	if loc.Lat != 28.6139 || loc.Lon != 77.209 {
		t.Fatalf("unexpected coords: %+v", loc)
	}
	if loc.DisplayName != "28.6139, 77.2090" {
		t.Fatalf("unexpected display name: %q", loc.DisplayName)
	}
}

func TestGeocodeWellKnownPlaceSkipsRemote(t *testing.T) {
	r := newTestResolver(nil)
	loc, ok := r.Geocode(context.Background(), "I farm near New Delhi")
	if !ok {
		t.Fatal("expected well-known match")
	}
	if loc.DisplayName != "New Delhi, India" {
		t.Fatalf("unexpected location: %+v", loc)
	}
}

func TestGeocodeRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "q=") {
			t.Errorf("missing query parameter: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"lat":"52.52","lon":"13.405","display_name":"Berlin, Germany"}]`))
	}))
	defer srv.Close()

	cfg := testGeoConfig()
	cfg.GeocodeBaseURL = srv.URL
	r := NewResolver(cfg, config.CacheConfig{LocationTTLSec: 3600}, cache.New(), srv.Client())
	loc, ok := r.Geocode(context.Background(), "Berlin")
	if !ok || loc.DisplayName != "Berlin, Germany" {
		t.Fatalf("unexpected result: %+v ok=%v", loc, ok)
	}
}

func TestPlaceTextGeocodeFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := testGeoConfig()
	cfg.GeocodeBaseURL = srv.URL
	r := NewResolver(cfg, config.CacheConfig{LocationTTLSec: 3600}, cache.New(), srv.Client())
	loc := r.Resolve(context.Background(), Place("nowhere in particular xyz"), "1.2.3.4")
	if loc.Lat != 23.8103 {
		t.Fatalf("expected fallback location, got %+v", loc)
	}
}

func TestLocalhostGetsFallbackWithSuffix(t *testing.T) {
	r := newTestResolver(nil)
	for _, id := range []string{"127.0.0.1:52110", "::1", "localhost", ""} {
		loc := r.Resolve(context.Background(), Unspecified(), id)
		if !strings.HasSuffix(loc.DisplayName, "(localhost)") {
			t.Fatalf("client %q: expected localhost suffix, got %q", id, loc.DisplayName)
		}
		if loc.Lat != 23.8103 || loc.Lon != 90.4125 {
			t.Fatalf("client %q: expected fallback coords, got %+v", id, loc)
		}
		if !loc.Approximate {
			t.Fatalf("client %q: fallback fix should be approximate", id)
		}
	}
}

func TestIPChainTriesNextProviderAndCaches(t *testing.T) {
	var firstCalls, secondCalls int
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstCalls++
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondCalls++
		w.Write([]byte(`{"status":"success","lat":6.9271,"lon":79.8612,"city":"Colombo","country":"Sri Lanka"}`))
	}))
	defer second.Close()

	r := newTestResolver(http.DefaultClient)
	r.providers = []ipProvider{
		{
			name:  "first",
			build: func(_, ip string) string { return first.URL + "/" + ip },
			parse: defaultProviders()[0].parse,
		},
		{
			name:  "second",
			build: func(_, ip string) string { return second.URL + "/" + ip },
			parse: defaultProviders()[1].parse,
		},
	}

	loc := r.Resolve(context.Background(), Unspecified(), "203.0.113.9:4411")
	if loc.DisplayName != "Colombo, Sri Lanka" {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if firstCalls != 1 || secondCalls != 1 {
		t.Fatalf("expected one call each, got %d/%d", firstCalls, secondCalls)
	}

	again := r.Resolve(context.Background(), Unspecified(), "203.0.113.9:4411")
	if again.DisplayName != loc.DisplayName {
		t.Fatalf("cached resolve mismatch: %+v", again)
	}
	if firstCalls != 1 || secondCalls != 1 {
		t.Fatalf("second resolve should come from cache, got %d/%d calls", firstCalls, secondCalls)
	}
}

func TestIPChainExhaustedUsesFallback(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer dead.Close()

	r := newTestResolver(http.DefaultClient)
	for i := range r.providers {
		p := r.providers[i]
		r.providers[i].build = func(_, ip string) string { return dead.URL + "/" + ip }
		r.providers[i].parse = p.parse
	}

	loc := r.Resolve(context.Background(), Unspecified(), "198.51.100.7:9000")
	if !strings.HasSuffix(loc.DisplayName, "(fallback)") {
		t.Fatalf("expected fallback suffix, got %q", loc.DisplayName)
	}
}
