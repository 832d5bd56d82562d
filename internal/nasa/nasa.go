// Package nasa fetches satellite-derived agricultural datasets. Each dataset
// has one fetcher that either calls the live endpoint (when enabled) or
// produces deterministic location-seeded synthetic values. Results always
// come back as an Envelope; fetchers never fail past their own boundary.
package nasa

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"rootsource/config"
	"rootsource/internal/cache"
)

// Dataset identifies one satellite data product.
type Dataset string

const (
	DatasetClimate       Dataset = "climate"
	DatasetVegetation    Dataset = "vegetation"
	DatasetFieldImagery  Dataset = "field_imagery"
	DatasetSoilHydrology Dataset = "soil_hydrology"
	DatasetGroundwater   Dataset = "groundwater"
)

// AllDatasets lists every dataset in canonical display order.
var AllDatasets = []Dataset{
	DatasetClimate,
	DatasetVegetation,
	DatasetFieldImagery,
	DatasetSoilHydrology,
	DatasetGroundwater,
}

// Source states where the numbers in an envelope came from. Synthetic data
// is never presented as live telemetry.
type Source string

const (
	SourceNASAPower Source = "nasa-power"
	SourceSynthetic Source = "synthetic"
)

// FetchError carries a machine-stable reason code plus a human string.
type FetchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Envelope is the uniform result of one fetch attempt. Metrics is non-empty
// iff Success is true.
type Envelope struct {
	Dataset Dataset            `json:"dataset"`
	Success bool               `json:"success"`
	Source  Source             `json:"source,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Labels  map[string]string  `json:"labels,omitempty"`
	Err     *FetchError        `json:"error,omitempty"`
}

// Metric names shared between fetchers and the synthesizer.
const (
	MetricTempAvg     = "temperature_avg"
	MetricTempMin     = "temperature_min"
	MetricTempMax     = "temperature_max"
	MetricPrecipTotal = "precipitation_total"
	MetricHumidity    = "humidity"
	MetricSolar       = "solar_radiation"
	MetricWind        = "wind_speed"
	MetricWindowDays  = "window_days"

	MetricNDVI = "ndvi"
	MetricEVI  = "evi"
	MetricLAI  = "lai"

	MetricCloudCover   = "cloud_cover"
	MetricSceneAgeDays = "scene_age_days"
	MetricResolutionM  = "resolution_m"

	MetricSoilMoisture = "soil_moisture"
	MetricSoilTemp     = "soil_temperature"
	MetricEvapotrans   = "evapotranspiration"

	MetricStorageAnomaly = "storage_anomaly_cm"
	MetricAnnualTrend    = "annual_trend_cm"
)

// Label names.
const (
	LabelGrowingSeason = "growing_season"
	LabelSoilType      = "soil_type"
	LabelCoverage      = "coverage"
	LabelTrend         = "trend"
)

// DisplayName maps dataset identifiers to the product names shown in
// attribution text.
var DisplayName = map[Dataset]string{
	DatasetClimate:       "NASA POWER (climate)",
	DatasetVegetation:    "MODIS (vegetation)",
	DatasetFieldImagery:  "Landsat (field imagery)",
	DatasetSoilHydrology: "GLDAS/SMAP (soil hydrology)",
	DatasetGroundwater:   "GRACE (groundwater)",
}

// Service fetches datasets with a per-dataset TTL cache in front.
type Service struct {
	cfg    config.DataConfig
	store  *cache.Store
	client *http.Client
	now    func() time.Time

	fastTTL time.Duration
	slowTTL time.Duration
}

// NewService builds a Service. A nil client or clock gets sane defaults.
func NewService(cfg config.DataConfig, cacheCfg config.CacheConfig, store *cache.Store, client *http.Client, now func() time.Time) *Service {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
	}
	if now == nil {
		now = time.Now
	}
	if store == nil {
		store = cache.New()
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		client:  client,
		now:     now,
		fastTTL: time.Duration(cacheCfg.FastDatasetTTLSec) * time.Second,
		slowTTL: time.Duration(cacheCfg.SlowDatasetTTLSec) * time.Second,
	}
}

func (s *Service) ttl(ds Dataset) time.Duration {
	if ds == DatasetClimate {
		return s.fastTTL
	}
	return s.slowTTL
}

// Fetch returns the envelope for one dataset at the given coordinates,
// serving from cache when a same-day entry within TTL exists. Only
// successful envelopes are cached; failures stay retryable.
func (s *Service) Fetch(ctx context.Context, ds Dataset, lat, lon float64) Envelope {
	key := cache.DatasetKey(string(ds), lat, lon, s.cfg.LookbackDays, s.now())
	if v, ok := s.store.Get(key); ok {
		if env, ok := v.(Envelope); ok {
			return env
		}
	}
	env := s.fetchOne(ctx, ds, lat, lon)
	if env.Success {
		s.store.Set(key, env, s.ttl(ds))
	}
	return env
}

func (s *Service) fetchOne(ctx context.Context, ds Dataset, lat, lon float64) Envelope {
	if ds == DatasetClimate && s.cfg.LiveEnabled {
		env, err := s.fetchPower(ctx, lat, lon)
		if err != nil {
			log.Printf("dataset fetch failed dataset=%s lat=%.2f lon=%.2f err=%v", ds, lat, lon, err)
			return failure(ds, "remote_error", err.Error())
		}
		return env
	}
	return s.synthetic(ds, lat, lon)
}

// FetchAll fans out one goroutine per dataset and collects the envelopes in
// input order. A panicking fetcher is converted to a failure envelope and
// never affects its siblings.
func (s *Service) FetchAll(ctx context.Context, datasets []Dataset, lat, lon float64) []Envelope {
	results := make([]Envelope, len(datasets))
	done := make(chan int, len(datasets))
	for i, ds := range datasets {
		go func(i int, ds Dataset) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("dataset fetch panic dataset=%s err=%v", ds, r)
					results[i] = failure(ds, "panic", fmt.Sprintf("%v", r))
				}
				done <- i
			}()
			results[i] = s.Fetch(ctx, ds, lat, lon)
		}(i, ds)
	}
	for range datasets {
		<-done
	}
	return results
}

func failure(ds Dataset, code, msg string) Envelope {
	return Envelope{
		Dataset: ds,
		Success: false,
		Err:     &FetchError{Code: code, Message: msg},
	}
}
