package nasa

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"rootsource/internal/cache"
)

// Synthetic generators stand in when the live feed is not enabled. Values
// are seeded from a hash of the rounded coordinates so the same location
// always yields the same readings, never from wall-clock randomness.

func locationSeed(lat, lon float64) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.2f:%.2f", cache.RoundCoord(lat), cache.RoundCoord(lon))
	return h.Sum64()
}

// unit derives a stable value in [0,1) from the location seed and a
// metric-specific salt.
func unit(seed uint64, salt string) float64 {
	h := fnv.New64a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(seed >> (8 * i))
	}
	h.Write(buf[:])
	h.Write([]byte(salt))
	return float64(h.Sum64()%100000) / 100000
}

func inRange(seed uint64, salt string, lo, hi float64) float64 {
	return round2(lo + unit(seed, salt)*(hi-lo))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Service) synthetic(ds Dataset, lat, lon float64) Envelope {
	seed := locationSeed(lat, lon)
	switch ds {
	case DatasetClimate:
		return syntheticClimate(seed, lat, s.cfg.LookbackDays)
	case DatasetVegetation:
		return syntheticVegetation(seed, lat, s.now())
	case DatasetFieldImagery:
		return syntheticFieldImagery(seed, lat)
	case DatasetSoilHydrology:
		return syntheticSoilHydrology(seed)
	case DatasetGroundwater:
		return syntheticGroundwater(seed)
	default:
		return failure(ds, "unknown_dataset", string(ds))
	}
}

func syntheticClimate(seed uint64, lat float64, windowDays int) Envelope {
	// Latitude drives the baseline so tropical and temperate locations get
	// plausibly different climates.
	base := 30 - math.Abs(lat)*0.35
	avg := round2(base + inRange(seed, "temp_jitter", -3, 3))
	return Envelope{
		Dataset: DatasetClimate,
		Success: true,
		Source:  SourceSynthetic,
		Metrics: map[string]float64{
			MetricTempAvg:     avg,
			MetricTempMin:     round2(avg - inRange(seed, "temp_min_spread", 3, 8)),
			MetricTempMax:     round2(avg + inRange(seed, "temp_max_spread", 3, 8)),
			MetricPrecipTotal: inRange(seed, "precip", 5, 220),
			MetricHumidity:    inRange(seed, "humidity", 40, 90),
			MetricSolar:       inRange(seed, "solar", 12, 28),
			MetricWind:        inRange(seed, "wind", 0.5, 8),
			MetricWindowDays:  float64(windowDays),
		},
	}
}

func syntheticVegetation(seed uint64, lat float64, now time.Time) Envelope {
	ndvi := inRange(seed, "ndvi", 0.2, 0.9)
	return Envelope{
		Dataset: DatasetVegetation,
		Success: true,
		Source:  SourceSynthetic,
		Metrics: map[string]float64{
			MetricNDVI: ndvi,
			MetricEVI:  round2(ndvi * 0.85),
			MetricLAI:  inRange(seed, "lai", 0.5, 6),
		},
		Labels: map[string]string{
			LabelGrowingSeason: growingSeason(lat, now.Month()),
		},
	}
}

func syntheticFieldImagery(seed uint64, lat float64) Envelope {
	return Envelope{
		Dataset: DatasetFieldImagery,
		Success: true,
		Source:  SourceSynthetic,
		Metrics: map[string]float64{
			MetricCloudCover:   inRange(seed, "cloud", 0, 80),
			MetricSceneAgeDays: math.Floor(inRange(seed, "scene_age", 1, 16)),
			MetricResolutionM:  30,
		},
		Labels: map[string]string{
			LabelCoverage: satelliteCoverage(lat),
		},
	}
}

func syntheticSoilHydrology(seed uint64) Envelope {
	soilTypes := []string{"Loamy soil", "Clay soil", "Sandy loam", "Silty soil"}
	return Envelope{
		Dataset: DatasetSoilHydrology,
		Success: true,
		Source:  SourceSynthetic,
		Metrics: map[string]float64{
			MetricSoilMoisture: inRange(seed, "moisture", 0.1, 0.6),
			MetricSoilTemp:     inRange(seed, "soil_temp", 8, 30),
			MetricEvapotrans:   inRange(seed, "evapotrans", 1, 8),
		},
		Labels: map[string]string{
			LabelSoilType: soilTypes[seed%uint64(len(soilTypes))],
		},
	}
}

func syntheticGroundwater(seed uint64) Envelope {
	trendCm := inRange(seed, "gw_trend", -6, 4)
	trend := "stable"
	switch {
	case trendCm < -1.5:
		trend = "declining"
	case trendCm > 1.5:
		trend = "rising"
	}
	return Envelope{
		Dataset: DatasetGroundwater,
		Success: true,
		Source:  SourceSynthetic,
		Metrics: map[string]float64{
			MetricStorageAnomaly: inRange(seed, "gw_anomaly", -20, 20),
			MetricAnnualTrend:    trendCm,
		},
		Labels: map[string]string{
			LabelTrend: trend,
		},
	}
}

// growingSeason classifies the season from latitude and month. Tropics grow
// year-round; the hemispheres alternate.
func growingSeason(lat float64, month time.Month) string {
	switch {
	case math.Abs(lat) < 23.5:
		return "Year-round growing season"
	case lat > 0:
		if month >= time.March && month <= time.October {
			return "Active growing season"
		}
		return "Dormant season"
	default:
		if month >= time.October || month <= time.March {
			return "Active growing season"
		}
		return "Dormant season"
	}
}

func satelliteCoverage(lat float64) string {
	switch {
	case math.Abs(lat) <= 23.5:
		return "Tropical belt coverage (MODIS, GPM, SMAP)"
	case math.Abs(lat) > 60:
		return "Polar orbiting coverage (ICESat-2, MODIS)"
	default:
		return "Global multi-satellite coverage"
	}
}
