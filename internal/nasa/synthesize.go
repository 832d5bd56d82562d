package nasa

import (
	"fmt"
	"strings"

	"rootsource/internal/classify"
)

// Summary is the synthesized interpretation of a set of envelopes.
type Summary struct {
	Insights        []string
	Alerts          []string
	Recommendations []string

	Used      []Dataset
	Attempted []Dataset
	Synthetic bool
}

// Synthesize applies the per-dataset threshold rules to each successful
// envelope, in envelope order. It is a pure function: the same envelopes and
// query always produce identical output. Failure envelopes contribute no
// lines but still count as attempted.
func Synthesize(envelopes []Envelope, q classify.ClassifiedQuery) Summary {
	var sum Summary
	for _, env := range envelopes {
		sum.Attempted = append(sum.Attempted, env.Dataset)
		if !env.Success {
			continue
		}
		sum.Used = append(sum.Used, env.Dataset)
		if env.Source == SourceSynthetic {
			sum.Synthetic = true
		}
		switch env.Dataset {
		case DatasetClimate:
			synthesizeClimate(&sum, env, q)
		case DatasetVegetation:
			synthesizeVegetation(&sum, env)
		case DatasetFieldImagery:
			synthesizeFieldImagery(&sum, env)
		case DatasetSoilHydrology:
			synthesizeSoilHydrology(&sum, env)
		case DatasetGroundwater:
			synthesizeGroundwater(&sum, env)
		}
	}
	return sum
}

func synthesizeClimate(sum *Summary, env Envelope, q classify.ClassifiedQuery) {
	temp := env.Metrics[MetricTempAvg]
	precip := env.Metrics[MetricPrecipTotal]
	window := int(env.Metrics[MetricWindowDays])
	if window <= 0 {
		window = 30
	}

	switch {
	case temp < 5:
		sum.Alerts = append(sum.Alerts, fmt.Sprintf("Frost risk: average temperature %.1f°C", temp))
		sum.Recommendations = append(sum.Recommendations, "Protect frost-sensitive plants; consider row covers or greenhouse cultivation")
	case temp > 30:
		sum.Alerts = append(sum.Alerts, fmt.Sprintf("Heat stress: average temperature %.1f°C", temp))
		sum.Recommendations = append(sum.Recommendations, "Increase irrigation frequency and provide shade for sensitive crops")
	default:
		sum.Insights = append(sum.Insights, fmt.Sprintf("Average temperature %.1f°C (range %.1f°C to %.1f°C)", temp, env.Metrics[MetricTempMin], env.Metrics[MetricTempMax]))
	}

	switch {
	case precip < 25:
		sum.Alerts = append(sum.Alerts, fmt.Sprintf("Drought conditions: only %.1fmm of rain over the past %d days", precip, window))
		sum.Recommendations = append(sum.Recommendations, "Supplemental irrigation is likely necessary for optimal growth")
	case precip > 150:
		sum.Alerts = append(sum.Alerts, fmt.Sprintf("Heavy rainfall: %.1fmm over the past %d days", precip, window))
		sum.Recommendations = append(sum.Recommendations, "Ensure field drainage to prevent waterlogging and root rot")
	default:
		sum.Insights = append(sum.Insights, fmt.Sprintf("Rainfall of %.1fmm over the past %d days is within a workable range", precip, window))
	}

	if env.Metrics[MetricHumidity] > 80 && q.Primary == classify.TypeDiseaseDiagnosis {
		sum.Recommendations = append(sum.Recommendations, fmt.Sprintf("Humidity at %.0f%% favors fungal disease; scout susceptible crops closely", env.Metrics[MetricHumidity]))
	}
	if env.Metrics[MetricSolar] > 25 {
		sum.Insights = append(sum.Insights, fmt.Sprintf("Solar radiation at %.1f MJ/m²/day is excellent for photosynthesis", env.Metrics[MetricSolar]))
	}
}

func synthesizeVegetation(sum *Summary, env Envelope) {
	ndvi := env.Metrics[MetricNDVI]
	sum.Insights = append(sum.Insights, fmt.Sprintf("Vegetation health: %s (NDVI %.2f)", interpretNDVI(ndvi), ndvi))
	switch {
	case ndvi > 0.8:
		sum.Insights = append(sum.Insights, "Canopy vigor is optimal; maintain the current management program")
	case ndvi < 0.3:
		sum.Alerts = append(sum.Alerts, fmt.Sprintf("Critical vegetation stress (NDVI %.2f)", ndvi))
		sum.Recommendations = append(sum.Recommendations, "Investigate nutrient deficiency, water stress, or pest damage; a soil test is a good first step")
	}
	if season := env.Labels[LabelGrowingSeason]; season != "" {
		sum.Insights = append(sum.Insights, season)
	}
}

func synthesizeFieldImagery(sum *Summary, env Envelope) {
	cloud := env.Metrics[MetricCloudCover]
	age := int(env.Metrics[MetricSceneAgeDays])
	if cloud > 60 {
		sum.Insights = append(sum.Insights, fmt.Sprintf("Recent field imagery is mostly cloud-obscured (%.0f%% cover); expect a clearer pass within the revisit cycle", cloud))
		return
	}
	line := fmt.Sprintf("Usable field imagery available: %d-day-old scene at %.0fm resolution, %.0f%% cloud cover", age, env.Metrics[MetricResolutionM], cloud)
	if cov := env.Labels[LabelCoverage]; cov != "" {
		line += " (" + cov + ")"
	}
	sum.Insights = append(sum.Insights, line)
}

func synthesizeSoilHydrology(sum *Summary, env Envelope) {
	moisture := env.Metrics[MetricSoilMoisture]
	switch {
	case moisture < 0.15:
		sum.Alerts = append(sum.Alerts, fmt.Sprintf("Soil is very dry (%.2f m³/m³)", moisture))
		sum.Recommendations = append(sum.Recommendations, "Immediate irrigation recommended")
	case moisture < 0.25:
		sum.Recommendations = append(sum.Recommendations, fmt.Sprintf("Soil moisture is low (%.2f m³/m³); irrigation needed soon", moisture))
	case moisture > 0.35:
		sum.Recommendations = append(sum.Recommendations, fmt.Sprintf("Soil moisture is high (%.2f m³/m³); reduce irrigation", moisture))
	default:
		sum.Insights = append(sum.Insights, fmt.Sprintf("Soil moisture at %.2f m³/m³ is optimal; maintain the current irrigation schedule", moisture))
	}
	if soilType := env.Labels[LabelSoilType]; soilType != "" {
		sum.Insights = append(sum.Insights, fmt.Sprintf("%s at %.1f°C with evapotranspiration of %.1f mm/day", soilType, env.Metrics[MetricSoilTemp], env.Metrics[MetricEvapotrans]))
	}
}

func synthesizeGroundwater(sum *Summary, env Envelope) {
	switch env.Labels[LabelTrend] {
	case "declining":
		sum.Alerts = append(sum.Alerts, fmt.Sprintf("Groundwater storage is declining (%.1f cm/year)", env.Metrics[MetricAnnualTrend]))
		sum.Recommendations = append(sum.Recommendations, "Prefer water-efficient irrigation (drip or scheduling by soil moisture) to slow aquifer drawdown")
	case "rising":
		sum.Insights = append(sum.Insights, fmt.Sprintf("Groundwater storage is recharging (+%.1f cm/year)", env.Metrics[MetricAnnualTrend]))
	default:
		sum.Insights = append(sum.Insights, "Groundwater storage is stable")
	}
}

func interpretNDVI(ndvi float64) string {
	switch {
	case ndvi > 0.7:
		return "excellent"
	case ndvi > 0.5:
		return "good"
	case ndvi > 0.3:
		return "moderate"
	default:
		return "poor"
	}
}

// EnrichmentText renders the summary as the Analysis / Alerts /
// Recommendations block injected into the generation prompt. Empty sections
// are omitted; an empty summary renders to an empty string.
func (s Summary) EnrichmentText() string {
	var b strings.Builder
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(title)
		b.WriteString(":\n")
		for _, line := range lines {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	section("Analysis", s.Insights)
	section("Alerts", s.Alerts)
	section("Recommendations", s.Recommendations)
	return b.String()
}
