package config

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeywordConfig externalizes the classifier and dataset-selection vocabulary
// so the tables can be tuned from config.yaml without code changes. Category
// order is priority order: the first rule whose keyword matches wins.
type KeywordConfig struct {
	Categories       []CategoryRule      `json:"categories" yaml:"categories"`
	AdvancedTerms    []string            `json:"advanced_terms" yaml:"advanced_terms"`
	BasicTerms       []string            `json:"basic_terms" yaml:"basic_terms"`
	DatasetsByType   map[string][]string `json:"datasets_by_type" yaml:"datasets_by_type"`
	DatasetRules     []DatasetRule       `json:"dataset_rules" yaml:"dataset_rules"`
	AgricultureTerms []string            `json:"agriculture_terms" yaml:"agriculture_terms"`
	ComprehensiveSet []string            `json:"comprehensive_set" yaml:"comprehensive_set"`
	Greetings        []string            `json:"greetings" yaml:"greetings"`
}

// CategoryRule binds a query type to the keywords that select it.
type CategoryRule struct {
	Type     string   `json:"type" yaml:"type"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// DatasetRule maps free-text keywords to dataset identifiers, finer grained
// than the per-type table.
type DatasetRule struct {
	Keywords []string `json:"keywords" yaml:"keywords"`
	Datasets []string `json:"datasets" yaml:"datasets"`
}

// Dataset identifiers used across the keyword tables. The canonical enum
// lives in internal/nasa; these strings must stay in sync with it.
const (
	DatasetClimate       = "climate"
	DatasetVegetation    = "vegetation"
	DatasetFieldImagery  = "field_imagery"
	DatasetSoilHydrology = "soil_hydrology"
	DatasetGroundwater   = "groundwater"
)

// DefaultKeywordConfig returns the baked-in vocabulary.
func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{
		Categories: []CategoryRule{
			{Type: "weather_climate", Keywords: []string{"weather", "climate", "temperature", "rain", "rainfall", "drought", "humidity", "wind", "frost", "heatwave", "monsoon"}},
			{Type: "disease_diagnosis", Keywords: []string{"disease", "pest", "insect", "bug", "fungus", "blight", "virus", "infestation", "mildew", "rot"}},
			{Type: "crop_management", Keywords: []string{"crop", "plant", "grow", "harvest", "seed", "variety", "cultivar", "sowing", "rotation", "pruning"}},
			{Type: "soil_health", Keywords: []string{"soil", "fertilizer", "nutrition", "ph", "compost", "organic matter", "nitrogen", "erosion"}},
			{Type: "irrigation_water", Keywords: []string{"irrigation", "water", "drip", "sprinkler", "groundwater", "aquifer", "moisture"}},
			{Type: "economics_market", Keywords: []string{"market", "price", "sell", "profit", "cost", "economic", "export", "subsidy rate"}},
			{Type: "government_policy", Keywords: []string{"policy", "government", "subsidy", "regulation", "scheme", "loan", "insurance"}},
			{Type: "technology", Keywords: []string{"equipment", "machinery", "technology", "drone", "sensor", "satellite", "precision", "automation", "tractor"}},
		},
		AdvancedTerms: []string{"optimize", "optimization", "research", "scientific", "analysis", "yield model", "maximize", "precision", "data-driven"},
		BasicTerms:    []string{"what is", "hello", "when to", "how do i", "can i", "beginner"},
		DatasetsByType: map[string][]string{
			"weather_climate":   {DatasetClimate},
			"crop_management":   {DatasetClimate, DatasetVegetation},
			"disease_diagnosis": {DatasetVegetation, DatasetClimate},
			"soil_health":       {DatasetSoilHydrology},
			"irrigation_water":  {DatasetSoilHydrology, DatasetClimate, DatasetGroundwater},
			"technology":        {DatasetFieldImagery},
		},
		DatasetRules: []DatasetRule{
			{Keywords: []string{"groundwater", "aquifer", "water table", "well"}, Datasets: []string{DatasetGroundwater}},
			{Keywords: []string{"ndvi", "vegetation", "canopy", "greenness", "biomass"}, Datasets: []string{DatasetVegetation}},
			{Keywords: []string{"satellite", "imagery", "field map", "remote sensing"}, Datasets: []string{DatasetFieldImagery}},
			{Keywords: []string{"soil moisture", "evapotranspiration", "waterlogging", "drainage"}, Datasets: []string{DatasetSoilHydrology}},
			{Keywords: []string{"temperature", "rain", "rainfall", "frost", "drought", "humidity", "solar"}, Datasets: []string{DatasetClimate}},
			{Keywords: []string{"irrigation", "watering"}, Datasets: []string{DatasetSoilHydrology, DatasetGroundwater}},
		},
		AgricultureTerms: []string{
			"crop", "farm", "farming", "plant", "soil", "harvest", "seed", "irrigation",
			"fertilizer", "pest", "agriculture", "agronomy", "livestock", "yield",
			"organic", "greenhouse", "orchard", "paddy", "wheat", "rice", "maize", "vegetable",
		},
		ComprehensiveSet: []string{DatasetClimate, DatasetVegetation, DatasetFieldImagery, DatasetSoilHydrology, DatasetGroundwater},
		Greetings:        []string{"hi", "hello", "hey", "greetings"},
	}
}

// LoadKeywordConfig reads the keywords section of the YAML config and merges
// it with defaults.
func LoadKeywordConfig(path string) (KeywordConfig, error) {
	cfg := DefaultKeywordConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	var parsed struct {
		Keywords KeywordConfig `json:"keywords" yaml:"keywords"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return cfg, err
	}
	return MergeKeywordConfig(cfg, parsed.Keywords), nil
}

// MergeKeywordConfig overlays non-empty tables onto the base config. Tables
// omitted from the override keep their defaults.
func MergeKeywordConfig(base KeywordConfig, override KeywordConfig) KeywordConfig {
	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}
	if len(override.AdvancedTerms) > 0 {
		base.AdvancedTerms = override.AdvancedTerms
	}
	if len(override.BasicTerms) > 0 {
		base.BasicTerms = override.BasicTerms
	}
	if len(override.DatasetsByType) > 0 {
		base.DatasetsByType = override.DatasetsByType
	}
	if len(override.DatasetRules) > 0 {
		base.DatasetRules = override.DatasetRules
	}
	if len(override.AgricultureTerms) > 0 {
		base.AgricultureTerms = override.AgricultureTerms
	}
	if len(override.ComprehensiveSet) > 0 {
		base.ComprehensiveSet = override.ComprehensiveSet
	}
	if len(override.Greetings) > 0 {
		base.Greetings = override.Greetings
	}
	return base
}

// HasAgricultureTerm reports whether text mentions any generic agriculture
// vocabulary. Matching is case-insensitive substring, same as the tables.
func (k KeywordConfig) HasAgricultureTerm(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range k.AgricultureTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
