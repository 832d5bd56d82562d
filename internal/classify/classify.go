// Package classify maps raw query text to a topic category, a complexity
// tier, and the datasets worth fetching. Everything here is pure keyword
// matching over config tables; there are no external calls.
package classify

import (
	"strings"

	"rootsource/config"
)

// QueryType is the primary topic category of a question.
type QueryType string

const (
	TypeWeatherClimate     QueryType = "weather_climate"
	TypeCropManagement     QueryType = "crop_management"
	TypeDiseaseDiagnosis   QueryType = "disease_diagnosis"
	TypeSoilHealth         QueryType = "soil_health"
	TypeIrrigationWater    QueryType = "irrigation_water"
	TypeEconomicsMarket    QueryType = "economics_market"
	TypeGovernmentPolicy   QueryType = "government_policy"
	TypeTechnology         QueryType = "technology"
	TypeGeneralAgriculture QueryType = "general_agriculture"
)

// Complexity is the verbosity tier used when composing the generation prompt.
type Complexity string

const (
	ComplexityBasic        Complexity = "basic"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// ClassifiedQuery is the classifier output. Created fresh per request,
// never persisted.
type ClassifiedQuery struct {
	Primary     QueryType
	Complexity  Complexity
	NeedsSearch bool
}

// Classifier evaluates the keyword tables in fixed priority order.
type Classifier struct {
	keywords config.KeywordConfig
}

// New builds a Classifier over the given keyword tables.
func New(kw config.KeywordConfig) *Classifier {
	return &Classifier{keywords: kw}
}

// Classify assigns the first matching category in table order, derives a
// complexity tier, and decides whether external search is worthwhile.
// No keyword match yields the general-agriculture intermediate default.
func (c *Classifier) Classify(text string) ClassifiedQuery {
	lower := strings.ToLower(text)

	q := ClassifiedQuery{
		Primary:    TypeGeneralAgriculture,
		Complexity: ComplexityIntermediate,
	}
	for _, rule := range c.keywords.Categories {
		if containsAny(lower, rule.Keywords) {
			q.Primary = QueryType(rule.Type)
			break
		}
	}

	switch {
	case containsAny(lower, c.keywords.AdvancedTerms):
		q.Complexity = ComplexityAdvanced
	case containsAny(lower, c.keywords.BasicTerms):
		q.Complexity = ComplexityBasic
	}

	switch q.Primary {
	case TypeEconomicsMarket, TypeGovernmentPolicy, TypeTechnology:
		q.NeedsSearch = true
	default:
		q.NeedsSearch = q.Complexity == ComplexityAdvanced
	}
	return q
}

// SelectDatasets maps a classified query plus the raw text to the dataset
// identifiers to fetch. The order is first-matched-first and stable across
// calls. An empty result means the text is not agriculture-related and no
// enrichment should be attempted.
func (c *Classifier) SelectDatasets(q ClassifiedQuery, rawText string) []string {
	lower := strings.ToLower(rawText)

	var out []string
	seen := make(map[string]bool)
	add := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}

	add(c.keywords.DatasetsByType[string(q.Primary)])
	for _, rule := range c.keywords.DatasetRules {
		if containsAny(lower, rule.Keywords) {
			add(rule.Datasets)
		}
	}

	if len(out) == 0 {
		if c.keywords.HasAgricultureTerm(rawText) {
			add(c.keywords.ComprehensiveSet)
			return out
		}
		return nil
	}
	return out
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
