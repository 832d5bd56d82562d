package classify

import (
	"reflect"
	"testing"

	"rootsource/config"
)

func newTestClassifier() *Classifier {
	return New(config.DefaultKeywordConfig())
}

func TestClassifyPriorityOrder(t *testing.T) {
	c := newTestClassifier()
	cases := []struct {
		text string
		want QueryType
	}{
		{"Will it rain tomorrow for my wheat field?", TypeWeatherClimate},
		{"My tomato leaves have blight spots", TypeDiseaseDiagnosis},
		{"Best rice variety for clay soil?", TypeCropManagement},
		{"How do I raise soil ph with compost?", TypeSoilHealth},
		{"Setting up drip lines for my orchard", TypeIrrigationWater},
		{"Current market price for maize", TypeEconomicsMarket},
		{"Any government scheme for small farmers?", TypeGovernmentPolicy},
		{"Should I buy a drone for field scouting?", TypeTechnology},
		{"Tell me about farming", TypeGeneralAgriculture},
	}
	for _, tc := range cases {
		got := c.Classify(tc.text)
		if got.Primary != tc.want {
			t.Errorf("Classify(%q).Primary = %s, want %s", tc.text, got.Primary, tc.want)
		}
	}
}

func TestClassifyComplexity(t *testing.T) {
	c := newTestClassifier()
	cases := []struct {
		text string
		want Complexity
	}{
		{"How can I optimize nitrogen application with a yield model?", ComplexityAdvanced},
		{"What is crop rotation?", ComplexityBasic},
		{"Recommend a fertilizer schedule for rice", ComplexityIntermediate},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.text).Complexity; got != tc.want {
			t.Errorf("Classify(%q).Complexity = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestClassifyNeedsSearch(t *testing.T) {
	c := newTestClassifier()
	if !c.Classify("export price of rice this season").NeedsSearch {
		t.Error("market queries should request search")
	}
	if !c.Classify("research on precision irrigation optimization").NeedsSearch {
		t.Error("advanced queries should request search")
	}
	if c.Classify("when to water my paddy").NeedsSearch {
		t.Error("basic irrigation question should not request search")
	}
}

func TestSelectDatasetsSeedAndUnion(t *testing.T) {
	c := newTestClassifier()
	q := c.Classify("irrigation plan given the groundwater level")
	got := c.SelectDatasets(q, "irrigation plan given the groundwater level")
	want := []string{
		config.DatasetSoilHydrology,
		config.DatasetClimate,
		config.DatasetGroundwater,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SelectDatasets = %v, want %v", got, want)
	}
}

func TestSelectDatasetsComprehensiveFallback(t *testing.T) {
	c := newTestClassifier()
	text := "give me an overall report for my farm"
	q := c.Classify(text)
	got := c.SelectDatasets(q, text)
	if len(got) != 5 {
		t.Fatalf("ambiguous agriculture query should select all datasets, got %v", got)
	}
}

func TestSelectDatasetsNonAgricultureEmpty(t *testing.T) {
	c := newTestClassifier()
	text := "what is the capital of France"
	q := c.Classify(text)
	if got := c.SelectDatasets(q, text); len(got) != 0 {
		t.Fatalf("non-agriculture query should select nothing, got %v", got)
	}
}

func TestSelectDatasetsStableOrder(t *testing.T) {
	c := newTestClassifier()
	text := "ndvi trend and soil moisture before irrigation"
	q := c.Classify(text)
	first := c.SelectDatasets(q, text)
	for i := 0; i < 10; i++ {
		if got := c.SelectDatasets(q, text); !reflect.DeepEqual(got, first) {
			t.Fatalf("selection order unstable: %v vs %v", got, first)
		}
	}
}
