package advisor

import (
	"regexp"
	"strings"

	"rootsource/internal/nasa"
)

// Intercept identifiers recorded in the audit log.
const (
	InterceptEmpty      = "empty"
	InterceptGreeting   = "greeting"
	InterceptDataSource = "data_source"
	InterceptTest       = "test"
)

const greetingReply = "Hello! 🌱 I'm RootSource AI, your agricultural assistant. " +
	"Ask me anything about crops, soil health, weather, irrigation, pests, or market prices, " +
	"and I'll bring in satellite data for your location where it helps."

const testReply = "✅ RootSource AI is up and answering. Ask a farming question to see " +
	"the full pipeline — classification, satellite data, and a tailored answer."

const emptyReply = "I didn't catch a question there. Ask me something about your crops, " +
	"soil, water, or market — for example: **When should I plant rice?**"

// dataSourcePhrases route capability questions about our data to a canned
// explanation instead of the model.
var dataSourcePhrases = []string{
	"what data",
	"which data",
	"data do you use",
	"data source",
	"data sources",
	"nasa data",
	"which satellites",
	"what satellites",
	"satellite data do you",
}

func dataSourceReply() string {
	var b strings.Builder
	b.WriteString("I draw on five satellite data products:\n")
	for i, ds := range nasa.AllDatasets {
		b.WriteString("• **")
		b.WriteString(nasa.DisplayName[ds])
		b.WriteString("**")
		if i < len(nasa.AllDatasets)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\nWhen a live feed isn't configured, I fall back to simulated readings ")
	b.WriteString("seeded from your coordinates, and I always say which kind was used.")
	return b.String()
}

// buildGreetingPattern compiles a word-boundary matcher over the configured
// greeting list.
func buildGreetingPattern(greetings []string) *regexp.Regexp {
	if len(greetings) == 0 {
		greetings = []string{"hello"}
	}
	escaped := make([]string, 0, len(greetings))
	for _, g := range greetings {
		g = strings.TrimSpace(g)
		if g != "" {
			escaped = append(escaped, regexp.QuoteMeta(strings.ToLower(g)))
		}
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// intercept handles the special-case routes that bypass the pipeline:
// capability questions, greetings, and the diagnostic phrase. It returns the
// canned English reply and the intercept id, or ok=false to continue.
func (a *Advisor) intercept(english string) (reply, kind string, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(english))

	for _, phrase := range dataSourcePhrases {
		if strings.Contains(lower, phrase) {
			return dataSourceReply(), InterceptDataSource, true
		}
	}

	a.mu.RLock()
	greet := a.greetPattern
	a.mu.RUnlock()
	if greet.MatchString(lower) {
		return greetingReply, InterceptGreeting, true
	}

	if lower == "test" {
		return testReply, InterceptTest, true
	}
	return "", "", false
}
