package advisor

import (
	"strings"

	"rootsource/internal/classify"
	"rootsource/internal/geo"
	"rootsource/internal/llm"
)

const basePersona = "You are RootSource AI, an expert agricultural advisor. " +
	"Give practical, region-aware farming guidance. Use **bold** for key terms, " +
	"• bullets for lists, and numbered steps for procedures."

// advancedInstructions expands the system prompt for ADVANCED queries. Basic
// and intermediate questions get the short persona to keep generation cheap.
const advancedInstructions = `
Structure the answer in sections:
1. Direct answer to the question.
2. The science behind it, citing the satellite readings where given.
3. Step-by-step recommendations with quantities and timing.
4. Risks and what to monitor next.`

// composePrompt assembles the chat messages: persona scaled by complexity,
// prior turns, then the user question with location and satellite context.
func composePrompt(q classify.ClassifiedQuery, loc geo.Location, enrichment, question string, turns []Turn) []llm.Message {
	system := basePersona
	if q.Complexity == classify.ComplexityAdvanced {
		system += advancedInstructions
	}

	messages := []llm.Message{{Role: "system", Content: system}}
	for _, turn := range turns {
		messages = append(messages,
			llm.Message{Role: "user", Content: turn.User},
			llm.Message{Role: "assistant", Content: turn.Assistant},
		)
	}

	var b strings.Builder
	if loc.DisplayName != "" {
		b.WriteString("Farmer location: ")
		b.WriteString(loc.DisplayName)
		b.WriteString("\n")
	}
	if enrichment != "" {
		b.WriteString("Satellite readings for this location:\n")
		b.WriteString(enrichment)
		b.WriteString("\n")
	}
	b.WriteString("Question (")
	b.WriteString(string(q.Primary))
	b.WriteString("): ")
	b.WriteString(question)

	return append(messages, llm.Message{Role: "user", Content: b.String()})
}

// searchQueries builds the tool queries for search-augmented generation,
// flavored by the query category. At most maxSearchQueries are issued.
func searchQueries(q classify.ClassifiedQuery, question string) []string {
	switch q.Primary {
	case classify.TypeEconomicsMarket:
		return []string{
			question + " current market price",
			question + " commodity price trends",
			question,
		}
	case classify.TypeGovernmentPolicy:
		return []string{
			question + " agriculture subsidy program",
			question + " government scheme for farmers",
			question,
		}
	case classify.TypeTechnology:
		return []string{
			question + " precision agriculture",
			question,
		}
	default:
		return []string{
			question,
			question + " agriculture best practices",
		}
	}
}
