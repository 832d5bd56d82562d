package advisor

import (
	"context"
	"log"
	"strings"
	"time"

	"rootsource/internal/llm"
)

// Generation tiers recorded in metrics and the audit log.
const (
	TierDirect = "direct"
	TierSearch = "search_augmented"
	TierCanned = "canned"
	TierDemo   = "demo"
	TierCached = "cached"
)

const (
	directAttempts   = 2
	maxSearchQueries = 3
	minAnswerLen     = 40
)

// cannedReply is the terminal fallback; the state machine guarantees the
// caller always gets non-empty text.
const cannedReply = "I'm sorry, I'm experiencing high demand right now. Please try again in a moment."

// generate runs the DIRECT, SEARCH_AUGMENTED, CANNED state machine and
// returns the answer text plus the tier that produced it.
func (a *Advisor) generate(ctx context.Context, messages []llm.Message, queries []string) (string, string) {
	for attempt := 0; attempt < directAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(a.directBackoff):
			case <-ctx.Done():
				return cannedReply, TierCanned
			}
		}
		text, err := a.gen.Generate(ctx, messages)
		if err != nil {
			log.Printf("direct generation failed attempt=%d err=%v", attempt+1, err)
			continue
		}
		if llm.IsDemoResponse(text) {
			// Unconfigured backend is terminal, not retryable.
			return text, TierDemo
		}
		if len(strings.TrimSpace(text)) >= minAnswerLen {
			return text, TierDirect
		}
		log.Printf("direct generation too short attempt=%d len=%d", attempt+1, len(text))
	}

	if a.gen.Configured() {
		if text, ok := a.searchAugmented(ctx, messages, queries); ok {
			return text, TierSearch
		}
	}
	return cannedReply, TierCanned
}

// searchAugmented issues up to maxSearchQueries tool queries, folds the
// snippets into the prompt, and re-invokes generation once.
func (a *Advisor) searchAugmented(ctx context.Context, messages []llm.Message, queries []string) (string, bool) {
	if len(queries) == 0 || len(a.tools) == 0 {
		return "", false
	}

	var snippets []string
	issued := 0
	for i, tool := range a.tools {
		if issued >= maxSearchQueries {
			break
		}
		query := queries[minInt(i, len(queries)-1)]
		issued++
		snippet, err := tool.Search(ctx, query)
		if err != nil {
			log.Printf("search tool failed tool=%s err=%v", tool.Name(), err)
			continue
		}
		if len(strings.TrimSpace(snippet)) > 10 {
			snippets = append(snippets, tool.Name()+": "+snippet)
		}
	}
	if len(snippets) == 0 {
		return "", false
	}

	augmented := make([]llm.Message, len(messages), len(messages)+1)
	copy(augmented, messages)
	augmented = append(augmented, llm.Message{
		Role:    "user",
		Content: "Reference snippets from external sources:\n" + strings.Join(snippets, "\n") + "\nUse them where relevant and answer the question above.",
	})

	text, err := a.gen.Generate(ctx, augmented)
	if err != nil {
		log.Printf("search-augmented generation failed: %v", err)
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
