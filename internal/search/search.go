// Package search provides the optional knowledge tools used by
// search-augmented generation. Each tool is independently failable; an error
// from one never blocks the others.
package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const snippetLimit = 300

// Tool is one external knowledge source.
type Tool interface {
	Name() string
	Search(ctx context.Context, query string) (string, error)
}

// DefaultTools returns the standard tool set: encyclopedic, academic, and
// general web, in that order.
func DefaultTools(client *http.Client) []Tool {
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return []Tool{
		&Wikipedia{Client: client},
		&Arxiv{Client: client},
		&DuckDuckGo{Client: client},
	}
}

var errNoResult = errors.New("no result")

func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > snippetLimit {
		return s[:snippetLimit] + "…"
	}
	return s
}

// DuckDuckGo queries the instant-answer API.
type DuckDuckGo struct {
	BaseURL string
	Client  *http.Client
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	base := d.BaseURL
	if base == "" {
		base = "https://api.duckduckgo.com"
	}
	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1", strings.TrimRight(base, "/"), url.QueryEscape(query))
	var body struct {
		AbstractText  string `json:"AbstractText"`
		Answer        string `json:"Answer"`
		RelatedTopics []struct {
			Text string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := getJSON(ctx, d.Client, endpoint, &body); err != nil {
		return "", err
	}
	for _, candidate := range []string{body.Answer, body.AbstractText} {
		if strings.TrimSpace(candidate) != "" {
			return clip(candidate), nil
		}
	}
	if len(body.RelatedTopics) > 0 && strings.TrimSpace(body.RelatedTopics[0].Text) != "" {
		return clip(body.RelatedTopics[0].Text), nil
	}
	return "", errNoResult
}

// Wikipedia queries the MediaWiki search API for a lead extract.
type Wikipedia struct {
	BaseURL string
	Client  *http.Client
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) Search(ctx context.Context, query string) (string, error) {
	base := w.BaseURL
	if base == "" {
		base = "https://en.wikipedia.org"
	}
	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("prop", "extracts")
	q.Set("exintro", "1")
	q.Set("explaintext", "1")
	q.Set("generator", "search")
	q.Set("gsrsearch", query)
	q.Set("gsrlimit", "1")
	endpoint := strings.TrimRight(base, "/") + "/w/api.php?" + q.Encode()

	var body struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := getJSON(ctx, w.Client, endpoint, &body); err != nil {
		return "", err
	}
	for _, page := range body.Query.Pages {
		if strings.TrimSpace(page.Extract) != "" {
			return clip(page.Extract), nil
		}
	}
	return "", errNoResult
}

// Arxiv queries the arXiv Atom export API for the top paper abstract.
type Arxiv struct {
	BaseURL string
	Client  *http.Client
}

func (a *Arxiv) Name() string { return "arxiv" }

func (a *Arxiv) Search(ctx context.Context, query string) (string, error) {
	base := a.BaseURL
	if base == "" {
		base = "http://export.arxiv.org"
	}
	endpoint := fmt.Sprintf("%s/api/query?search_query=all:%s&max_results=1",
		strings.TrimRight(base, "/"), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("arxiv status %d", resp.StatusCode)
	}

	var feed struct {
		Entries []struct {
			Title   string `xml:"title"`
			Summary string `xml:"summary"`
		} `xml:"entry"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return "", err
	}
	if len(feed.Entries) == 0 {
		return "", errNoResult
	}
	entry := feed.Entries[0]
	text := strings.TrimSpace(entry.Title) + ": " + strings.Join(strings.Fields(entry.Summary), " ")
	return clip(text), nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "rootsource/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
