// Package llm is the chat-completions client used for answer generation.
// Running without an API key is a supported state: Generate returns a fixed
// demo-mode response instead of an error, and callers treat that text as a
// terminal short-circuit.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rootsource/config"
)

// DemoModeMarker identifies the unconfigured-backend response.
const DemoModeMarker = "RootSource AI (Demo Mode)"

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to a Groq/OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg    config.LLMConfig
	client *http.Client
}

// New builds a Client. A nil http client gets a default with the configured
// timeout.
func New(cfg config.LLMConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
	}
	return &Client{cfg: cfg, client: client}
}

// Configured reports whether a generation credential is present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Generate performs one completion call. Without an API key it returns the
// demo-mode response and no error.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	if !c.Configured() {
		return DemoResponse(lastUserContent(messages)), nil
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	payload := map[string]interface{}{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages":    messages,
	}
	buf, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, string(body))
	}

	var wrapper struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return "", err
	}
	if len(wrapper.Choices) == 0 {
		return "", errors.New("empty llm response")
	}
	return strings.TrimSpace(wrapper.Choices[0].Message.Content), nil
}

// IsDemoResponse reports whether text is the unconfigured-backend sentinel.
func IsDemoResponse(text string) bool {
	return strings.Contains(text, DemoModeMarker)
}

// DemoResponse renders the fixed demo-mode answer, echoing the question so
// the user can see what would have been asked.
func DemoResponse(query string) string {
	if runes := []rune(query); len(runes) > 500 {
		query = string(runes[:500])
	}
	return "**" + DemoModeMarker + "**\n\n" +
		"• The intelligent LLM backend isn't configured.\n" +
		"• Set the environment variable **GROQ_API_KEY** to enable live answers.\n\n" +
		"**You asked:**\n" +
		"• " + query + "\n\n" +
		"**What to do next:**\n" +
		"1. Create a .env file with GROQ_API_KEY=your_key\n" +
		"2. Restart the server\n" +
		"3. Ask again for a live answer"
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
