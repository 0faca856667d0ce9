package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Config struct {
	URL    string
	APIKey string
	Model  string
}

// Candidate is what the oracle sees of each bottle when re-ranking.
type Candidate struct {
	Name     string
	MoodText string
}

// Client talks to a messages-style LLM API. RankCandidates returns the
// raw reply text; deciding whether that reply is a usable index belongs
// to the selector, so that an invalid reply stays distinguishable from a
// failed call.
type Client struct {
	cfg   Config
	httpc *http.Client
}

func NewClient(cfg Config, httpc *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("oracle api url is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("oracle model is required")
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}

	return &Client{cfg: cfg, httpc: httpc}, nil
}

func (c *Client) RankCandidates(ctx context.Context, journalText string, candidates []Candidate) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidates to rank")
	}

	var sb strings.Builder
	sb.WriteString("A person wrote this journal entry:\n\n")
	sb.WriteString(journalText)
	sb.WriteString("\n\nThese messages are available, each with a mood description:\n\n")
	for i, cand := range candidates {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, cand.Name, cand.MoodText)
	}
	fmt.Fprintf(&sb, "\nPick the single message whose mood best matches the entry. Reply with ONLY its number (1-%d), nothing else.", len(candidates))

	return c.complete(ctx, sb.String())
}

func (c *Client) RewriteMood(ctx context.Context, journalText string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Rewrite the following journal entry as a short mood phrase of at most ten words, capturing its emotional tone. Reply with only the phrase.\n\n")
	sb.WriteString(journalText)

	reply, err := c.complete(ctx, sb.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := apiRequest{
		Model:     c.cfg.Model,
		MaxTokens: 64,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}

	return apiResp.Content[0].Text, nil
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
