package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const defaultBaseURL = "https://customsearch.googleapis.com/customsearch/v1"

// ErrNotConfigured is returned when search is invoked without credentials.
var ErrNotConfigured = errors.New("google search is not configured")

// tokenPattern matches inline query tokens like "months:3" or "num:5".
var tokenPattern = regexp.MustCompile(`\b(months|num)\s*:\s*(\d+)\b`)

// Result is one well-formed search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client queries the Google Custom Search JSON API with a date restriction
// to recent months.
//
// Queries may carry inline tokens which are stripped before sending:
//
//	months:N  limit to the last N months (1-12)
//	num:N     number of results (1-10)
type Client struct {
	apiKey        string
	cseID         string
	defaultNum    int
	defaultMonths int
	baseURL       string
	httpClient    *http.Client
}

// NewClient creates a search client. Empty credentials produce a disabled
// client; callers check Enabled before searching.
func NewClient(apiKey, cseID string, defaultNum, defaultMonths int, httpClient *http.Client) *Client {
	return &Client{
		apiKey:        apiKey,
		cseID:         cseID,
		defaultNum:    defaultNum,
		defaultMonths: defaultMonths,
		baseURL:       defaultBaseURL,
		httpClient:    httpClient,
	}
}

// Enabled reports whether credentials are present.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.cseID != ""
}

// Search runs the query and returns up to num well-formed results. Rows
// with missing fields or payloads that look like raw JSON dumps are
// skipped.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	cleaned, months, num := c.parseQuery(query)

	params := url.Values{}
	params.Set("q", cleaned)
	params.Set("key", c.apiKey)
	params.Set("cx", c.cseID)
	params.Set("num", strconv.Itoa(num))
	params.Set("dateRestrict", fmt.Sprintf("m%d", months))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		snippet := strings.TrimSpace(item.Snippet)
		if title == "" || link == "" || snippet == "" {
			continue
		}
		// Skip rows that look like raw CSV/JSON dumps.
		if looksLikePayload(title) || looksLikePayload(snippet) {
			continue
		}
		results = append(results, Result{
			Title:   strings.ReplaceAll(title, "\n", " "),
			Link:    link,
			Snippet: strings.ReplaceAll(snippet, "\n", " "),
		})
		if len(results) == num {
			break
		}
	}

	slog.Debug("Search completed",
		"query", cleaned,
		"months", months,
		"results", len(results),
	)

	return results, nil
}

// parseQuery extracts inline months/num tokens and strips them from the
// query text.
func (c *Client) parseQuery(query string) (cleaned string, months, num int) {
	months = clamp(c.defaultMonths, 1, 12)
	num = clamp(c.defaultNum, 1, 10)

	for _, match := range tokenPattern.FindAllStringSubmatch(query, -1) {
		value, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		switch match[1] {
		case "months":
			months = clamp(value, 1, 12)
		case "num":
			num = clamp(value, 1, 10)
		}
	}

	cleaned = strings.TrimSpace(tokenPattern.ReplaceAllString(query, ""))
	if cleaned == "" {
		cleaned = query
	}
	return cleaned, months, num
}

func looksLikePayload(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FormatResults renders results as the bullet list consumed by research
// prompts.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return "No well-formed search results available in the requested window."
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("- %s\n  %s\n  %s", r.Title, r.Link, r.Snippet))
	}
	return strings.Join(lines, "\n")
}
