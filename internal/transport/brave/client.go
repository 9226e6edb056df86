// Package brave adapts the Brave Search web API.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/placescout/internal/domain/search"
	"github.com/kailas-cloud/placescout/internal/transport/upstream"
	"github.com/kailas-cloud/placescout/internal/version"
)

// Provider is the label used in errors, metrics and logs.
const Provider = "brave"

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.search.brave.com/res/v1"

// maxCount is the API's per-request result ceiling.
const maxCount = 20

// Client runs web searches.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client. httpClient may be nil.
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

type response struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search runs one query and returns at most count results.
func (c *Client) Search(ctx context.Context, query string, count int) ([]search.Result, error) {
	if count <= 0 || count > maxCount {
		count = maxCount
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/web/search?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, upstream.TransportError(ctx, Provider, err)
	}
	defer resp.Body.Close()

	if err := upstream.CheckResponse(Provider, resp); err != nil {
		return nil, err
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", Provider, err)
	}

	out := make([]search.Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		out = append(out, search.Result{
			Title:   strings.TrimSpace(r.Title),
			Link:    r.URL,
			Snippet: strings.TrimSpace(r.Description),
		})
		if len(out) == count {
			break
		}
	}
	return out, nil
}
