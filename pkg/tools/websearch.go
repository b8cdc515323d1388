package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// SearchBackend identifies a web search backend.
type SearchBackend string

const (
	BackendDuckDuckGo SearchBackend = "duckduckgo"
	BackendSearXNG    SearchBackend = "searxng"
	BackendBrave      SearchBackend = "brave"
)

const (
	defaultResultCount   = 5
	defaultSearchTimeout = 30 * time.Second
	defaultCacheTTL      = 5 * time.Minute
	maxCacheEntries      = 1000

	duckDuckGoAPIURL = "https://api.duckduckgo.com"
	braveAPIURL      = "https://api.search.brave.com/res/v1/web/search"
)

var webSearchSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "The search query."
		}
	},
	"required": ["query"]
}`)

// WebSearchConfig configures the web search tool. The zero value uses
// the DuckDuckGo Instant Answer API, which needs no credentials.
type WebSearchConfig struct {
	Backend     SearchBackend
	SearXNGURL  string
	BraveAPIKey string
	ResultCount int
	Timeout     time.Duration
	CacheTTL    time.Duration

	// API base URL overrides for tests.
	DuckDuckGoURL string
	BraveURL      string
}

type searchHit struct {
	Title   string
	URL     string
	Snippet string
}

type searchCacheEntry struct {
	body      string
	expiresAt time.Time
}

// WebSearchTool searches the public web and returns a human-readable
// text block of results. The primary backend falls back to DuckDuckGo
// on failure; responses are cached with a TTL.
type WebSearchTool struct {
	cfg     WebSearchConfig
	client  *http.Client
	cacheMu sync.Mutex
	cache   map[string]searchCacheEntry
}

// NewWebSearchTool creates a web search tool, applying defaults.
func NewWebSearchTool(cfg WebSearchConfig) *WebSearchTool {
	if cfg.Backend == "" {
		switch {
		case cfg.SearXNGURL != "":
			cfg.Backend = BackendSearXNG
		case cfg.BraveAPIKey != "":
			cfg.Backend = BackendBrave
		default:
			cfg.Backend = BackendDuckDuckGo
		}
	}
	if cfg.ResultCount <= 0 {
		cfg.ResultCount = defaultResultCount
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSearchTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.DuckDuckGoURL == "" {
		cfg.DuckDuckGoURL = duckDuckGoAPIURL
	}
	if cfg.BraveURL == "" {
		cfg.BraveURL = braveAPIURL
	}
	return &WebSearchTool{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  make(map[string]searchCacheEntry),
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the public web for current information.\n" +
		"Use this for time-sensitive questions or facts likely to have changed recently."
}

func (t *WebSearchTool) Schema() json.RawMessage { return webSearchSchema }

// Invoke runs the search. Backend failures fall back to DuckDuckGo
// before surfacing an error.
func (t *WebSearchTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", NewToolError(t.Name(), CategoryMalformedArguments, fmt.Errorf("query must not be empty"))
	}

	if cached, ok := t.fromCache(query); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	hits, err := t.search(ctx, t.cfg.Backend, query)
	if err != nil && t.cfg.Backend != BackendDuckDuckGo {
		hits, err = t.search(ctx, BackendDuckDuckGo, query)
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", NewToolError(t.Name(), CategoryTimeout, fmt.Errorf("deadline exceeded"))
		}
		return "", NewToolError(t.Name(), CategoryUnavailable, err)
	}

	body := formatHits(query, hits)
	t.putCache(query, body)
	return body, nil
}

func (t *WebSearchTool) search(ctx context.Context, backend SearchBackend, query string) ([]searchHit, error) {
	switch backend {
	case BackendSearXNG:
		return t.searchSearXNG(ctx, query)
	case BackendBrave:
		return t.searchBrave(ctx, query)
	default:
		return t.searchDuckDuckGo(ctx, query)
	}
}

// searchDuckDuckGo queries the Instant Answer API: the abstract, when
// present, becomes the first hit, followed by related topics.
func (t *WebSearchTool) searchDuckDuckGo(ctx context.Context, query string) ([]searchHit, error) {
	reqURL := fmt.Sprintf("%s/?q=%s&format=json&no_html=1", t.cfg.DuckDuckGoURL, url.QueryEscape(query))
	body, err := t.get(ctx, reqURL, nil)
	if err != nil {
		return nil, err
	}

	var ddg struct {
		Heading       string `json:"Heading"`
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		RelatedTopics []struct {
			FirstURL string `json:"FirstURL"`
			Text     string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &ddg); err != nil {
		return nil, fmt.Errorf("failed to parse duckduckgo response: %w", err)
	}

	var hits []searchHit
	if ddg.AbstractText != "" && ddg.AbstractURL != "" {
		hits = append(hits, searchHit{Title: ddg.Heading, URL: ddg.AbstractURL, Snippet: ddg.AbstractText})
	}
	for _, topic := range ddg.RelatedTopics {
		if len(hits) >= t.cfg.ResultCount {
			break
		}
		if topic.FirstURL != "" && topic.Text != "" {
			hits = append(hits, searchHit{Title: topic.Text, URL: topic.FirstURL, Snippet: topic.Text})
		}
	}
	return hits, nil
}

func (t *WebSearchTool) searchSearXNG(ctx context.Context, query string) ([]searchHit, error) {
	if t.cfg.SearXNGURL == "" {
		return nil, fmt.Errorf("searxng url not configured")
	}
	base, err := url.Parse(t.cfg.SearXNGURL)
	if err != nil {
		return nil, fmt.Errorf("invalid searxng url: %w", err)
	}
	base.Path = "/search"
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("categories", "general")
	base.RawQuery = q.Encode()

	body, err := t.get(ctx, base.String(), nil)
	if err != nil {
		return nil, err
	}

	var sx struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &sx); err != nil {
		return nil, fmt.Errorf("failed to parse searxng response: %w", err)
	}

	hits := make([]searchHit, 0, t.cfg.ResultCount)
	for _, r := range sx.Results {
		if len(hits) >= t.cfg.ResultCount {
			break
		}
		hits = append(hits, searchHit{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return hits, nil
}

func (t *WebSearchTool) searchBrave(ctx context.Context, query string) ([]searchHit, error) {
	if t.cfg.BraveAPIKey == "" {
		return nil, fmt.Errorf("brave api key not configured")
	}
	reqURL := fmt.Sprintf("%s?q=%s&count=%d", t.cfg.BraveURL, url.QueryEscape(query), t.cfg.ResultCount)
	body, err := t.get(ctx, reqURL, map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": t.cfg.BraveAPIKey,
	})
	if err != nil {
		return nil, err
	}

	var brave struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &brave); err != nil {
		return nil, fmt.Errorf("failed to parse brave response: %w", err)
	}

	hits := make([]searchHit, 0, t.cfg.ResultCount)
	for _, r := range brave.Web.Results {
		if len(hits) >= t.cfg.ResultCount {
			break
		}
		hits = append(hits, searchHit{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return hits, nil
}

func (t *WebSearchTool) get(ctx context.Context, reqURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ParleyBot/1.0)")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search backend returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// formatHits renders results as the human-readable text block fed back
// to the LLM.
func formatHits(query string, hits []searchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	for i, h := range hits {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n   %s\n", i+1, h.Title, h.URL, h.Snippet)
	}
	return b.String()
}

func (t *WebSearchTool) fromCache(query string) (string, bool) {
	t.cacheMu.Lock()
	defer t.cacheMu.Unlock()
	entry, ok := t.cache[query]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.body, true
}

func (t *WebSearchTool) putCache(query, body string) {
	t.cacheMu.Lock()
	defer t.cacheMu.Unlock()

	now := time.Now()
	for k, v := range t.cache {
		if now.After(v.expiresAt) {
			delete(t.cache, k)
		}
	}
	// Evict oldest entries when still at capacity.
	for len(t.cache) >= maxCacheEntries {
		var oldestKey string
		var oldestTime time.Time
		for k, v := range t.cache {
			if oldestKey == "" || v.expiresAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = v.expiresAt
			}
		}
		delete(t.cache, oldestKey)
	}
	t.cache[query] = searchCacheEntry{body: body, expiresAt: now.Add(t.cfg.CacheTTL)}
}
