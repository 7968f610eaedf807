package api

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

// Client talks to the stock-analysis gateway. All calls take a context and
// use the client's per-request timeout; authenticated endpoints send the
// bearer token set via SetToken.
type Client struct {
	httpClient *http.Client

	mu      sync.RWMutex
	baseURL string
	token   string
}

// NewClient creates a gateway client rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token attached to authenticated requests.
// An empty token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// SetBaseURL repoints the client, used once remote config resolution picks
// a different gateway than the configured fallback.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.mu.Unlock()
}

// BaseURL returns the current gateway base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// ListStocks returns the ticker universe.
func (c *Client) ListStocks(ctx context.Context) ([]string, error) {
	var resp stocksResponse
	if err := c.getJSON(ctx, "/stocks", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing stocks: %w", err)
	}
	return resp.Stocks, nil
}

// GetTicks returns the tick window for a symbol. A zero window omits the
// query parameter and leaves the choice to the backend.
func (c *Client) GetTicks(ctx context.Context, symbol string, window TickWindow) (*TickResponse, error) {
	q := url.Values{}
	if window != "" {
		q.Set("window", string(window))
	}
	var resp TickResponse
	if err := c.getJSON(ctx, "/ticks/"+url.PathEscape(symbol), q, &resp); err != nil {
		return nil, fmt.Errorf("fetching ticks for %s: %w", symbol, err)
	}
	return &resp, nil
}

// GetFundamentals returns the free-form fundamentals map for a symbol.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (Fundamentals, error) {
	var resp fundamentalsResponse
	if err := c.getJSON(ctx, "/fundamentals/"+url.PathEscape(symbol), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching fundamentals for %s: %w", symbol, err)
	}
	return resp.Fundamentals, nil
}

// GetAnalysis returns the buy/sell/hold suggestion snapshot for a symbol.
func (c *Client) GetAnalysis(ctx context.Context, symbol string) (*AnalysisData, error) {
	var resp AnalysisData
	if err := c.getJSON(ctx, "/analysis/"+url.PathEscape(symbol)+"/explanation", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching analysis for %s: %w", symbol, err)
	}
	return &resp, nil
}

// ListMarkers returns the ids of all available technical-indicator markers.
func (c *Client) ListMarkers(ctx context.Context) ([]string, error) {
	var resp markersResponse
	if err := c.getJSON(ctx, "/analysis/ta/stockmarkers", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing markers: %w", err)
	}
	return resp.Markers, nil
}

// GetMarker returns one marker overlay series for a symbol.
func (c *Client) GetMarker(ctx context.Context, symbol, markerID string) (*MarkerData, error) {
	path := "/analysis/ta/stockmarker/" + url.PathEscape(symbol) + "/" + url.PathEscape(markerID)
	var resp MarkerData
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching marker %s for %s: %w", markerID, symbol, err)
	}
	return &resp, nil
}

// ListUsers returns one page of the user directory. Pass the previous page's
// NextToken to continue, or empty for the first page. Requires a token.
func (c *Client) ListUsers(ctx context.Context, nextToken string) (*UserList, error) {
	q := url.Values{}
	if nextToken != "" {
		q.Set("nextToken", nextToken)
	}
	var resp UserList
	if err := c.getJSON(ctx, "/user/list", q, &resp); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return &resp, nil
}

// SetAdmin grants or revokes admin for a user. Requires a token.
func (c *Client) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	body := map[string]any{"username": username, "isAdmin": isAdmin}
	if err := c.putJSON(ctx, "/user/setadmin", body, nil); err != nil {
		return fmt.Errorf("setting admin for %s: %w", username, err)
	}
	return nil
}

// GetMe returns the calling user's profile record. Requires a token.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var resp User
	if err := c.getJSON(ctx, "/user/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &resp, nil
}

// UpdateMe updates the calling user's profile record. Requires a token.
func (c *Client) UpdateMe(ctx context.Context, u *User) error {
	if err := c.putJSON(ctx, "/user/me", u, nil); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Request plumbing
// ---------------------------------------------------------------------------

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

func (c *Client) putJSON(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	u := c.BaseURL() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding body: %w", err)
		}
		reader = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
