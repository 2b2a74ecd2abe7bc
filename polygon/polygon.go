// Package polygon fetches market prices from the Polygon.io REST API.
//
// It exposes a Client with previous-close aggregates for stock and crypto
// tickers and currency conversion rates through the forex aggregates. The
// Client satisfies the price provider contract of the rebalance package.
package polygon

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

const polygon_api_key = "POLYGON_API_KEY"

var polygonApiFlag = flag.String("polygon-api-key", "", "Polygon API key to use for fetching market prices.\n If missing it will read from the environment variable \""+polygon_api_key+"\". You can get one at https://polygon.io/")

// APIKey returns the Polygon API key from the flag or the environment.
func APIKey() string {
	// If the flag is not set, we try to read it from the environment variable.
	if *polygonApiFlag == "" {
		*polygonApiFlag = os.Getenv(polygon_api_key)
	}
	return *polygonApiFlag
}

// Client queries the Polygon.io REST API.
type Client struct {
	apiKey string
	base   string
	http   *http.Client
}

// New returns a Client using the given API key.
func New(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		base:   "https://api.polygon.io",
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithBase returns a Client pointed at an alternative API endpoint.
func NewWithBase(apiKey, base string, client *http.Client) *Client {
	return &Client{apiKey: apiKey, base: base, http: client}
}

// LastTrade returns the previous close price for the given Polygon ticker.
// Stocks use the plain symbol ("VTI"), crypto the "X:BTCUSD" convention.
func (c *Client) LastTrade(ctx context.Context, ticker string) (float64, error) {
	// https://api.polygon.io/v2/aggs/ticker/VTI/prev?adjusted=true&apiKey=...
	// {
	//   "ticker": "VTI",
	//   "resultsCount": 1,
	//   "results": [
	//     { "T": "VTI", "c": 265.21, "h": 266.12, "l": 263.4, "o": 264.01, "v": 3425100 }
	//   ],
	//   "status": "OK"
	// }
	addr := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?adjusted=true&apiKey=%s", c.base, url.PathEscape(ticker), c.apiKey)
	return c.previousClose(ctx, ticker, addr)
}

// ForexRate returns the previous close conversion rate from one currency to
// another, using Polygon's "C:FROMTO" forex aggregates.
func (c *Client) ForexRate(ctx context.Context, from, to string) (float64, error) {
	pair := "C:" + strings.ToUpper(from) + strings.ToUpper(to)
	addr := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?adjusted=true&apiKey=%s", c.base, url.PathEscape(pair), c.apiKey)
	return c.previousClose(ctx, pair, addr)
}

// previousClose fetches a previous-close aggregate and extracts its close.
func (c *Client) previousClose(ctx context.Context, name, addr string) (float64, error) {
	var jobj any
	if err := c.jwget(ctx, addr, &jobj); err != nil {
		return 0, fmt.Errorf("error retrieving %q: %w", name, err)
	}

	// Reject the explicit zero-result answer before probing the payload,
	// Polygon answers status OK with an empty results list for unknown
	// tickers.
	if count, err := jsonpath.Get("$.resultsCount", jobj); err == nil {
		if n, ok := count.(float64); ok && n == 0 {
			return 0, fmt.Errorf("no previous close for %q", name)
		}
	}

	path := "$.results[0].c"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return 0, fmt.Errorf("error parsing %q: %q %w", name, path, err)
	}
	val, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("error parsing %q: %q %s %v", name, path, "not a float", jval)
	}
	if val == 0 {
		return 0, fmt.Errorf("empty close for %q", name)
	}
	return val, nil
}

// jwget performs an HTTP GET request and unmarshals the JSON response into
// the provided data structure.
func (c *Client) jwget(ctx context.Context, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		resp.Body.Close()
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	_, err = io.Copy(&buf, resp.Body)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return json.Unmarshal(buf.Bytes(), data)
}
