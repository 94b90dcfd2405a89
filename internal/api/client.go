// Package api is the read-only REST client for the relay's
// collaborator endpoints: the cold-start token list and per-token
// history series.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/scanwatch/dashboard/internal/history"
	"github.com/scanwatch/dashboard/internal/token"
)

// DefaultTimeout bounds every request; a fetch that outlives it is a
// failure, never left pending.
const DefaultTimeout = 10 * time.Second

// Client talks to the relay's REST surface.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchTokens retrieves the full scanned-token list, used only at cold
// start before the transport delivers its first batch. The response
// may be `{"tokens":[...]}`, `{"data":[...]}` or a bare array.
func (c *Client) FetchTokens(ctx context.Context) ([]token.Token, error) {
	body, err := c.get(ctx, "/api/tokens")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Tokens []token.RawToken `json:"tokens"`
		Data   []token.RawToken `json:"data"`
	}
	var raws []token.RawToken
	if err := json.Unmarshal(body, &envelope); err == nil && (envelope.Tokens != nil || envelope.Data != nil) {
		raws = envelope.Tokens
		if raws == nil {
			raws = envelope.Data
		}
	} else if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("decode token list: %w", err)
	}

	tokens := make([]token.Token, 0, len(raws))
	for _, raw := range raws {
		if raw.TokenAddress == "" {
			continue
		}
		tokens = append(tokens, token.Normalize(raw))
	}
	return tokens, nil
}

// FetchHistory retrieves the history series for one token. The shape
// is tolerant: `{"history":[...]}`, `{"data":[...]}`, a bare array, or
// an object of records; individual records that lack a timestamp or
// carry neither a liquidity nor a holder figure are dropped silently.
func (c *Client) FetchHistory(ctx context.Context, address string) ([]history.Point, error) {
	path := "/api/history/" + url.PathEscape(address) + "?tabular=true"
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return parseHistory(body), nil
}

// get issues one GET and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// parseHistory extracts valid points from any of the accepted response
// shapes.
func parseHistory(body []byte) []history.Point {
	records := historyRecords(body)

	points := make([]history.Point, 0, len(records))
	for _, rec := range records {
		if p, ok := parsePoint(rec); ok {
			points = append(points, p)
		}
	}
	return points
}

// historyRecords unwraps the envelope variants into raw records.
func historyRecords(body []byte) []json.RawMessage {
	var envelope struct {
		History []json.RawMessage `json:"history"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.History != nil {
			return envelope.History
		}
		if envelope.Data != nil {
			return envelope.Data
		}
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr
	}

	// Object of records keyed by arbitrary strings.
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		records := make([]json.RawMessage, 0, len(obj))
		for _, v := range obj {
			records = append(records, v)
		}
		return records
	}

	slog.Debug("history_unparseable", "bytes", len(body))
	return nil
}

// Accepted key spellings per field.
var (
	timestampKeys = []string{"timestamp", "time", "ts", "scan_timestamp"}
	liquidityKeys = []string{"total_liquidity", "totalLiquidity", "liquidity", "hp_liquidity_amount"}
	holderKeys    = []string{"holder_count", "holderCount", "holders", "hp_holder_count"}
	lpHolderKeys  = []string{"lp_holder_count", "lpHolderCount", "gp_lp_holder_count"}
	hpLiqKeys     = []string{"hp_liquidity", "hpLiquidity"}
	gpLiqKeys     = []string{"gp_liquidity", "gpLiquidity"}
)

// parsePoint validates one record: it must carry a timestamp and at
// least one of a liquidity or holder-count figure.
func parsePoint(raw json.RawMessage) (history.Point, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return history.Point{}, false
	}

	ts, ok := pickTimestamp(fields)
	if !ok {
		return history.Point{}, false
	}

	liq, hasLiq := pickNumber(fields, liquidityKeys)
	holders, hasHolders := pickNumber(fields, holderKeys)
	if !hasLiq && !hasHolders {
		return history.Point{}, false
	}

	p := history.Point{
		Timestamp:      ts,
		TotalLiquidity: liq,
		HolderCount:    holders,
	}
	if lp, ok := pickNumber(fields, lpHolderKeys); ok {
		p.LPHolderCount = lp
	}
	if hp, ok := pickNumber(fields, hpLiqKeys); ok {
		v := hp
		p.HPLiquidity = &v
	}
	if gp, ok := pickNumber(fields, gpLiqKeys); ok {
		v := gp
		p.GPLiquidity = &v
	}
	return p, true
}

// pickTimestamp resolves the first present timestamp key, accepting
// epoch seconds, epoch milliseconds, or an RFC3339 string, always
// returning epoch milliseconds.
func pickTimestamp(fields map[string]json.RawMessage) (int64, bool) {
	for _, key := range timestampKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return epochMillis(int64(n)), true
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return epochMillis(v), true
			}
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UnixMilli(), true
				}
			}
		}
	}
	return 0, false
}

// epochMillis promotes second-resolution epochs to milliseconds.
func epochMillis(v int64) int64 {
	if v < 1e12 {
		return v * 1000
	}
	return v
}

// pickNumber resolves the first present key as a number, tolerating
// numeric strings.
func pickNumber(fields map[string]json.RawMessage, keys []string) (float64, bool) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n, true
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
