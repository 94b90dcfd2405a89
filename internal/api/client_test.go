package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second)
}

func TestFetchTokensEnvelopeShapes(t *testing.T) {
	payloads := map[string]string{
		"tokens key": `{"tokens":[{"token_address":"0xa","hp_is_honeypot":1}]}`,
		"data key":   `{"data":[{"token_address":"0xa","hp_is_honeypot":1}]}`,
		"bare array": `[{"token_address":"0xa","hp_is_honeypot":1}]`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			c := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(payload))
			})

			tokens, err := c.FetchTokens(context.Background())
			require.NoError(t, err)
			require.Len(t, tokens, 1)
			assert.Equal(t, "0xa", tokens[0].Address)
			assert.True(t, tokens[0].Honeypot.IsHoneypot)
		})
	}
}

func TestFetchTokensSkipsAddresslessRecords(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"token_name":"ghost"},{"token_address":"0xb"}]`))
	})

	tokens, err := c.FetchTokens(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "0xb", tokens[0].Address)
}

func TestFetchTokensNonOKStatus(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FetchTokens(context.Background())
	assert.Error(t, err)
}

func TestFetchHistoryShapes(t *testing.T) {
	payloads := map[string]string{
		"history key": `{"history":[{"timestamp":1700000000,"total_liquidity":100,"holder_count":5}]}`,
		"data key":    `{"data":[{"ts":1700000000000,"liquidity":100,"holders":5}]}`,
		"bare array":  `[{"time":"1700000000","totalLiquidity":"100","holderCount":"5"}]`,
		"object of records": `{"0":{"timestamp":1700000000,"total_liquidity":100,"holder_count":5}}`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			c := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(payload))
			})

			points, err := c.FetchHistory(context.Background(), "0xa")
			require.NoError(t, err)
			require.Len(t, points, 1)
			assert.Equal(t, int64(1700000000000), points[0].Timestamp)
			assert.Equal(t, 100.0, points[0].TotalLiquidity)
			assert.Equal(t, 5.0, points[0].HolderCount)
		})
	}
}

func TestFetchHistoryDropsInvalidRecords(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"timestamp":1700000000,"total_liquidity":100},
			{"total_liquidity":200},
			{"timestamp":1700000100},
			{"timestamp":1700000200,"holder_count":9},
			"not an object"
		]`))
	})

	points, err := c.FetchHistory(context.Background(), "0xa")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 100.0, points[0].TotalLiquidity)
	assert.Equal(t, 9.0, points[1].HolderCount)
}

func TestFetchHistorySplitComponents(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"timestamp":1700000000,"total_liquidity":100,"hp_liquidity":60,"gp_liquidity":40,"lp_holder_count":3}]`))
	})

	points, err := c.FetchHistory(context.Background(), "0xa")
	require.NoError(t, err)
	require.Len(t, points, 1)
	require.NotNil(t, points[0].HPLiquidity)
	require.NotNil(t, points[0].GPLiquidity)
	assert.Equal(t, 60.0, *points[0].HPLiquidity)
	assert.Equal(t, 40.0, *points[0].GPLiquidity)
	assert.Equal(t, 3.0, points[0].LPHolderCount)
}

func TestFetchHistoryAddressInPath(t *testing.T) {
	var gotPath string
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[]`))
	})

	_, err := c.FetchHistory(context.Background(), "0xAbC")
	require.NoError(t, err)
	assert.Equal(t, "/api/history/0xAbC", gotPath)
}
