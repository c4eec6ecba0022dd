package traders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(n int) RetryPolicy {
	return RetryPolicy{MaxAttempts: n, Backoff: ExponentialBackoff(time.Millisecond)}
}

func testClient(t *testing.T, srv *httptest.Server, opts ...Option) (*Client, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	base := []Option{
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithToken("secret"),
		WithRetryPolicy(fastRetry(3)),
		WithLogger(log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})),
		WithJitter(func() time.Duration { return 0 }),
	}
	return New(append(base, opts...)...), &logs
}

func writeData(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": v}); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestClient_MyAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/my/agent", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		writeData(t, w, Agent{Symbol: "KWV", Credits: 150000, Headquarters: "X1-DF55-20250Z"})
	}))
	defer srv.Close()

	c, _ := testClient(t, srv)
	agent, err := c.MyAgent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "KWV", agent.Symbol)
	assert.EqualValues(t, 150000, agent.Credits)
}

func TestClient_PostBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/my/ships/KWV-1/sell", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Symbol string `json:"symbol"`
			Units  int    `json:"units"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "IRON_ORE", body.Symbol)
		assert.Equal(t, 12, body.Units)

		writeData(t, w, SellResult{Transaction: MarketTransaction{TradeSymbol: "IRON_ORE", Units: 12, TotalPrice: 480}})
	}))
	defer srv.Close()

	c, _ := testClient(t, srv)
	res, err := c.SellCargo(context.Background(), "KWV-1", "IRON_ORE", 12)
	require.NoError(t, err)
	assert.EqualValues(t, 480, res.Transaction.TotalPrice)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeData(t, w, ShipNav{Status: StatusDocked})
	}))
	defer srv.Close()

	c, logs := testClient(t, srv)
	nav, err := c.ShipNav(context.Background(), "KWV-1")
	require.NoError(t, err)
	assert.Equal(t, StatusDocked, nav.Status)
	assert.EqualValues(t, 3, attempts.Load())
	assert.Contains(t, logs.String(), "retrying request")
}

func TestClient_AllRetriesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv, WithRetryPolicy(fastRetry(2)))
	_, err := c.MyAgent(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
}

func TestClient_RateLimitHonoursRetryAfter(t *testing.T) {
	var attempts atomic.Int32
	var first atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			first.Store(time.Now().UnixNano())
			w.Header().Set("Retry-After", "0.05")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		assert.GreaterOrEqual(t, time.Since(time.Unix(0, first.Load())), 40*time.Millisecond)
		writeData(t, w, Agent{Symbol: "KWV"})
	}))
	defer srv.Close()

	var jittered atomic.Bool
	c, _ := testClient(t, srv, WithJitter(func() time.Duration {
		jittered.Store(true)
		return 0
	}))
	_, err := c.MyAgent(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, attempts.Load())
	assert.True(t, jittered.Load(), "Retry-After waits get jitter")
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":{"message":"Ship is not docked","code":4244,"data":{"shipSymbol":"KWV-1"}}}`)
	}))
	defer srv.Close()

	c, logs := testClient(t, srv)
	_, err := c.RefuelShip(context.Background(), "KWV-1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, 4244, apiErr.Code)
	assert.Equal(t, "Ship is not docked", apiErr.Message)
	assert.Equal(t, "/my/ships/KWV-1/refuel", apiErr.Path)
	assert.False(t, IsRetryable(err))
	assert.EqualValues(t, 1, attempts.Load())
	assert.Contains(t, logs.String(), "request rejected")
	assert.Contains(t, logs.String(), "Ship is not docked")
}

func TestClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c, logs := testClient(t, srv)
	_, err := c.MyShip(context.Background(), "NOPE-1")
	assert.True(t, IsNotFound(err))
	assert.NotContains(t, logs.String(), "request rejected")
}

func TestClient_ShipCooldown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/my/ships/IDLE-1") {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeData(t, w, Cooldown{ShipSymbol: "BUSY-1", RemainingSeconds: 42})
	}))
	defer srv.Close()

	c, _ := testClient(t, srv)

	cd, err := c.ShipCooldown(context.Background(), "IDLE-1")
	require.NoError(t, err)
	assert.Nil(t, cd)

	cd, err = c.ShipCooldown(context.Background(), "BUSY-1")
	require.NoError(t, err)
	require.NotNil(t, cd)
	assert.Equal(t, 42, cd.RemainingSeconds)
}

func TestClient_Paging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"), "limit capped")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[{"symbol":"X1-A"},{"symbol":"X1-B"}],"meta":{"total":45,"page":3,"limit":20}}`)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv)
	systems, meta, err := c.Systems(context.Background(), 3, 50)
	require.NoError(t, err)
	assert.Len(t, systems, 2)
	assert.Equal(t, 45, meta.Total)
	assert.Equal(t, 3, meta.Pages())
}

func TestClient_StatusIsNotEnveloped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"SpaceTraders is currently online","version":"v2.1.4","resetDate":"2026-10-11","stats":{"agents":1200}}`)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv)
	s, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2.1.4", s.Version)
	assert.Equal(t, 1200, s.Stats.Agents)
}

func TestClient_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv)
	_, err := c.MyAgent(context.Background())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_StaticDataIsCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/systems/X1-DF55", r.URL.Path)
		writeData(t, w, System{Symbol: "X1-DF55", Type: "RED_STAR", Factions: []SymbolRef{{Symbol: "COSMIC"}}})
	}))
	defer srv.Close()

	cache := NewMemoryCache()
	c, _ := testClient(t, srv, WithCache(cache, time.Hour))

	for range 3 {
		sys, err := c.System(context.Background(), "X1-DF55")
		require.NoError(t, err)
		assert.Equal(t, "COSMIC", sys.Faction())
	}
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, 1, cache.Len())
}

type brokenCache struct{ NullCache }

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func TestClient_CacheFailureFallsBackToAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeData(t, w, JumpGate{JumpRange: 2000, ConnectedSystems: []ConnectedSystem{{Symbol: "X1-ZZ9"}}})
	}))
	defer srv.Close()

	c, logs := testClient(t, srv, WithCache(brokenCache{}, 0))
	gate, err := c.JumpGate(context.Background(), "X1-DF55", "X1-DF55-J1")
	require.NoError(t, err)
	assert.Len(t, gate.ConnectedSystems, 1)
	assert.Contains(t, logs.String(), "cache read failed")
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c, _ := testClient(t, srv, WithRetryPolicy(RetryPolicy{
		MaxAttempts: 10,
		Backoff:     func(int) time.Duration { return time.Minute },
	}))
	_, err := c.MyAgent(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"2", 2 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"-1", 0},
		{now.Add(3 * time.Second).Format(http.TimeFormat), 3 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		assert.Equal(t, tt.want, retryAfter(h, now), "Retry-After %q", tt.value)
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, b(1))
	assert.Equal(t, 200*time.Millisecond, b(2))
	assert.Equal(t, 800*time.Millisecond, b(4))
	assert.Equal(t, 100*time.Millisecond, b(0))
}
