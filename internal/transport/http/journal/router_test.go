package journalhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jfrc10101010/tradeplus/internal/bridge"
	"github.com/jfrc10101010/tradeplus/internal/cache"
	"github.com/jfrc10101010/tradeplus/internal/config"
	"github.com/jfrc10101010/tradeplus/internal/journal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Combined(ctx context.Context, days int) (*journal.Combined, error) {
	args := m.Called(ctx, days)
	if c := args.Get(0); c != nil {
		return c.(*journal.Combined), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSource) ByBroker(ctx context.Context, broker string, days int) (*journal.BrokerJournal, error) {
	args := m.Called(ctx, broker, days)
	if b := args.Get(0); b != nil {
		return b.(*journal.BrokerJournal), args.Error(1)
	}
	return nil, args.Error(1)
}

func testJournalConfig() config.JournalConfig {
	return config.JournalConfig{
		DefaultDays:       30,
		BrokerDefaultDays: 7,
		TopN:              10,
	}
}

func newTestServer(src Source, c *cache.Cache, cfg config.JournalConfig) *gin.Engine {
	engine := gin.New()
	NewRouter(src, c, cfg, "test").Register(engine.Group("/api"))
	return engine
}

func doRequest(engine *gin.Engine, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func sampleCombined() *journal.Combined {
	return &journal.Combined{
		Timestamp: "2024-06-01T12:00:00Z",
		Trades: []journal.TradeRecord{
			{ID: "t1", Broker: "schwab", Symbol: "AAPL", Side: "BUY", Amount: 120.5, Datetime: "2024-06-01T10:00:00Z"},
			{ID: "t2", Broker: "coinbase", Symbol: "BTC-USD", Side: "SELL", Amount: 5000, Datetime: "2024-06-01T11:00:00Z"},
		},
		Stats: map[string]any{"total_trades": 2},
	}
}

func TestJournalEndpoint(t *testing.T) {
	src := &mockSource{}
	src.On("Combined", mock.Anything, 30).Return(sampleCombined(), nil)
	c := cache.New(false)
	engine := newTestServer(src, c, testJournalConfig())

	w, body := doRequest(engine, http.MethodGet, "/api/journal")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-06-01T12:00:00Z", body["timestamp"])
	assert.Len(t, body["trades"], 2)
	agg, ok := body["aggregate"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.0, agg["totalTrades"])

	// 成功后缓存跟着更新。
	assert.True(t, c.Get().HasData())
	src.AssertExpectations(t)
}

func TestJournalEndpointDaysQuery(t *testing.T) {
	src := &mockSource{}
	src.On("Combined", mock.Anything, 90).Return(sampleCombined(), nil)
	engine := newTestServer(src, cache.New(false), testJournalConfig())

	w, _ := doRequest(engine, http.MethodGet, "/api/journal?days=90")
	require.Equal(t, http.StatusOK, w.Code)
	src.AssertExpectations(t)
}

func TestJournalEndpointInvalidDaysFallsBack(t *testing.T) {
	src := &mockSource{}
	src.On("Combined", mock.Anything, 30).Return(sampleCombined(), nil)
	engine := newTestServer(src, cache.New(false), testJournalConfig())

	w, _ := doRequest(engine, http.MethodGet, "/api/journal?days=banana")
	require.Equal(t, http.StatusOK, w.Code)
	src.AssertExpectations(t)
}

func TestJournalEndpointError(t *testing.T) {
	src := &mockSource{}
	src.On("Combined", mock.Anything, 30).Return(nil, fmt.Errorf("%w: boom", bridge.ErrProcess))
	c := cache.New(false)
	engine := newTestServer(src, c, testJournalConfig())

	w, body := doRequest(engine, http.MethodGet, "/api/journal")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, body["error"], "boom")
	// 失败响应里 trades 仍是空数组而非 null。
	trades, ok := body["trades"].([]any)
	require.True(t, ok)
	assert.Empty(t, trades)
	assert.Contains(t, c.Get().LastError, "boom")
}

func TestJournalEndpointStaleFallback(t *testing.T) {
	src := &mockSource{}
	src.On("Combined", mock.Anything, 30).Return(sampleCombined(), nil).Once()
	src.On("Combined", mock.Anything, 30).Return(nil, errors.New("python down")).Once()

	cfg := testJournalConfig()
	cfg.ServeStaleOnError = true
	c := cache.New(false)
	engine := newTestServer(src, c, cfg)

	w, _ := doRequest(engine, http.MethodGet, "/api/journal")
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doRequest(engine, http.MethodGet, "/api/journal")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["stale"])
	assert.Equal(t, "python down", body["staleError"])
	assert.Len(t, body["trades"], 2)
	src.AssertExpectations(t)
}

func TestBrokerEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		src := &mockSource{}
		src.On("ByBroker", mock.Anything, "schwab", 7).Return(&journal.BrokerJournal{
			Broker:    "schwab",
			Timestamp: "2024-06-01T12:00:00Z",
			Trades:    []journal.TradeRecord{{ID: "t1", Symbol: "AAPL", Side: "BUY", Amount: 100}},
			Stats:     map[string]any{},
			Capital:   map[string]any{"balance": 1000.0},
		}, nil)
		engine := newTestServer(src, cache.New(false), testJournalConfig())

		w, body := doRequest(engine, http.MethodGet, "/api/journal/broker/schwab")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "schwab", body["broker"])
		assert.Contains(t, body, "capital")
	})
	t.Run("invalid broker is a client error", func(t *testing.T) {
		src := &mockSource{}
		src.On("ByBroker", mock.Anything, "nope", 7).
			Return(nil, fmt.Errorf("%w: invalid broker", bridge.ErrUpstream))
		engine := newTestServer(src, cache.New(false), testJournalConfig())

		w, _ := doRequest(engine, http.MethodGet, "/api/journal/broker/nope")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("process failure is a server error", func(t *testing.T) {
		src := &mockSource{}
		src.On("ByBroker", mock.Anything, "schwab", 7).
			Return(nil, fmt.Errorf("%w: spawn failed", bridge.ErrProcess))
		engine := newTestServer(src, cache.New(false), testJournalConfig())

		w, _ := doRequest(engine, http.MethodGet, "/api/journal/broker/schwab")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestSymbolsEndpoint(t *testing.T) {
	combined := sampleCombined()
	combined.Trades[0].PLUSD = 50
	combined.Trades[1].PLUSD = -20

	src := &mockSource{}
	src.On("Combined", mock.Anything, 30).Return(combined, nil)
	engine := newTestServer(src, cache.New(false), testJournalConfig())

	w, body := doRequest(engine, http.MethodGet, "/api/journal/symbols")
	require.Equal(t, http.StatusOK, w.Code)

	symbols, ok := body["all_symbols"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"AAPL", "BTC-USD"}, symbols)

	winners := body["winners"].([]any)
	require.NotEmpty(t, winners)
	assert.Equal(t, "AAPL", winners[0].(map[string]any)["symbol"])
	losers := body["losers"].([]any)
	require.NotEmpty(t, losers)
	assert.Equal(t, "BTC-USD", losers[0].(map[string]any)["symbol"])
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		src := &mockSource{}
		src.On("Combined", mock.Anything, 30).Return(sampleCombined(), nil)
		c := cache.New(false)
		engine := newTestServer(src, c, testJournalConfig())

		w, body := doRequest(engine, http.MethodPost, "/api/refresh")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, 2.0, body["trades"])
		assert.True(t, c.Get().HasData())
	})
	t.Run("failure", func(t *testing.T) {
		src := &mockSource{}
		src.On("Combined", mock.Anything, 30).Return(nil, errors.New("boom"))
		engine := newTestServer(src, cache.New(false), testJournalConfig())

		w, body := doRequest(engine, http.MethodPost, "/api/refresh")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, false, body["success"])
	})
}

func TestStatusEndpoint(t *testing.T) {
	src := &mockSource{}
	src.On("Combined", mock.Anything, 30).Return(sampleCombined(), nil)
	c := cache.New(false)
	engine := newTestServer(src, c, testJournalConfig())

	// 空缓存：cacheAge 上报 N/A。
	w, body := doRequest(engine, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", body["status"])
	cacheInfo := body["cache"].(map[string]any)
	assert.Equal(t, false, cacheInfo["hasData"])
	assert.Equal(t, "N/A", cacheInfo["cacheAge"])
	assert.Nil(t, cacheInfo["lastUpdate"])

	doRequest(engine, http.MethodGet, "/api/journal")

	w, body = doRequest(engine, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)
	cacheInfo = body["cache"].(map[string]any)
	assert.Equal(t, true, cacheInfo["hasData"])
	assert.NotEqual(t, "N/A", cacheInfo["cacheAge"])
	assert.NotNil(t, cacheInfo["lastUpdate"])
}

func TestHealthEndpoint(t *testing.T) {
	engine := newTestServer(&mockSource{}, cache.New(false), testJournalConfig())
	w, body := doRequest(engine, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}
