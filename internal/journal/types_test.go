package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"plain number", `{"fee": 1.5}`, 1.5},
		{"integer", `{"fee": 10}`, 10},
		{"null defaults to zero", `{"fee": null}`, 0},
		{"missing defaults to zero", `{}`, 0},
		{"string number", `{"fee": "2.25"}`, 2.25},
		{"empty string", `{"fee": ""}`, 0},
		{"garbage string", `{"fee": "abc"}`, 0},
		{"boolean garbage", `{"fee": true}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var rec TradeRecord
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &rec))
			assert.Equal(t, tc.want, rec.Fee.Float())
		})
	}
}

func TestNotionalFallback(t *testing.T) {
	t.Run("prefers amount", func(t *testing.T) {
		rec := TradeRecord{Amount: 100, Total: 50}
		assert.Equal(t, 100.0, rec.Notional())
	})
	t.Run("falls back to total", func(t *testing.T) {
		rec := TradeRecord{Total: 50}
		assert.Equal(t, 50.0, rec.Notional())
	})
	t.Run("both missing", func(t *testing.T) {
		assert.Equal(t, 0.0, TradeRecord{}.Notional())
	})
}

func TestParseDatetime(t *testing.T) {
	t.Run("rfc3339 utc", func(t *testing.T) {
		rec := TradeRecord{Datetime: "2024-01-01T10:00:00Z"}
		ts, ok := rec.ParseDatetime()
		require.True(t, ok)
		assert.Equal(t, 10, ts.Hour())
	})
	t.Run("offset normalized to utc", func(t *testing.T) {
		rec := TradeRecord{Datetime: "2024-01-01T10:00:00-05:00"}
		ts, ok := rec.ParseDatetime()
		require.True(t, ok)
		assert.Equal(t, 15, ts.Hour())
		assert.Equal(t, time.UTC, ts.Location())
	})
	t.Run("no zone assumed utc", func(t *testing.T) {
		rec := TradeRecord{Datetime: "2024-01-01 23:30:00"}
		ts, ok := rec.ParseDatetime()
		require.True(t, ok)
		assert.Equal(t, 23, ts.Hour())
	})
	t.Run("unparseable", func(t *testing.T) {
		_, ok := TradeRecord{Datetime: "yesterday"}.ParseDatetime()
		assert.False(t, ok)
	})
	t.Run("empty", func(t *testing.T) {
		_, ok := TradeRecord{}.ParseDatetime()
		assert.False(t, ok)
	})
}

func TestCombinedGeneratedAt(t *testing.T) {
	fallback := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	t.Run("payload timestamp wins", func(t *testing.T) {
		c := &Combined{Timestamp: "2024-01-15T08:00:00Z", FetchedAt: fallback}
		assert.Equal(t, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), c.GeneratedAt())
	})
	t.Run("falls back to fetch time", func(t *testing.T) {
		c := &Combined{Timestamp: "not-a-time", FetchedAt: fallback}
		assert.Equal(t, fallback, c.GeneratedAt())
	})
	t.Run("nil safe", func(t *testing.T) {
		var c *Combined
		assert.True(t, c.GeneratedAt().IsZero())
	})
}
