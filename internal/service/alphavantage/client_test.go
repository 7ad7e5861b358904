package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domrepo "SignalFuse/internal/domain/repository"
)

const intradayPayload = `{
  "Meta Data": {"2. Symbol": "QQQ"},
  "Time Series (5min)": {
    "2025-03-03 09:35:00": {"1. open": "101.0", "2. high": "102.0", "3. low": "100.5", "4. close": "101.5", "5. volume": "1200"},
    "2025-03-03 09:30:00": {"1. open": "100.0", "2. high": "101.0", "3. low": "99.5", "4. close": "100.5", "5. volume": "1500"}
  }
}`

const dailyPayload = `{
  "Meta Data": {"2. Symbol": "SPY"},
  "Time Series (Daily)": {
    "2025-03-03": {"1. open": "500.0", "2. high": "505.0", "3. low": "498.0", "4. close": "503.0", "5. volume": "90000"},
    "2025-02-28": {"1. open": "495.0", "2. high": "501.0", "3. low": "494.0", "4. close": "500.0", "5. volume": "85000"}
  }
}`

func TestProxySymbol(t *testing.T) {
	assert.Equal(t, "QQQ", ProxySymbol("NQ"))
	assert.Equal(t, "SPY", ProxySymbol("ES"))
	assert.Equal(t, "DIA", ProxySymbol("YM"))
	assert.Equal(t, "AAPL", ProxySymbol("AAPL"))
}

func TestGetSeriesIntraday(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "QQQ", r.URL.Query().Get("symbol"))
		assert.Equal(t, "TIME_SERIES_INTRADAY", r.URL.Query().Get("function"))
		w.Write([]byte(intradayPayload))
	}))
	defer srv.Close()

	c := NewClient("demo", time.Second, WithBaseURL(srv.URL))
	series, err := c.GetSeries(context.Background(), "NQ", 10, domrepo.TFIntraday)
	require.NoError(t, err)

	require.Len(t, series.Bars, 2)
	// Ascending by timestamp regardless of response map order.
	assert.True(t, series.Bars[0].Timestamp.Before(series.Bars[1].Timestamp))
	assert.InDelta(t, 100.5, series.Bars[0].Close, 1e-9)
	assert.InDelta(t, 1200.0, series.Bars[1].Volume, 1e-9)
	assert.Equal(t, "NQ", series.Symbol)
}

func TestGetSeriesDailyTail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		w.Write([]byte(dailyPayload))
	}))
	defer srv.Close()

	c := NewClient("demo", time.Second, WithBaseURL(srv.URL))
	series, err := c.GetSeries(context.Background(), "ES", 1, domrepo.TF5D)
	require.NoError(t, err)

	require.Len(t, series.Bars, 1)
	assert.Equal(t, 3, series.Bars[0].Timestamp.Day())
}

func TestGetSeriesRangeFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dailyPayload))
	}))
	defer srv.Close()

	c := NewClient("demo", time.Second, WithBaseURL(srv.URL))
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	series, err := c.GetSeriesRange(context.Background(), "ES", from, to, domrepo.TF30D)
	require.NoError(t, err)

	require.Len(t, series.Bars, 1)
	assert.Equal(t, time.March, series.Bars[0].Timestamp.Month())
}

func TestThrottledResponseIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "API call frequency exceeded"}`))
	}))
	defer srv.Close()

	c := NewClient("demo", time.Second, WithBaseURL(srv.URL))
	_, err := c.GetSeries(context.Background(), "NQ", 10, domrepo.TFIntraday)
	assert.ErrorContains(t, err, "throttled")
}

func TestLocalRateLimitBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dailyPayload))
	}))
	defer srv.Close()

	c := NewClient("demo", time.Second, WithBaseURL(srv.URL))
	for i := 0; i < rateCapacity; i++ {
		_, err := c.GetSeries(context.Background(), "ES", 10, domrepo.TF5D)
		require.NoError(t, err)
	}
	_, err := c.GetSeries(context.Background(), "ES", 10, domrepo.TF5D)
	assert.ErrorIs(t, err, ErrRateLimited)
}
