package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	"SignalFuse/internal/service/ratelimit"
	xhttp "SignalFuse/pkg/http"
	applogger "SignalFuse/pkg/logger"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// Free-tier budget: 5 requests per minute.
const (
	rateKey       = "alphavantage"
	rateCapacity  = 5
	rateRefillSec = 5.0 / 60.0
)

// ErrRateLimited is returned when the request budget is exhausted.
var ErrRateLimited = fmt.Errorf("alphavantage: rate limit exceeded")

// futuresProxies maps futures tickers to the ETFs used as price
// proxies, since the upstream API has no futures coverage.
var futuresProxies = map[string]string{
	"NQ": "QQQ",
	"ES": "SPY",
	"YM": "DIA",
}

// Client fetches OHLCV bars from Alpha Vantage. It implements BarStore
// so deployments without a bar warehouse can still run analysis.
type Client struct {
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	l       *applogger.Logger
	baseURL string
	apiKey  string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

func NewClient(apiKey string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: ratelimit.New(),
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProxySymbol resolves a futures ticker to its ETF proxy; other
// symbols pass through unchanged.
func ProxySymbol(symbol string) string {
	if proxy, ok := futuresProxies[symbol]; ok {
		return proxy
	}
	return symbol
}

func (c *Client) GetSeries(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (models.BarSeries, error) {
	series := models.BarSeries{Symbol: symbol, Timeframe: string(tf)}
	bars, err := c.fetch(ctx, symbol, tf)
	if err != nil {
		return series, err
	}
	if n > 0 && n < len(bars) {
		bars = bars[len(bars)-n:]
	}
	series.Bars = bars
	return series, nil
}

func (c *Client) GetSeriesRange(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) (models.BarSeries, error) {
	series := models.BarSeries{Symbol: symbol, Timeframe: string(tf)}
	bars, err := c.fetch(ctx, symbol, tf)
	if err != nil {
		return series, err
	}
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if !b.Timestamp.Before(from) && !b.Timestamp.After(to) {
			out = append(out, b)
		}
	}
	series.Bars = out
	return series, nil
}

func (c *Client) fetch(ctx context.Context, symbol string, tf domrepo.Timeframe) ([]models.Bar, error) {
	if !c.limiter.Allow(rateKey, rateCapacity, rateRefillSec) {
		return nil, ErrRateLimited
	}

	proxy := ProxySymbol(symbol)
	params := map[string][]string{
		"symbol":     {proxy},
		"apikey":     {c.apiKey},
		"outputsize": {"compact"},
	}
	var seriesKey, tsLayout string
	switch tf {
	case domrepo.TFIntraday:
		params["function"] = []string{"TIME_SERIES_INTRADAY"}
		params["interval"] = []string{"5min"}
		seriesKey = "Time Series (5min)"
		tsLayout = "2006-01-02 15:04:05"
	default:
		params["function"] = []string{"TIME_SERIES_DAILY"}
		seriesKey = "Time Series (Daily)"
		tsLayout = "2006-01-02"
	}

	var payload map[string]json.RawMessage
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL,
		QueryParams: params,
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}

	if raw, ok := payload["Note"]; ok {
		var note string
		_ = json.Unmarshal(raw, &note)
		return nil, fmt.Errorf("alphavantage throttled: %s", note)
	}
	if raw, ok := payload["Error Message"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		return nil, fmt.Errorf("alphavantage error: %s", msg)
	}

	raw, ok := payload[seriesKey]
	if !ok {
		return nil, fmt.Errorf("alphavantage: series %q missing from response", seriesKey)
	}
	var rows map[string]map[string]string
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}

	bars := make([]models.Bar, 0, len(rows))
	for ts, fields := range rows {
		t, err := time.Parse(tsLayout, ts)
		if err != nil {
			continue
		}
		bar, err := parseBar(t, fields)
		if err != nil {
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	if c.l != nil {
		c.l.Debug("alphavantage fetch ok",
			applogger.String("symbol", symbol),
			applogger.String("proxy", proxy),
			applogger.String("tf", string(tf)),
			applogger.Int("bars", len(bars)),
		)
	}
	return bars, nil
}

func parseBar(t time.Time, fields map[string]string) (models.Bar, error) {
	open, err1 := strconv.ParseFloat(fields["1. open"], 64)
	high, err2 := strconv.ParseFloat(fields["2. high"], 64)
	low, err3 := strconv.ParseFloat(fields["3. low"], 64)
	cls, err4 := strconv.ParseFloat(fields["4. close"], 64)
	vol, err5 := strconv.ParseFloat(fields["5. volume"], 64)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return models.Bar{}, err
		}
	}
	return models.Bar{
		Timestamp: t,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}, nil
}

var _ domrepo.BarStore = (*Client)(nil)
