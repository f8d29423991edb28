package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/aurora/engine/internal/contracts"
	"github.com/wonny/aurora/engine/pkg/httputil"
	"github.com/wonny/aurora/engine/pkg/logger"
)

// SourceName identifies the provider in config and logs
const SourceName = "provider"

// Client fetches daily history from the Yahoo Finance chart API
// ⭐ SSOT: 외부 가격 제공자 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a provider client. ratePerSecond <= 0 disables the local limiter.
func NewClient(httpClient *httputil.Client, baseURL string, ratePerSecond int, log *logger.Logger) *Client {
	limit := rate.Inf
	burst := 1
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = ratePerSecond
	}

	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name implements contracts.PriceSource
func (c *Client) Name() string {
	return SourceName
}

// History implements contracts.PriceSource. Bars come back ascending with
// duplicates and null rows removed.
func (c *Client) History(ctx context.Context, inst contracts.Instrument, from, to time.Time) ([]contracts.PriceBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", from.Unix()))
	params.Set("period2", fmt.Sprintf("%d", to.Unix()))
	params.Set("interval", "1d")
	params.Set("events", "history")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(inst.Ticker), params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg := chartErrorMessage(body); msg != "" {
			return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	bars, err := parseChart(body, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("parse chart for %s: %w", inst.Ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": inst.Ticker,
		"count":  len(bars),
	}).Debug("Fetched provider history")

	return bars, nil
}

// chart API response (only the fields we read)
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func chartErrorMessage(body []byte) string {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Chart.Error == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
}

// parseChart converts the columnar chart payload into bars. Rows without a
// close are dropped, repeated dates keep the last row.
func parseChart(body []byte, instrumentID string) ([]contracts.PriceBar, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("provider error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := result.Indicators.Quote[0]

	byDate := make(map[time.Time]contracts.PriceBar, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice, ok := at(q.Close, i)
		if !ok || closePrice <= 0 {
			continue
		}

		date := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		bar := contracts.PriceBar{
			InstrumentID: instrumentID,
			Date:         date,
			Close:        closePrice,
		}
		bar.Open = orDefault(q.Open, i, closePrice)
		bar.High = orDefault(q.High, i, closePrice)
		bar.Low = orDefault(q.Low, i, closePrice)
		if v, ok := at(q.Volume, i); ok {
			bar.Volume = int64(v)
		}
		byDate[date] = bar
	}

	bars := make([]contracts.PriceBar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return bars, nil
}

func at(col []*float64, i int) (float64, bool) {
	if i >= len(col) || col[i] == nil {
		return 0, false
	}
	return *col[i], true
}

func orDefault(col []*float64, i int, def float64) float64 {
	if v, ok := at(col, i); ok {
		return v
	}
	return def
}
