package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/joonho/argus/pkg/config"
	"github.com/joonho/argus/pkg/httputil"
	"github.com/joonho/argus/pkg/logger"
)

// FREDClient St. Louis Fed 경제지표 API 클라이언트
// 레이트리밋은 httputil.Client가 강제 (기본 120 req/min)
type FREDClient struct {
	client *httputil.Client
	config config.FREDConfig
	logger *logger.Logger
}

// fredResponse FRED observations 응답 스키마
// 값은 문자열로 오고 결측은 "."
type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// NewFREDClient creates a new FRED API client
func NewFREDClient(cfg config.FREDConfig, log *logger.Logger) *FREDClient {
	return &FREDClient{
		client: httputil.New(log).
			WithRateLimit(cfg.RateLimitPerMin).
			WithRetry(3, time.Second),
		config: cfg,
		logger: log.Component("fred"),
	}
}

// FetchSeries 지표 시계열 조회
func (c *FREDClient) FetchSeries(ctx context.Context, name, seriesID string) (*Series, error) {
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("fred: API key not configured")
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.config.APIKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "asc")
	params.Set("limit", "400")

	endpoint := fmt.Sprintf("%s/series/observations?%s", c.config.BaseURL, params.Encode())

	var resp fredResponse
	if err := c.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fred fetch %s: %w", seriesID, err)
	}

	series := &Series{
		Name:        name,
		Source:      "fred",
		CollectedAt: time.Now().UTC(),
	}

	for _, obs := range resp.Observations {
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			c.logger.WithField("date", obs.Date).Warn("Skipping observation with unparseable date")
			continue
		}

		// FRED는 결측을 "."로 표기
		if obs.Value == "." {
			series.Observations = append(series.Observations, Observation{Date: date, Missing: true})
			continue
		}

		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			series.Observations = append(series.Observations, Observation{Date: date, Missing: true})
			continue
		}

		series.Observations = append(series.Observations, Observation{Date: date, Value: value})
	}

	c.logger.WithFields(map[string]interface{}{
		"series_id":    seriesID,
		"observations": len(series.Observations),
	}).Debug("FRED series fetched")

	return series, nil
}
