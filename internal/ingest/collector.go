package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/internal/policy"
	"github.com/joonho/argus/pkg/logger"
	"github.com/joonho/argus/pkg/redis"
)

// 합성 소스로 채우는 히스토리 길이 (엔진 최소 관측 수를 여유 있게 상회)
const defaultLookbackDays = 240

// Collector 수집 스테이지 조율
// ⭐ SSOT: raw:* 키 쓰기는 이 스테이지에서만
//
// 소스 단위 실패는 격리. 실패한 소스는 메타데이터 Errors에 기록하고
// 나머지 소스 수집은 계속 진행. 모든 소스가 실패해야 스테이지 실패
type Collector struct {
	fred    *FREDClient
	scraper *JobsScraper
	synth   *SyntheticGenerator
	store   *redis.Store
	policy  *policy.Policy
	logger  *logger.Logger
}

// NewCollector creates a new collector
func NewCollector(
	fred *FREDClient,
	scraper *JobsScraper,
	synth *SyntheticGenerator,
	store *redis.Store,
	pol *policy.Policy,
	log *logger.Logger,
) *Collector {
	return &Collector{
		fred:    fred,
		scraper: scraper,
		synth:   synth,
		store:   store,
		policy:  pol,
		logger:  log.Component("ingest"),
	}
}

// Collect 전체 소스 수집 실행
func (c *Collector) Collect(ctx context.Context) error {
	now := time.Now().UTC()
	items := 0
	failures := make(map[string]string)

	c.logger.WithFields(map[string]interface{}{
		"indicators": len(c.policy.Indicators),
		"entities":   len(c.policy.Entities),
	}).Info("Starting collection")

	// 경제지표 (FRED)
	for _, ind := range c.policy.Indicators {
		if err := c.collectIndicator(ctx, ind); err != nil {
			c.logger.WithError(err).WithField("indicator", ind.Name).Warn("Indicator collection failed")
			failures["fred:"+ind.Name] = err.Error()
			continue
		}
		items++
	}

	// 위성 활동 관측
	for _, entity := range c.policy.Entities {
		series := c.synth.SatelliteSeries(entity.Name, defaultLookbackDays, now)
		if err := c.store.SetJSON(ctx, redis.RawSatelliteKey(entity.Name), series); err != nil {
			failures["satellite:"+entity.Name] = err.Error()
			continue
		}
		items++
	}

	// 채용공고
	for _, entity := range c.policy.Entities {
		if err := c.collectJobs(ctx, entity, now); err != nil {
			c.logger.WithError(err).WithField("entity", entity.Name).Warn("Jobs collection failed")
			failures["jobs:"+entity.Name] = err.Error()
			continue
		}
		items++
	}

	meta := &contracts.StageMetadata{
		Stage:       "collection",
		CompletedAt: now,
		Items:       items,
		Errors:      failures,
	}
	if err := c.store.SetJSON(ctx, redis.KeyLastCollection, meta); err != nil {
		return fmt.Errorf("write collection metadata: %w", err)
	}

	if items == 0 {
		return fmt.Errorf("collection produced nothing: %d sources failed", len(failures))
	}

	c.logger.WithFields(map[string]interface{}{
		"items":    items,
		"failures": len(failures),
	}).Info("Collection completed")

	return nil
}

func (c *Collector) collectIndicator(ctx context.Context, ind policy.Indicator) error {
	series, err := c.fred.FetchSeries(ctx, ind.Name, ind.SeriesID)
	if err != nil {
		return err
	}
	return c.store.SetJSON(ctx, redis.RawFredKey(ind.Name), series)
}

// collectJobs 채용공고 수집
// CareersURL이 있으면 실제 페이지를 스크레이핑해 기존 시계열에 오늘 관측을
// 덧붙이고, 없으면 합성 시계열로 통째로 대체
func (c *Collector) collectJobs(ctx context.Context, entity policy.Entity, now time.Time) error {
	key := redis.RawJobsKey(entity.Name)

	if entity.CareersURL == "" {
		series := c.synth.JobsSeries(entity.Name, defaultLookbackDays, now)
		return c.store.SetJSON(ctx, key, series)
	}

	count, err := c.scraper.CountPostings(ctx, entity.CareersURL)
	if err != nil {
		return err
	}

	var series Series
	found, err := c.store.GetJSON(ctx, key, &series)
	if err != nil {
		return err
	}
	if !found {
		series = Series{Name: entity.Name, Source: "jobs"}
	}

	today := now.Truncate(24 * time.Hour)
	obs := Observation{Date: today, Value: float64(count)}

	// 같은 날 재수집은 마지막 관측 교체 (하루 1관측 불변식)
	if n := len(series.Observations); n > 0 && series.Observations[n-1].Date.Equal(today) {
		series.Observations[n-1] = obs
	} else {
		series.Observations = append(series.Observations, obs)
	}
	series.CollectedAt = now

	return c.store.SetJSON(ctx, key, series)
}
