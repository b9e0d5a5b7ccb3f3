package ingest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/joonho/argus/pkg/httputil"
	"github.com/joonho/argus/pkg/logger"
)

// postingSelectors 채용 페이지에서 공고 항목으로 인식하는 셀렉터 (우선순위 순)
// 첫 번째로 매치가 나오는 셀렉터의 카운트를 사용
var postingSelectors = []string{
	"[data-job-id]",
	".job-posting",
	"li.job",
	".careers-list li",
	"a[href*='/jobs/']",
}

// JobsScraper 채용공고 페이지 스크레이퍼
// 공고 수만 수집. 본문 내용은 저장하지 않음
type JobsScraper struct {
	client *httputil.Client
	logger *logger.Logger
}

// NewJobsScraper creates a new careers page scraper
func NewJobsScraper(log *logger.Logger) *JobsScraper {
	return &JobsScraper{
		client: httputil.New(log).WithRetry(2, 0),
		logger: log.Component("jobs_scraper"),
	}
}

// CountPostings 페이지의 공고 수 집계
func (s *JobsScraper) CountPostings(ctx context.Context, pageURL string) (int, error) {
	resp, err := s.client.Get(ctx, pageURL)
	if err != nil {
		return 0, fmt.Errorf("fetch careers page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("careers page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("parse careers page: %w", err)
	}

	for _, selector := range postingSelectors {
		if count := doc.Find(selector).Length(); count > 0 {
			s.logger.WithFields(map[string]interface{}{
				"url":      pageURL,
				"selector": selector,
				"count":    count,
			}).Debug("Job postings counted")
			return count, nil
		}
	}

	// 매치 없음은 오류가 아님. 공고 0건인 페이지일 수 있음
	return 0, nil
}
