package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joonho/argus/pkg/config"
	"github.com/joonho/argus/pkg/logger"
)

func TestSyntheticSatelliteDeterministic(t *testing.T) {
	until := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	g1 := NewSyntheticGenerator(42)
	g2 := NewSyntheticGenerator(42)

	s1 := g1.SatelliteSeries("port_busan", 60, until)
	s2 := g2.SatelliteSeries("port_busan", 60, until)

	if len(s1.Observations) != 60 {
		t.Fatalf("expected 60 observations, got %d", len(s1.Observations))
	}
	for i := range s1.Observations {
		if s1.Observations[i].Value != s2.Observations[i].Value {
			t.Fatalf("same seed must reproduce the series, diverged at %d", i)
		}
		if v := s1.Observations[i].Value; v < 0 || v > 100 {
			t.Fatalf("satellite activity %v out of [0, 100]", v)
		}
	}

	// 엔티티가 다르면 시계열도 달라야 함
	other := g1.SatelliteSeries("port_shanghai", 60, until)
	same := true
	for i := range s1.Observations {
		if s1.Observations[i].Value != other.Observations[i].Value {
			same = false
			break
		}
	}
	if same {
		t.Error("different entities must have independent series")
	}
}

func TestSyntheticJobsNonNegative(t *testing.T) {
	g := NewSyntheticGenerator(7)
	s := g.JobsSeries("factory_shenzhen", 120, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	for _, obs := range s.Observations {
		if obs.Value < 0 {
			t.Fatalf("job posting count must be non-negative, got %v", obs.Value)
		}
	}
}

func TestSeriesLatestSkipsMissing(t *testing.T) {
	s := &Series{
		Observations: []Observation{
			{Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), Value: 10},
			{Date: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), Missing: true},
		},
	}

	latest, ok := s.Latest()
	if !ok || latest.Value != 10 {
		t.Errorf("Latest must skip missing observations, got %+v ok=%v", latest, ok)
	}

	empty := &Series{Observations: []Observation{{Missing: true}}}
	if _, ok := empty.Latest(); ok {
		t.Error("all-missing series must report no latest observation")
	}
}

func TestFREDClientParsesMissingValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("series_id") != "GDP" {
			http.Error(w, "unknown series", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"observations": [
				{"date": "2026-01-01", "value": "27000.5"},
				{"date": "2026-02-01", "value": "."},
				{"date": "2026-03-01", "value": "27100.2"}
			]
		}`))
	}))
	defer server.Close()

	client := NewFREDClient(config.FREDConfig{
		APIKey:          "test-key",
		BaseURL:         server.URL,
		RateLimitPerMin: 0,
	}, logger.NewNop())

	series, err := client.FetchSeries(context.Background(), "gdp", "GDP")
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}

	if len(series.Observations) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(series.Observations))
	}
	if series.Observations[0].Value != 27000.5 {
		t.Errorf("unexpected first value %v", series.Observations[0].Value)
	}
	if !series.Observations[1].Missing {
		t.Error("FRED '.' value must map to a missing observation")
	}
	if series.Observations[2].Missing {
		t.Error("numeric value must not be marked missing")
	}
}

func TestFREDClientRequiresAPIKey(t *testing.T) {
	client := NewFREDClient(config.FREDConfig{BaseURL: "http://localhost"}, logger.NewNop())
	if _, err := client.FetchSeries(context.Background(), "gdp", "GDP"); err == nil {
		t.Error("missing API key must be rejected before any request")
	}
}

func TestJobsScraperCountsPostings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<ul class="careers">
				<li class="job">Crane Operator</li>
				<li class="job">Logistics Analyst</li>
				<li class="job">Dock Supervisor</li>
			</ul>
		</body></html>`))
	}))
	defer server.Close()

	scraper := NewJobsScraper(logger.NewNop())
	count, err := scraper.CountPostings(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("CountPostings failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 postings, got %d", count)
	}
}

func TestJobsScraperEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>No open positions.</p></body></html>`))
	}))
	defer server.Close()

	scraper := NewJobsScraper(logger.NewNop())
	count, err := scraper.CountPostings(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("CountPostings failed: %v", err)
	}
	if count != 0 {
		t.Errorf("page without postings must count 0, got %d", count)
	}
}
