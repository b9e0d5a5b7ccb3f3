package simulate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/joonho/argus/internal/contracts"
)

func makeDist(entity string, mean, sigma float64) *contracts.ForecastDistribution {
	return &contracts.ForecastDistribution{
		Entity:        entity,
		ReferenceTime: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Baseline:      mean,
		ModelVersion:  "linear_v1",
		Horizons: []contracts.HorizonForecast{
			{Horizon: 1, Mean: mean, StdDev: sigma, Lower: mean - 2*sigma, Upper: mean + 2*sigma},
			{Horizon: 7, Mean: mean + 1, StdDev: sigma * 2, Lower: mean + 1 - 4*sigma, Upper: mean + 1 + 4*sigma},
			{Horizon: 30, Mean: mean + 3, StdDev: sigma * 4, Lower: mean + 3 - 8*sigma, Upper: mean + 3 + 8*sigma},
		},
	}
}

func testDists() map[string]*contracts.ForecastDistribution {
	return map[string]*contracts.ForecastDistribution{
		"port_busan":       makeDist("port_busan", 50, 2),
		"port_shanghai":    makeDist("port_shanghai", 60, 3),
		"factory_shenzhen": makeDist("factory_shenzhen", 45, 1.5),
	}
}

func TestSimulateReproducible(t *testing.T) {
	// 재현성 계약: 동일 시드 → 비트 동일 경로
	cfg := Config{Iterations: 200, Seed: 42, Workers: 4}
	sim := New(cfg, zerolog.Nop())

	p1, err := sim.Simulate(context.Background(), "run-a", testDists())
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	p2, err := sim.Simulate(context.Background(), "run-a", testDists())
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	for entity, paths := range p1 {
		for i, p := range paths {
			for k, v := range p.Values {
				if v != p2[entity][i].Values[k] {
					t.Fatalf("path %s[%d][%d] differs across identical runs", entity, i, k)
				}
			}
		}
	}
}

func TestSimulateParallelMatchesSequential(t *testing.T) {
	// 워커 수는 결과에 영향이 없어야 함
	seq := New(Config{Iterations: 100, Seed: 7, Workers: 1}, zerolog.Nop())
	par := New(Config{Iterations: 100, Seed: 7, Workers: 8}, zerolog.Nop())

	p1, err := seq.Simulate(context.Background(), "run-b", testDists())
	if err != nil {
		t.Fatalf("sequential failed: %v", err)
	}
	p2, err := par.Simulate(context.Background(), "run-b", testDists())
	if err != nil {
		t.Fatalf("parallel failed: %v", err)
	}

	for entity := range p1 {
		for i := range p1[entity] {
			for k := range p1[entity][i].Values {
				if p1[entity][i].Values[k] != p2[entity][i].Values[k] {
					t.Fatalf("worker count changed %s[%d][%d]", entity, i, k)
				}
			}
		}
	}
}

func TestSimulateSeedChangesOutput(t *testing.T) {
	s1 := New(Config{Iterations: 50, Seed: 1}, zerolog.Nop())
	s2 := New(Config{Iterations: 50, Seed: 2}, zerolog.Nop())

	p1, _ := s1.Simulate(context.Background(), "run-c", testDists())
	p2, _ := s2.Simulate(context.Background(), "run-c", testDists())

	same := true
	for entity := range p1 {
		for i := range p1[entity] {
			for k := range p1[entity][i].Values {
				if p1[entity][i].Values[k] != p2[entity][i].Values[k] {
					same = false
				}
			}
		}
	}
	if same {
		t.Error("different seeds must produce different paths")
	}
}

func TestSimulateInvalidIterations(t *testing.T) {
	// 시나리오: iterations=0 → 경로 생성 전 설정 오류로 전체 중단
	sim := New(Config{Iterations: 0, Seed: 42}, zerolog.Nop())

	paths, err := sim.Simulate(context.Background(), "run-d", testDists())
	if !errors.Is(err, contracts.ErrInvalidIterations) {
		t.Errorf("expected ErrInvalidIterations, got %v", err)
	}
	if paths != nil {
		t.Error("no paths may be produced on configuration error")
	}
}

func TestSimulateUnknownCorrelationEntity(t *testing.T) {
	cfg := Config{
		Iterations: 10,
		Seed:       42,
		Correlation: &contracts.CorrelationPolicy{
			Groups: map[string][]string{"ports": {"port_busan", "port_rotterdam"}},
			Weight: 0.5,
		},
	}
	sim := New(cfg, zerolog.Nop())

	_, err := sim.Simulate(context.Background(), "run-e", testDists())
	if !errors.Is(err, contracts.ErrUnknownEntityCorrelation) {
		t.Errorf("expected ErrUnknownEntityCorrelation, got %v", err)
	}
}

func TestSimulateExcludedCorrelationMemberSkipped(t *testing.T) {
	// 구성된 그룹 멤버가 업스트림에서 제외되어 분포가 없어도
	// 설정 오류가 아님: 살아남은 멤버만으로 시뮬레이션 계속
	cfg := Config{
		Iterations: 50,
		Seed:       42,
		Entities:   []string{"port_busan", "port_shanghai"},
		Correlation: &contracts.CorrelationPolicy{
			Groups: map[string][]string{"ports": {"port_busan", "port_shanghai"}},
			Weight: 0.5,
		},
	}
	sim := New(cfg, zerolog.Nop())

	dists := map[string]*contracts.ForecastDistribution{
		"port_busan": makeDist("port_busan", 50, 2),
	}

	paths, err := sim.Simulate(context.Background(), "run-f", dists)
	if err != nil {
		t.Fatalf("excluded group member must not abort simulation: %v", err)
	}
	if len(paths["port_busan"]) != 50 {
		t.Errorf("surviving member must still get %d paths, got %d", 50, len(paths["port_busan"]))
	}
}

func TestSimulateBoundsClipped(t *testing.T) {
	// 큰 σ + [0,100] 경계 → 모든 값이 경계 안
	cfg := Config{
		Iterations: 500,
		Seed:       42,
		Bounds:     &contracts.ValueBounds{Min: 0, Max: 100},
	}
	sim := New(cfg, zerolog.Nop())

	dists := map[string]*contracts.ForecastDistribution{
		"port_busan": makeDist("port_busan", 50, 40),
	}
	paths, err := sim.Simulate(context.Background(), "run-f", dists)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	for _, p := range paths["port_busan"] {
		for _, v := range p.Values {
			if v < 0 || v > 100 {
				t.Fatalf("value %v escaped bounds [0, 100]", v)
			}
		}
	}
}

func TestSimulateFullCorrelationAligns(t *testing.T) {
	// weight=1.0이면 상관 그룹 내 동일 분포 엔티티는 동일 경로를 가짐
	// (독립 성분 계수 sqrt(1-ρ²)=0 → 공유 쇼크만 남음)
	cfg := Config{
		Iterations: 50,
		Seed:       42,
		Correlation: &contracts.CorrelationPolicy{
			Groups: map[string][]string{"pair": {"a", "b"}},
			Weight: 1.0,
		},
	}
	sim := New(cfg, zerolog.Nop())

	dists := map[string]*contracts.ForecastDistribution{
		"a": makeDist("a", 50, 2),
		"b": makeDist("b", 50, 2),
	}
	paths, err := sim.Simulate(context.Background(), "run-g", dists)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	for i := range paths["a"] {
		for k := range paths["a"][i].Values {
			if paths["a"][i].Values[k] != paths["b"][i].Values[k] {
				t.Fatalf("fully correlated identical entities diverged at [%d][%d]", i, k)
			}
		}
	}
}

func TestSimulatePathShape(t *testing.T) {
	sim := New(Config{Iterations: 25, Seed: 3}, zerolog.Nop())

	paths, err := sim.Simulate(context.Background(), "run-h", testDists())
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	for entity, ps := range paths {
		if len(ps) != 25 {
			t.Errorf("%s: expected 25 paths, got %d", entity, len(ps))
		}
		for i, p := range ps {
			if p.Index != i {
				t.Errorf("%s: path index mismatch at %d", entity, i)
			}
			if p.RunID != "run-h" {
				t.Errorf("%s: run id not stamped on path", entity)
			}
			if len(p.Values) != 3 {
				t.Errorf("%s: expected 3 horizon values, got %d", entity, len(p.Values))
			}
		}
	}
}

func TestSimulateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := New(Config{Iterations: 10, Seed: 42}, zerolog.Nop())
	if _, err := sim.Simulate(ctx, "run-i", testDists()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
