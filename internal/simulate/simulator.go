package simulate

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/joonho/argus/internal/contracts"
)

// Config Monte Carlo 시뮬레이션 설정
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록. ambient 난수원 사용 금지
type Config struct {
	Iterations  int                          // 엔티티별 시나리오 수 (기본: 1000)
	Seed        int64                        // 전역 시드
	Correlation *contracts.CorrelationPolicy // nil = 엔티티 간 독립
	Bounds      *contracts.ValueBounds       // nil = 무제한. 정책: 클리핑 (재샘플링 아님)
	Workers     int                          // 병렬 워커 수 (0 = 4)

	// Entities 정책에 구성된 전체 엔티티 집합.
	// 상관 그룹 멤버가 이 집합에 있으면서 분포만 없는 경우는 업스트림에서
	// 엔티티 단위로 제외된 것이므로 건너뜀. 비어 있으면 분포 집합을 기준으로 검증
	Entities []string
}

// Simulator 시나리오 시뮬레이터
//
// 재현성 계약: 동일 시드 + 동일 분포 집합 ⇒ 비트 동일 시나리오 경로.
// 엔티티별 서브스트림은 xxhash(전역 시드 ‖ 엔티티명)로 파생하고,
// 상관 쇼크는 전역 시드만으로 시드된 별도 스트림에서 (iteration, horizon)
// 순서로 워커 시작 전에 미리 생성하므로 병렬 실행이 결과를 바꾸지 않음.
type Simulator struct {
	config Config
	log    zerolog.Logger
}

// New creates a new simulator
func New(config Config, log zerolog.Logger) *Simulator {
	return &Simulator{
		config: config,
		log:    log.With().Str("component", "simulate").Logger(),
	}
}

// Simulate 전체 엔티티에 대해 시나리오 경로 생성
//
// 실패:
//   - ErrInvalidIterations: iterations <= 0 (설정 오류, 전체 중단. 경로 생성 전)
//   - ErrUnknownEntityCorrelation: 상관 정책이 구성에 없는 엔티티 참조
//
// 구성된 엔티티인데 분포가 없는 그룹 멤버는 설정 오류가 아니라 엔티티 단위
// 제외의 결과이므로 무시하고, 살아남은 멤버는 그대로 상관 쇼크를 받는다
func (s *Simulator) Simulate(
	ctx context.Context,
	runID string,
	dists map[string]*contracts.ForecastDistribution,
) (map[string][]contracts.ScenarioPath, error) {
	if s.config.Iterations <= 0 {
		return nil, fmt.Errorf("%w: %d", contracts.ErrInvalidIterations, s.config.Iterations)
	}

	// 상관 정책 검증: 구성 밖 엔티티 참조만 설정 오류
	if s.config.Correlation != nil {
		known := s.knownEntities(dists)
		for _, m := range s.config.Correlation.Members() {
			if _, exists := known[m]; !exists {
				return nil, fmt.Errorf("%w: %s", contracts.ErrUnknownEntityCorrelation, m)
			}
		}
	}

	// 엔티티 순서 고정 (결정적 처리 순서 + 테스트 용이)
	entities := make([]string, 0, len(dists))
	maxHorizons := 0
	for entity, d := range dists {
		entities = append(entities, entity)
		if len(d.Horizons) > maxHorizons {
			maxHorizons = len(d.Horizons)
		}
	}
	sort.Strings(entities)

	// 공유 매크로 쇼크 테이블: 전역 시드로만 시드, (iteration, horizon) 순서로 소비
	// 엔티티와 무관하게 생성하므로 병렬 스케줄링이 재현성에 영향 없음
	var shared [][]float64
	if s.config.Correlation != nil && len(s.config.Correlation.Groups) > 0 {
		shared = s.drawSharedShocks(maxHorizons)
	}

	workers := s.config.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make([][]contracts.ScenarioPath, len(entities))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for idx, entity := range entities {
		// 엔티티 경계에서의 협조적 취소 체크포인트
		if err := ctx.Err(); err != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, entity string) {
			defer wg.Done()
			defer func() { <-sem }()

			// 각 워커는 자신의 인덱스 슬롯에만 씀. 공유 가변 상태 없음
			results[idx] = s.simulateEntity(runID, entity, dists[entity], shared)
		}(idx, entity)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths := make(map[string][]contracts.ScenarioPath, len(entities))
	for idx, entity := range entities {
		paths[entity] = results[idx]
	}

	s.log.Info().
		Int("entities", len(entities)).
		Int("iterations", s.config.Iterations).
		Int64("seed", s.config.Seed).
		Msg("scenario simulation completed")

	return paths, nil
}

// simulateEntity 단일 엔티티의 시나리오 경로 생성
// 전용 서브스트림만 소비하므로 다른 엔티티와 완전히 독립
func (s *Simulator) simulateEntity(
	runID, entity string,
	dist *contracts.ForecastDistribution,
	shared [][]float64,
) []contracts.ScenarioPath {
	rng := rand.New(rand.NewSource(entitySeed(s.config.Seed, entity)))

	correlated := s.config.Correlation.Correlated(entity)
	var rho, indep float64
	if correlated {
		rho = s.config.Correlation.Weight
		indep = math.Sqrt(1 - rho*rho)
	}

	paths := make([]contracts.ScenarioPath, s.config.Iterations)
	for i := 0; i < s.config.Iterations; i++ {
		values := make([]float64, len(dist.Horizons))
		for k, h := range dist.Horizons {
			z := rng.NormFloat64()
			if correlated {
				z = indep*z + rho*shared[i][k]
			}

			v := h.Mean + h.StdDev*z
			if s.config.Bounds != nil {
				v = s.config.Bounds.Clip(v)
			}
			values[k] = v
		}

		paths[i] = contracts.ScenarioPath{
			Entity: entity,
			RunID:  runID,
			Index:  i,
			Values: values,
		}
	}

	return paths
}

// knownEntities 상관 멤버 검증 기준 집합: 구성된 엔티티 ∪ 분포 보유 엔티티
func (s *Simulator) knownEntities(dists map[string]*contracts.ForecastDistribution) map[string]struct{} {
	known := make(map[string]struct{}, len(s.config.Entities)+len(dists))
	for _, e := range s.config.Entities {
		known[e] = struct{}{}
	}
	for e := range dists {
		known[e] = struct{}{}
	}
	return known
}

// drawSharedShocks 공유 쇼크 테이블 생성 [iterations][horizons]
func (s *Simulator) drawSharedShocks(horizons int) [][]float64 {
	rng := rand.New(rand.NewSource(s.config.Seed))

	table := make([][]float64, s.config.Iterations)
	for i := range table {
		row := make([]float64, horizons)
		for k := range row {
			row[k] = rng.NormFloat64()
		}
		table[i] = row
	}
	return table
}

// entitySeed 엔티티별 결정적 서브스트림 시드 파생
// 전역 시드와 엔티티명의 xxhash. 워커 수/순서와 무관
func entitySeed(seed int64, entity string) int64 {
	h := xxhash.New()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(seed))
	_, _ = h.Write(buf[:])
	_, _ = h.WriteString(entity)

	return int64(h.Sum64())
}
