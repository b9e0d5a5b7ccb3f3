package commands

import (
	"fmt"

	"github.com/joonho/argus/internal/contracts"
	"github.com/joonho/argus/internal/engine"
	"github.com/joonho/argus/internal/features"
	"github.com/joonho/argus/internal/forecast"
	"github.com/joonho/argus/internal/opportunity"
	"github.com/joonho/argus/internal/policy"
	"github.com/joonho/argus/internal/publish"
	"github.com/joonho/argus/internal/runs"
	"github.com/joonho/argus/internal/simulate"
	"github.com/joonho/argus/pkg/config"
	"github.com/joonho/argus/pkg/database"
	"github.com/joonho/argus/pkg/logger"
	"github.com/joonho/argus/pkg/redis"
)

// app 명령 공통 의존성 묶음
// ⭐ SSOT: 컴포넌트 조립은 여기서만. 각 명령은 필요한 것만 꺼내 씀
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	redis      *redis.Client
	store      *redis.Store
	pol        *policy.Policy
	policyHash string

	db       *database.DB // DATABASE_ENABLED=false면 nil
	runStore contracts.RunStore
	audit    engine.AuditStore // DB 없으면 nil
}

// initApp loads config and wires shared infrastructure
func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	policyPath := cfg.PolicyPath
	if policyFile != "" {
		policyPath = policyFile
	}
	pol, err := policy.LoadOrDefault(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	policyHash, err := policy.Hash(pol)
	if err != nil {
		return nil, fmt.Errorf("hash policy: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{
		cfg:        cfg,
		log:        log,
		redis:      redisClient,
		store:      redis.NewStore(redisClient),
		pol:        pol,
		policyHash: policyHash,
		runStore:   runs.NewMemoryStore(),
	}

	// DB가 켜져 있으면 run 레코드와 감사 아카이브를 영속화
	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.runStore = runs.NewRepository(db, log.Zerolog())
		a.audit = publish.NewRepository(db, log.Zerolog())
	}

	log.WithFields(map[string]interface{}{
		"policy":      pol.Meta.PolicyID,
		"policy_hash": policyHash[:12],
		"entities":    len(pol.Entities),
		"db_enabled":  cfg.Database.Enabled,
	}).Info("Application initialized")

	return a, nil
}

// close releases shared connections
func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// newOrchestrator wires the forecast → simulate → rank → publish engine
func (a *app) newOrchestrator() (*engine.Orchestrator, error) {
	forecaster, err := forecast.New(forecast.Config{
		TargetFeature:        a.pol.Engine.TargetFeature,
		Horizons:             a.pol.Engine.Horizons,
		MinHistoryMultiplier: a.pol.Engine.MinHistoryMultiplier,
		DispersionFloor:      a.pol.Engine.DispersionFloor,
		Model:                a.pol.Engine.Model,
	}, a.log.Zerolog())
	if err != nil {
		return nil, fmt.Errorf("init forecaster: %w", err)
	}

	simulator := simulate.New(simulate.Config{
		Iterations:  a.pol.Engine.Iterations,
		Seed:        a.pol.Engine.Seed,
		Correlation: a.pol.Engine.Correlation,
		Bounds:      a.pol.Engine.Bounds,
		Workers:     a.pol.Engine.Workers,
		Entities:    a.pol.EntityNames(),
	}, a.log.Zerolog())

	ranker := opportunity.New(opportunity.Config{
		MinimumReturnThreshold: a.pol.Engine.MinimumReturnThreshold,
		DispersionFloor:        a.pol.Engine.DispersionFloor,
	}, a.log.Zerolog())

	reader := features.NewStore(a.store, a.log.Zerolog())
	publisher := publish.New(a.store, a.log.Zerolog())

	return engine.NewOrchestrator(
		reader, forecaster, simulator, ranker, publisher,
		a.runStore, runs.NewCoordinator(), a.audit,
		a.pol, a.policyHash, a.log.Zerolog(),
	), nil
}
