package contracts

import "errors"

// 엔진 오류 분류
// 엔티티 단위 오류(앞 6개)는 해당 엔티티만 제외하고 런은 계속 진행.
// 런 단위 오류(RunAlreadyFinalized 등)와 설정 오류만 전체 런을 중단시킴.
var (
	// Forecaster
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrDegenerateInput     = errors.New("degenerate input")
	ErrModelFitFailure     = errors.New("model fit failure")

	// Simulator
	ErrInvalidIterations        = errors.New("invalid iteration count")
	ErrUnknownEntityCorrelation = errors.New("correlation policy references unknown entity")

	// Ranker
	ErrEmptyScenarioSet = errors.New("empty scenario set")

	// RunRecord
	ErrRunAlreadyFinalized    = errors.New("run already finalized")
	ErrDuplicateConcurrentRun = errors.New("duplicate concurrent run")
	ErrRunNotFound            = errors.New("run not found")
)
