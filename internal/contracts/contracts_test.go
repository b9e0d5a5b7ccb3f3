package contracts

import (
	"testing"
	"time"
)

func TestValidateHistory(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	ordered := []FeatureVector{
		{Entity: "port_busan", Timestamp: base},
		{Entity: "port_busan", Timestamp: base.AddDate(0, 0, 1)},
		{Entity: "port_busan", Timestamp: base.AddDate(0, 0, 2)},
	}
	if err := ValidateHistory(ordered); err != nil {
		t.Fatalf("ordered history should validate: %v", err)
	}

	// 중복 타임스탬프 → DegenerateInput
	duplicate := []FeatureVector{
		{Timestamp: base},
		{Timestamp: base},
	}
	if err := ValidateHistory(duplicate); err != ErrDegenerateInput {
		t.Errorf("expected ErrDegenerateInput for duplicates, got %v", err)
	}

	// 역순 타임스탬프 → DegenerateInput
	backwards := []FeatureVector{
		{Timestamp: base.AddDate(0, 0, 1)},
		{Timestamp: base},
	}
	if err := ValidateHistory(backwards); err != ErrDegenerateInput {
		t.Errorf("expected ErrDegenerateInput for backwards order, got %v", err)
	}
}

func TestForecastDistributionValidate(t *testing.T) {
	valid := &ForecastDistribution{
		Entity: "port_busan",
		Horizons: []HorizonForecast{
			{Horizon: 1, Mean: 50, StdDev: 1.0},
			{Horizon: 7, Mean: 51, StdDev: 2.6},
			{Horizon: 30, Mean: 55, StdDev: 5.4},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid distribution rejected: %v", err)
	}

	// 분산이 호라이즌에 따라 줄어들면 불변식 위반
	shrinking := &ForecastDistribution{
		Horizons: []HorizonForecast{
			{Horizon: 1, StdDev: 3.0},
			{Horizon: 7, StdDev: 1.0},
		},
	}
	if err := shrinking.Validate(); err == nil {
		t.Error("shrinking dispersion must be rejected")
	}

	// 호라이즌 비증가
	unordered := &ForecastDistribution{
		Horizons: []HorizonForecast{
			{Horizon: 7, StdDev: 1.0},
			{Horizon: 1, StdDev: 2.0},
		},
	}
	if err := unordered.Validate(); err == nil {
		t.Error("non-increasing horizons must be rejected")
	}
}

func TestRunInputsFingerprint(t *testing.T) {
	snap := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)

	a := RunInputs{
		Entities:     []string{"b", "a", "c"},
		SnapshotTime: snap,
		ModelVersion: "linear_v1",
		PolicyHash:   "deadbeef",
		Seed:         42,
		Iterations:   1000,
	}
	// 엔티티 순서는 핑거프린트에 영향 없어야 함
	b := a
	b.Entities = []string{"c", "a", "b"}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint must be order-independent over entities")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("expected 64 char sha256 hex, got %d", len(a.Fingerprint()))
	}

	// 시드가 다르면 핑거프린트도 달라야 함
	c := a
	c.Seed = 43
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different seed must change fingerprint")
	}
}

func TestValueBoundsClip(t *testing.T) {
	b := ValueBounds{Min: 0, Max: 100}

	cases := []struct {
		in, want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{130, 100},
	}
	for _, c := range cases {
		if got := b.Clip(c.in); got != c.want {
			t.Errorf("Clip(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
