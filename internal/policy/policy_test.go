package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joonho/argus/internal/contracts"
)

func TestDefaultPolicyValidates(t *testing.T) {
	p := Default()
	require.NoError(t, Validate(p), "default policy must validate")

	assert.Equal(t, 1000, p.Engine.Iterations)
	assert.Equal(t, 0.15, p.Engine.MinimumReturnThreshold)
}

func TestHashDeterministic(t *testing.T) {
	p := Default()

	h1, err := Hash(p)
	require.NoError(t, err)
	h2, _ := Hash(p)

	assert.Equal(t, h1, h2, "hash must be deterministic")
	assert.Len(t, h1, 64)

	// 파라미터 변경 → 해시 변경
	p.Engine.Seed = 43
	h3, _ := Hash(p)
	assert.NotEqual(t, h1, h3, "seed change must change hash")
}

func TestValidateRejectsBadHorizons(t *testing.T) {
	cases := [][]int{
		{},        // 비어 있음
		{0, 7},    // 0은 미래 오프셋 아님
		{7, 1},    // 역순
		{1, 1, 7}, // 중복
	}

	for _, horizons := range cases {
		p := Default()
		p.Engine.Horizons = horizons
		assert.Error(t, Validate(p), "horizons %v must be rejected", horizons)
	}
}

func TestValidateCorrelationUnknownEntity(t *testing.T) {
	p := Default()
	p.Engine.Correlation = &contracts.CorrelationPolicy{
		Groups: map[string][]string{
			"asia_ports": {"port_busan", "port_nowhere"}, // 없는 엔티티
		},
		Weight: 0.3,
	}

	assert.Error(t, Validate(p), "correlation group with unknown entity must be rejected")
}

func TestValidateRejectsBadModel(t *testing.T) {
	p := Default()
	p.Engine.Model = "lstm"
	assert.Error(t, Validate(p), "unknown model must be rejected")
}

func TestValidateDuplicateEntities(t *testing.T) {
	p := Default()
	p.Entities = append(p.Entities, Entity{Name: "port_busan", Type: "port"})
	assert.Error(t, Validate(p), "duplicate entity must be rejected")
}
