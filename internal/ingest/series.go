package ingest

import "time"

// Observation 원시 관측 하나
// 결측은 Missing 플래그로 보존. 수집 스테이지는 값을 보정하지 않음
type Observation struct {
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
	Missing bool      `json:"missing,omitempty"`
}

// Series 수집된 원시 시계열 (hand-off 버퍼의 raw:* 키 페이로드)
type Series struct {
	Name         string        `json:"name"`
	Source       string        `json:"source"` // fred | satellite | jobs
	Observations []Observation `json:"observations"`
	CollectedAt  time.Time     `json:"collected_at"`
}

// Latest 마지막 결측 아닌 관측
func (s *Series) Latest() (Observation, bool) {
	for i := len(s.Observations) - 1; i >= 0; i-- {
		if !s.Observations[i].Missing {
			return s.Observations[i], true
		}
	}
	return Observation{}, false
}
