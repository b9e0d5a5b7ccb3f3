package runs

import (
	"golang.org/x/sync/singleflight"

	"github.com/joonho/argus/internal/contracts"
)

// Coordinator 프로세스 내 런 중복 실행 방지
//
// 동일 핑거프린트의 동시 호출은 하나의 계산만 수행하고 결과를 공유한다.
// 프로세스 간 중복은 RunStore.Begin의 핑거프린트 유일성이 막는다.
// 두 계층이 합쳐져 "핑거프린트당 동시 계산 최대 1개"가 성립.
type Coordinator struct {
	group singleflight.Group
}

// NewCoordinator creates a new run coordinator
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Do 핑거프린트 키로 fn을 최대 한 번 실행
// shared=true는 이 호출이 다른 호출의 진행 중인 결과에 합류했음을 뜻함
func (c *Coordinator) Do(
	fingerprint string,
	fn func() (*contracts.OpportunityList, error),
) (list *contracts.OpportunityList, shared bool, err error) {
	v, err, shared := c.group.Do(fingerprint, func() (interface{}, error) {
		return fn()
	})
	if v != nil {
		list = v.(*contracts.OpportunityList)
	}
	return list, shared, err
}
