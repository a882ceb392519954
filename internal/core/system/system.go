package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain session queues, dispatch requests
	PhaseUpdate               // 1: pump the scheduler, run due world timers
	PhaseOutput               // 2: flush session output buffers
	PhasePersist              // 3: periodic dirty profile saves
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
