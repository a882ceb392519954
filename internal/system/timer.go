package system

import (
	"time"

	coresys "github.com/embervale/server/internal/core/system"
	"github.com/embervale/server/internal/core/sched"
)

// TimerSystem pumps the world scheduler: every due task (NPC movement,
// resource respawns, item despawns, shop maintenance, spawn scans) fires
// here, on the game loop. Phase 1 (Update).
type TimerSystem struct {
	sched *sched.Scheduler
	now   func() time.Time
}

func NewTimerSystem(sc *sched.Scheduler, now func() time.Time) *TimerSystem {
	return &TimerSystem{sched: sc, now: now}
}

func (s *TimerSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *TimerSystem) Update(_ time.Duration) {
	s.sched.Run(s.now())
}
