package system

import (
	"time"

	coresys "github.com/embervale/server/internal/core/system"
	"github.com/embervale/server/internal/net"
)

// OutputSystem drains every session's buffered frames to its writer
// goroutine once per tick. Phase 2 (Output).
type OutputSystem struct {
	store *net.SessionStore
}

func NewOutputSystem(store *net.SessionStore) *OutputSystem {
	return &OutputSystem{store: store}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}
