package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/embervale/server/internal/core/system"
	"github.com/embervale/server/internal/world"
)

// SaveFunc persists one player profile.
type SaveFunc func(ctx context.Context, p *world.PlayerInfo) error

// PersistenceSystem periodically saves dirty player profiles.
// Fire-and-forget from the core's view: a failed save logs and retries
// on the next interval. Phase 3 (Persist).
type PersistenceSystem struct {
	world    *world.State
	save     SaveFunc
	every    time.Duration
	now      func() time.Time
	lastSave time.Time
	log      *zap.Logger
}

func NewPersistenceSystem(ws *world.State, save SaveFunc, every time.Duration, now func() time.Time, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		world: ws,
		save:  save,
		every: every,
		now:   now,
		log:   log,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.save == nil {
		return
	}
	now := s.now()
	if now.Sub(s.lastSave) < s.every {
		return
	}
	s.lastSave = now

	s.world.AllPlayers(func(p *world.PlayerInfo) {
		if !p.Dirty {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.save(ctx, p); err != nil {
			s.log.Error("profile save failed", zap.String("name", p.Name), zap.Error(err))
			return
		}
		p.Dirty = false
	})
}

// SaveAll saves every connected player regardless of dirtiness.
// Used at shutdown.
func (s *PersistenceSystem) SaveAll() {
	if s.save == nil {
		return
	}
	s.world.AllPlayers(func(p *world.PlayerInfo) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.save(ctx, p); err != nil {
			s.log.Error("shutdown save failed", zap.String("name", p.Name), zap.Error(err))
		}
	})
}
