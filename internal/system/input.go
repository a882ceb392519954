package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/embervale/server/internal/core/system"
	"github.com/embervale/server/internal/net"
	"github.com/embervale/server/internal/net/message"
	"github.com/embervale/server/internal/world"
)

// DisconnectFunc runs after a player leaves the world registry, for
// profile persistence. p is nil when the session never joined.
type DisconnectFunc func(sess *net.Session, p *world.PlayerInfo)

// InputSystem drains message queues from all sessions and dispatches
// them through the registry. Phase 0 (Input).
type InputSystem struct {
	netServer    *net.Server
	registry     *message.Registry
	store        *net.SessionStore
	worldState   *world.State
	maxPerTick   int
	onDisconnect DisconnectFunc
	log          *zap.Logger
}

func NewInputSystem(
	netServer *net.Server,
	registry *message.Registry,
	store *net.SessionStore,
	worldState *world.State,
	maxPerTick int,
	onDisconnect DisconnectFunc,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		netServer:    netServer,
		registry:     registry,
		store:        store,
		worldState:   worldState,
		maxPerTick:   maxPerTick,
		onDisconnect: onDisconnect,
		log:          log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions reported by the writer side
	for {
		select {
		case id := <-s.netServer.DeadSessions():
			s.store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			s.handleDisconnect(sess)
			s.netServer.NotifyDead(id)
			s.store.Remove(id)
			continue
		}

		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
					s.log.Debug("dispatch error",
						zap.Uint64("session", sess.ID),
						zap.Error(err),
					)
				}
			default:
				goto nextSession
			}
		}
	nextSession:
	}

	// Early flush: replies produced this phase reach the OutQueue now,
	// so writeLoops can start sending while the update phase runs. The
	// output phase flushes whatever the timers produce.
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

// handleDisconnect clears the player's world presence: action slot and
// fan-out membership go immediately; committed world mutations stay.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	p := s.worldState.RemovePlayer(sess.ID)
	if p != nil {
		s.log.Info("player left",
			zap.String("name", p.Name),
			zap.Uint64("session", sess.ID),
		)
	}
	if s.onDisconnect != nil {
		s.onDisconnect(sess, p)
	}
}

// SessionCount returns the current number of active sessions.
func (s *InputSystem) SessionCount() int {
	return s.store.Count()
}
