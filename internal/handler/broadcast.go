package handler

import (
	"go.uber.org/zap"

	"github.com/embervale/server/internal/net"
	"github.com/embervale/server/internal/net/message"
)

// SessionGateway fans tagged messages out to connected sessions.
// Best-effort: a closed session is skipped, a slow one is dropped by
// FlushOutput backpressure. Game loop goroutine only.
type SessionGateway struct {
	store *net.SessionStore
	log   *zap.Logger
}

func NewSessionGateway(store *net.SessionStore, log *zap.Logger) *SessionGateway {
	return &SessionGateway{store: store, log: log}
}

// BroadcastAll sends to every in-world session, marshalling once.
func (g *SessionGateway) BroadcastAll(msgType string, v any) {
	g.BroadcastExcept(0, msgType, v)
}

// BroadcastExcept sends to every in-world session but one. Session id 0
// never matches, so it doubles as broadcast-to-all.
func (g *SessionGateway) BroadcastExcept(sessionID uint64, msgType string, v any) {
	data, err := message.Marshal(msgType, v)
	if err != nil {
		g.log.Error("marshal broadcast", zap.String("msg", msgType), zap.Error(err))
		return
	}
	g.store.ForEach(func(sess *net.Session) {
		if sess.ID == sessionID || sess.IsClosed() || sess.State() != message.StateInWorld {
			return
		}
		sess.Send(data)
	})
}

// SendTo sends to one session, if it is still around.
func (g *SessionGateway) SendTo(sessionID uint64, msgType string, v any) {
	sess := g.store.Get(sessionID)
	if sess == nil || sess.IsClosed() {
		return
	}
	sess.SendMsg(msgType, v)
}
