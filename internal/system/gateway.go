package system

// Gateway is the managers' outbound surface: best-effort fan-out of
// tagged messages to connected sessions. Implemented over the session
// store in handler, and by a recorder in tests.
type Gateway interface {
	BroadcastAll(msgType string, v any)
	BroadcastExcept(sessionID uint64, msgType string, v any)
	SendTo(sessionID uint64, msgType string, v any)
}
