package auth

// EventKind enumerates backend auth-change notifications.
type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
	EventUserUpdated    EventKind = "user_updated"
)

// Known reports whether k is one of the handled event kinds.
func (k EventKind) Known() bool {
	switch k {
	case EventSignedIn, EventSignedOut, EventTokenRefreshed, EventUserUpdated:
		return true
	default:
		return false
	}
}

// Event is one auth-change notification. Session is nil for signed_out.
type Event struct {
	Kind    EventKind `json:"kind"`
	Session *Session  `json:"session,omitempty"`
}
