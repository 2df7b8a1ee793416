// Package notify posts desktop notifications over D-Bus for track changes
// and playback errors.
package notify

// Urgency is the freedesktop urgency hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one desktop notification. Icon is an icon name or an
// absolute image path. Timeout is in milliseconds, -1 leaves it to the
// server. A non-zero ReplacesID updates that notification in place.
type Notification struct {
	Title      string
	Body       string
	Icon       string
	Timeout    int32
	ReplacesID uint32
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns the server id, or 0 when notifications
	// are unavailable.
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// nopNotifier stands in when no notification server is reachable.
type nopNotifier struct{}

func (nopNotifier) Notify(Notification) (uint32, error) { return 0, nil }
func (nopNotifier) Close(uint32) error                  { return nil }
