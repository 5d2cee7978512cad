// Package notify owns the playback notification: the desktop notifier
// transport and the presenter that keeps one live notification in sync
// with playback.
package notify

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// NotificationID is the id reported by notifiers that do not allocate ids.
const NotificationID uint32 = 412

// Close reasons from the NotificationClosed signal.
const (
	ClosedExpired   uint32 = 1
	ClosedDismissed uint32 = 2
	ClosedByCall    uint32 = 3
)

// Channel groups notifications that share presentation defaults.
type Channel struct {
	ID         string
	Name       string
	Importance Urgency
}

// Notification contains data for a desktop notification.
type Notification struct {
	Title         string  // Summary text (required)
	Body          string  // Body text (optional, supports basic markup)
	Icon          string  // Path to image file or icon name (optional)
	Timeout       int32   // ms, -1 = server default, 0 = never expire
	ReplacesID    uint32  // 0 = new notification, >0 = replace existing
	Urgency       Urgency // Low, Normal, Critical
	Resident      bool    // stays after actions are invoked (ongoing)
	ChannelID     string  // channel registered with RegisterChannel
	DefaultAction string  // target activated when the notification is clicked
}

// Notifier sends desktop notifications.
type Notifier interface {
	// RegisterChannel declares a channel; registering twice is a no-op.
	RegisterChannel(ch Channel) error
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
	// Dismissed delivers IDs of notifications the user dismissed.
	Dismissed() <-chan uint32
	// Shutdown stops listening for signals.
	Shutdown() error
}

// stubNotifier is used when D-Bus is unavailable.
type stubNotifier struct{}

func (s *stubNotifier) RegisterChannel(_ Channel) error { return nil }

func (s *stubNotifier) Notify(_ Notification) (uint32, error) {
	return NotificationID, nil
}

func (s *stubNotifier) Close(_ uint32) error { return nil }

// Dismissed returns nil: nothing is ever dismissed.
func (s *stubNotifier) Dismissed() <-chan uint32 { return nil }

func (s *stubNotifier) Shutdown() error { return nil }

// NewStub returns a notifier that drops every notification.
func NewStub() Notifier {
	return &stubNotifier{}
}
