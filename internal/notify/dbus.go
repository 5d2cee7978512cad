//go:build linux

package notify

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"

	signalClosed = dbusNotifyInterface + ".NotificationClosed"
)

// dbusNotifier sends notifications via D-Bus.
type dbusNotifier struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	appName string

	mu       sync.Mutex
	channels map[string]Channel

	signals   chan *dbus.Signal
	dismissed chan uint32
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a Notifier that sends desktop notifications via D-Bus.
// Returns a no-op notifier if D-Bus is unavailable.
func New(appName string) (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		// D-Bus not available, return no-op notifier (intentional graceful degradation)
		return &stubNotifier{}, nil //nolint:nilerr // graceful fallback when D-Bus unavailable
	}

	n := &dbusNotifier{
		conn:      conn,
		obj:       conn.Object(dbusNotifyDest, dbusNotifyPath),
		appName:   appName,
		channels:  make(map[string]Channel),
		signals:   make(chan *dbus.Signal, 16),
		dismissed: make(chan uint32, 8),
		done:      make(chan struct{}),
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbusNotifyPath),
		dbus.WithMatchInterface(dbusNotifyInterface),
		dbus.WithMatchMember("NotificationClosed"),
	); err != nil {
		return nil, err
	}
	conn.Signal(n.signals)
	go n.listen()

	return n, nil
}

// RegisterChannel records channel defaults. Freedesktop servers have no
// channel concept; the channel maps to a category hint and a base urgency.
func (n *dbusNotifier) RegisterChannel(ch Channel) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.channels[ch.ID]; !ok {
		n.channels[ch.ID] = ch
	}
	return nil
}

// Notify sends a notification via D-Bus.
func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	urgency := notif.Urgency
	n.mu.Lock()
	ch, hasChannel := n.channels[notif.ChannelID]
	n.mu.Unlock()
	if hasChannel && ch.Importance > urgency {
		urgency = ch.Importance
	}

	// Build hints map
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(urgency)),
		"desktop-entry": dbus.MakeVariant(n.appName),
		"resident":      dbus.MakeVariant(notif.Resident),
	}
	if hasChannel {
		hints["category"] = dbus.MakeVariant("x-" + n.appName + "." + ch.ID)
	}

	actions := []string{}
	if notif.DefaultAction != "" {
		actions = append(actions, "default", notif.DefaultAction)
	}

	// D-Bus Notify method signature:
	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := n.obj.Call(
		dbusNotifyInterface+".Notify",
		0,                // flags
		n.appName,        // app_name
		notif.ReplacesID, // replaces_id
		notif.Icon,       // app_icon (path or icon name)
		notif.Title,      // summary
		notif.Body,       // body
		actions,          // actions
		hints,            // hints
		notif.Timeout,    // expire_timeout
	)

	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// Close closes a notification by ID.
func (n *dbusNotifier) Close(id uint32) error {
	call := n.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id)
	return call.Err
}

func (n *dbusNotifier) Dismissed() <-chan uint32 {
	return n.dismissed
}

// listen forwards user dismissals until Shutdown.
func (n *dbusNotifier) listen() {
	defer close(n.dismissed)
	for {
		select {
		case <-n.done:
			return
		case sig, ok := <-n.signals:
			if !ok {
				return
			}
			if id, dismissed := parseClosed(sig); dismissed {
				select {
				case n.dismissed <- id:
				default:
				}
			}
		}
	}
}

// parseClosed extracts the id of a NotificationClosed(id, reason) signal
// whose reason is a user dismissal.
func parseClosed(sig *dbus.Signal) (uint32, bool) {
	if sig == nil || sig.Name != signalClosed || len(sig.Body) < 2 {
		return 0, false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return 0, false
	}
	reason, ok := sig.Body[1].(uint32)
	if !ok || reason != ClosedDismissed {
		return 0, false
	}
	return id, true
}

// Shutdown removes the signal subscription. The shared session bus
// connection stays open for other users.
func (n *dbusNotifier) Shutdown() error {
	var err error
	n.stopOnce.Do(func() {
		n.conn.RemoveSignal(n.signals)
		err = n.conn.RemoveMatchSignal(
			dbus.WithMatchObjectPath(dbusNotifyPath),
			dbus.WithMatchInterface(dbusNotifyInterface),
			dbus.WithMatchMember("NotificationClosed"),
		)
		close(n.done)
	})
	return err
}
