package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"

	appName = "DevInfo"
	appIcon = "computer"
)

// DBusNotifier posts through the freedesktop notification service.
// Server ids of ongoing notifications are remembered per Notification.ID so
// reposts replace them and Withdraw can close them.
type DBusNotifier struct {
	conn *dbus.Conn
	obj  dbus.BusObject

	mu  sync.Mutex
	ids map[string]uint32
}

// NewDBusNotifier opens a private session bus connection.
func NewDBusNotifier() (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	return newDBusNotifier(conn, conn.Object(notificationsName, notificationsPath)), nil
}

func newDBusNotifier(conn *dbus.Conn, obj dbus.BusObject) *DBusNotifier {
	return &DBusNotifier{conn: conn, obj: obj, ids: make(map[string]uint32)}
}

func (d *DBusNotifier) Notify(ctx context.Context, n Notification) error {
	n = n.withID()

	d.mu.Lock()
	replaces := d.ids[n.ID]
	d.mu.Unlock()

	hints := map[string]dbus.Variant{
		"category": dbus.MakeVariant(string(n.Channel)),
	}
	if n.hasProgress() {
		hints["value"] = dbus.MakeVariant(int32(n.Progress))
	}
	timeout := int32(-1)
	if n.Ongoing {
		hints["resident"] = dbus.MakeVariant(true)
		hints["urgency"] = dbus.MakeVariant(byte(0))
		timeout = 0
	}

	call := d.obj.CallWithContext(ctx, notificationsIface+".Notify", 0,
		appName,
		replaces,
		appIcon,
		n.Title,
		n.Body,
		[]string{},
		hints,
		timeout,
	)
	if call.Err != nil {
		return fmt.Errorf("dbus notify: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("dbus notify reply: %w", err)
	}

	d.mu.Lock()
	if n.Ongoing {
		d.ids[n.ID] = id
	} else {
		delete(d.ids, n.ID)
	}
	d.mu.Unlock()
	return nil
}

// Withdraw closes the notification if this notifier posted it.
func (d *DBusNotifier) Withdraw(ctx context.Context, id string) error {
	d.mu.Lock()
	serverID, ok := d.ids[id]
	delete(d.ids, id)
	d.mu.Unlock()
	if !ok {
		return nil
	}

	call := d.obj.CallWithContext(ctx, notificationsIface+".CloseNotification", 0, serverID)
	if call.Err != nil {
		return fmt.Errorf("dbus close notification: %w", call.Err)
	}
	return nil
}

func (d *DBusNotifier) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}
