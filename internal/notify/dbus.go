//go:build linux

package notify

import (
	"path/filepath"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = notifyDest + ".Notify"
	closeMethod  = notifyDest + ".CloseNotification"

	appName     = "Tamaureus"
	desktopID   = "tamaureus"
	defaultIcon = "audio-x-generic"
)

// caller is the part of dbus.BusObject the notifier calls.
type caller interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
}

type dbusNotifier struct {
	obj caller
}

// New connects to the session bus. Without one it returns a notifier that
// drops everything, so callers never have to check.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nopNotifier{}, nil //nolint:nilerr // no session bus
	}
	return &dbusNotifier{obj: conn.Object(notifyDest, dbus.ObjectPath(notifyPath))}, nil
}

func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	icon, hints := iconHints(notif)
	call := n.obj.Call(notifyMethod, 0,
		appName,
		notif.ReplacesID,
		icon,
		notif.Title,
		notif.Body,
		[]string{},
		hints,
		notif.Timeout,
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

func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(closeMethod, 0, id).Err
}

// iconHints splits the icon between the app_icon argument and the hints.
// Cover art files go in image-path so servers show them as the picture
// rather than the application icon.
func iconHints(notif Notification) (string, map[string]dbus.Variant) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant(desktopID),
	}
	switch {
	case notif.Icon == "":
		return defaultIcon, hints
	case filepath.IsAbs(notif.Icon):
		hints["image-path"] = dbus.MakeVariant("file://" + notif.Icon)
		return defaultIcon, hints
	default:
		return notif.Icon, hints
	}
}
