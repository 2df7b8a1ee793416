//go:build linux

// Package mpris exposes the engine on the session bus as an MPRIS media
// player.
package mpris

import (
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/sirupsen/logrus"
)

// Adapter connects a Player to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter. Listen failures, such as a
// missing session bus, are logged and leave the player usable.
func New(player Player, log logrus.FieldLogger) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("tamaureus", &rootAdapter{}, &playerAdapter{player: player}),
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			log.WithError(err).WithField("component", "mpris").Warn("mpris unavailable")
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}
