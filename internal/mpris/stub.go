//go:build !linux

// Package mpris exposes the engine on the session bus as an MPRIS media
// player. It is a no-op outside Linux.
package mpris

import "github.com/sirupsen/logrus"

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ Player, _ logrus.FieldLogger) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
