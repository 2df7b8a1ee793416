//go:build windows

// Package stderr provides a no-op implementation for Windows, whose audio
// backends do not write stray output to stderr.
package stderr

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Start is a no-op on Windows.
func Start(logrus.FieldLogger) error {
	return nil
}

// WriteOriginal writes to stderr.
func WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop is a no-op on Windows.
func Stop() {}
