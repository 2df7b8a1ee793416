//go:build !windows

// Package stderr captures output that C libraries (ALSA in particular) write
// straight to file descriptor 2, bypassing os.Stderr, and forwards it to the
// logger so it cannot corrupt the terminal UI.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

var (
	origStderr = -1
	pipeRead   *os.File
	pipeWrite  *os.File
	done       chan struct{}
	started    bool
)

// Start redirects fd 2 into a pipe whose lines are logged at warn level.
// It must run before the audio device is initialized. On error stderr is left
// untouched and the program can continue.
func Start(log logrus.FieldLogger) error {
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(origStderr)
		origStderr = -1
		r.Close()
		w.Close()
		return err
	}

	pipeRead, pipeWrite = r, w
	done = make(chan struct{})
	started = true

	log = log.WithField("component", "stderr")
	go forward(pipeRead, log, done)
	return nil
}

func forward(r *os.File, log logrus.FieldLogger, done chan<- struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			log.Warn(line)
		}
	}
}

// WriteOriginal writes directly to the original stderr, bypassing capture.
// Used for fatal errors that must stay visible.
func WriteOriginal(msg string) {
	if origStderr >= 0 {
		_, _ = syscall.Write(origStderr, []byte(msg))
		return
	}
	_, _ = os.Stderr.WriteString(msg)
}

// Stop restores the original stderr and waits for buffered lines to be
// logged.
func Stop() {
	if !started {
		return
	}

	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = syscall.Close(origStderr)
	origStderr = -1

	pipeWrite.Close()
	<-done
	pipeRead.Close()
	started = false
}
