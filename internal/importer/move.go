package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// Retry configuration
const (
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// ErrDestinationExists is returned when a file of the same name is already
// in the destination directory.
var ErrDestinationExists = errors.New("destination already exists")

// MoveToDir moves src into dir under its own file name and returns the new
// path. It renames when possible and copies then deletes across devices.
// An existing file at the destination is never overwritten.
func MoveToDir(src, dir string) (string, error) {
	name := filepath.Base(src)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("source path %q has no file name", src)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	dst := filepath.Join(dir, name)
	if _, err := os.Lstat(dst); err == nil {
		return "", fmt.Errorf("%s: %w", dst, ErrDestinationExists)
	}
	if err := moveFile(src, dst); err != nil {
		return "", fmt.Errorf("move %s: %w", src, err)
	}
	return dst, nil
}

// copyFile copies a file from src to dst, which must not exist.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		os.Remove(dst)
		return err
	}

	return dstFile.Close()
}

// moveFile moves a file from src to dst.
// Uses os.Rename if possible, otherwise copies and deletes.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// retryWithBackoff executes an operation with exponential backoff retry.
// Only errors isRetryableError accepts are retried.
func retryWithBackoff(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s: cancelled after %d attempts: %w", operation, attempt, lastErr)
			case <-timer.C:
			}
			backoff = min(backoff*2, maxBackoff)
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return err
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", operation, maxRetries+1, lastErr)
}

// isRetryableError reports whether err looks like a transient lock or
// interruption on the file.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	for _, errno := range []syscall.Errno{syscall.EBUSY, syscall.EAGAIN, syscall.ETXTBSY, syscall.EINTR} {
		if errors.Is(err, errno) {
			return true
		}
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var temp interface{ Temporary() bool }
	return errors.As(err, &temp) && temp.Temporary()
}
