// Package shutdown handles process exit: signal-driven cancellation and
// fatal aborts that leave a crash dump behind.
package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/wuya51/gmic-buildathon/pkg/logger"
)

// Abort logs the failure, writes a crash dump under dbPath and exits 2.
func Abort(msg string, err error, dbPath string) {
	logger.Error("startup_fatal", "msg", msg, "error", err)
	if path, derr := WriteCrashDump(dbPath, msg, err); derr != nil {
		fmt.Fprintf(os.Stderr, "failed to write crash dump: %v\n", derr)
	} else {
		fmt.Fprintf(os.Stderr, "crash dump written: %s\n", path)
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	logger.Sync()
	os.Exit(2)
}

// WriteCrashDump writes the reason, error and every goroutine stack to
// <dbPath>/crash (./crash when dbPath is empty or in-memory) and returns
// the file path. The file appears atomically.
func WriteCrashDump(dbPath, reason string, err error) (string, error) {
	dir := "./crash"
	if dbPath != "" && dbPath != ":memory:" {
		dir = filepath.Join(dbPath, "crash")
	}
	if e := os.MkdirAll(dir, 0o700); e != nil {
		return "", fmt.Errorf("create crash dir: %w", e)
	}

	f, e := os.CreateTemp(dir, ".crash-*.tmp")
	if e != nil {
		return "", fmt.Errorf("create temp crash file: %w", e)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	fmt.Fprintf(f, "time: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(f, "reason: %s\n", reason)
	fmt.Fprintf(f, "error: %v\n", err)
	fmt.Fprintf(f, "pid: %d\n", os.Getpid())
	fmt.Fprintf(f, "\n--- goroutine stacks ---\n")
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	_, _ = f.Write(buf[:n])
	_ = f.Sync()
	if e := f.Close(); e != nil {
		return "", e
	}

	path := filepath.Join(dir, fmt.Sprintf("crash-%d.log", time.Now().UnixNano()))
	if e := os.Rename(tmp, path); e != nil {
		return "", fmt.Errorf("move crash dump into place: %w", e)
	}
	return path, nil
}

// SetupSignalHandler returns a context canceled on SIGINT or SIGTERM.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigc:
			logger.Info("signal_received", "signal", s.String(), "msg", "shutdown requested")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigc)
	}()
	return ctx, cancel
}
