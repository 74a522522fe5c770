package webgpunative

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

var (
	loggerHooksMu sync.RWMutex
	loggerHooks   []func(*slog.Logger)
)

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for webgpunative and its backends.
// By default, webgpunative produces no log output.
//
// Pass nil to restore the silent default.
//
// Log levels used by webgpunative:
//   - [slog.LevelDebug]: resource creation, footprints, staging uploads,
//     drained backend debug messages
//   - [slog.LevelInfo]: adapter selected
//   - [slog.LevelWarn]: software adapter fallback
//
// Example:
//
//	webgpunative.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	loggerHooksMu.RLock()
	hooks := loggerHooks
	loggerHooksMu.RUnlock()
	for _, hook := range hooks {
		hook(l)
	}
}

// Logger returns the current logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// onSetLogger registers a function that receives every logger passed to
// SetLogger. Hooks run in registration order.
func onSetLogger(hook func(*slog.Logger)) {
	loggerHooksMu.Lock()
	loggerHooks = append(loggerHooks, hook)
	loggerHooksMu.Unlock()
}
