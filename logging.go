// logging.go - structured logging for the kernel.
//
// Package-level configuration for structured logging, with a catrate-backed
// default implementation; see SetLogger and DefaultLogger.

package pintos

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/logiface/stumpy"
)

// Level is a kernel log severity, independent of the backing logging
// library's own level type.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Fields is a set of structured log fields attached to an event.
type Fields map[string]any

// Logger is the pluggable structured-logging sink the kernel writes thread
// lifecycle, donation and fault events to. Swap the process-wide default via
// SetLogger, or install one per-Kernel via WithLogger.
type Logger interface {
	Log(level Level, category string, msg string, fields Fields)
	IsEnabled(level Level) bool
}

var globalLogger atomic.Pointer[Logger]

func init() {
	var l Logger = NewDefaultLogger(os.Stderr, LevelInfo)
	globalLogger.Store(&l)
}

// SetLogger installs the process-wide default Logger.
func SetLogger(l Logger) {
	if l == nil {
		l = NewDefaultLogger(os.Stderr, LevelInfo)
	}
	globalLogger.Store(&l)
}

func getGlobalLogger() Logger {
	return *globalLogger.Load()
}

// Log writes to the process-wide default Logger, for packages (such as
// syscall) that sit above Kernel and have no per-instance logger of their
// own to route through.
func Log(level Level, category, msg string, fields Fields) {
	l := getGlobalLogger()
	if l == nil || !l.IsEnabled(level) {
		return
	}
	l.Log(level, category, msg, fields)
}

// DefaultLogger is a Logger backed by github.com/joeycumines/logiface with
// the stumpy JSON backend, and a github.com/joeycumines/go-catrate limiter
// that drops repeated events within the same category once a per-category
// burst budget is exhausted, so a storm of donation or fault events can
// never make structured logging itself an unbounded-cost side channel.
type DefaultLogger struct {
	level   atomic.Int32
	logger  *logiface.Logger[*stumpy.Event]
	limiter *catrate.Limiter
	mu      sync.Mutex
}

// NewDefaultLogger creates a DefaultLogger writing stumpy-encoded JSON lines
// to w, at the given minimum level. Each log-site category is capped at 20
// events per second and 200 per minute.
func NewDefaultLogger(w *os.File, level Level) *DefaultLogger {
	d := &DefaultLogger{
		logger: logiface.New[*stumpy.Event](
			stumpy.WithStumpy(stumpy.WithWriter(w)),
			logiface.WithLevel[*stumpy.Event](toLogifaceLevel(level)),
		),
		limiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 20,
			time.Minute: 200,
		}),
	}
	d.level.Store(int32(level))
	return d
}

func toLogifaceLevel(l Level) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// SetLevel adjusts the minimum level logged at runtime.
func (d *DefaultLogger) SetLevel(level Level) {
	d.level.Store(int32(level))
}

func (d *DefaultLogger) IsEnabled(level Level) bool {
	return int32(level) >= d.level.Load()
}

// Log writes a structured event, unless the category has exceeded its
// catrate burst budget, in which case the event is silently dropped.
func (d *DefaultLogger) Log(level Level, category string, msg string, fields Fields) {
	if !d.IsEnabled(level) {
		return
	}
	if _, ok := d.limiter.Allow(category); !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.logger.Build(toLogifaceLevel(level))
	if b == nil {
		return
	}
	b = b.Str("category", category)
	for k, v := range fields {
		b = b.Any(k, v)
	}
	b.Log(msg)
}

// logf is the kernel's internal call site; it goes through the Kernel's own
// logger if one was installed via WithLogger, else the process-wide default.
func (k *Kernel) logf(level Level, category, msg string, fields Fields) {
	l := k.opts.logger
	if l == nil {
		l = getGlobalLogger()
	}
	if l == nil || !l.IsEnabled(level) {
		return
	}
	l.Log(level, category, msg, fields)
}
