package slooze

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-logger/glog"
)

// Logger is the logging contract used by the service. It matches go-logger's
// method set so a glog.Logger can be plugged in through NewGlogLogger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithFields(fields map[string]any) Logger
	WithContext(ctx context.Context) Logger
}

// LogLevel orders log severities.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLogLevel maps "debug", "info", "warn" and "error" to a level; anything else is info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "INFO"
}

// BasicLogger writes one line per entry to Writer.
type BasicLogger struct {
	Writer io.Writer
	Level  LogLevel
	fields map[string]any
	mu     *sync.Mutex
}

// NewBasicLogger constructs a BasicLogger writing to w (stdout when nil).
func NewBasicLogger(w io.Writer, level LogLevel) *BasicLogger {
	if w == nil {
		w = os.Stdout
	}
	return &BasicLogger{Writer: w, Level: level, mu: &sync.Mutex{}}
}

// WithFields returns a logger that adds fields to every entry.
func (l *BasicLogger) WithFields(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &BasicLogger{Writer: l.Writer, Level: l.Level, fields: merged, mu: l.mu}
}

// WithContext adds the request id from ctx, if any.
func (l *BasicLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	if id := GetRequestID(ctx); id != "" {
		return l.WithFields(map[string]any{"request_id": id})
	}
	return l
}

func (l *BasicLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *BasicLogger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args...) }
func (l *BasicLogger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args...) }
func (l *BasicLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

func (l *BasicLogger) log(level LogLevel, msg string, args ...any) {
	if l == nil || level < l.Level {
		return
	}
	out := l.Writer
	if out == nil {
		out = os.Stdout
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)

	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
	}
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	b.WriteByte('\n')

	if l.mu != nil {
		l.mu.Lock()
		defer l.mu.Unlock()
	}
	_, _ = io.WriteString(out, b.String())
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any) {}
func (NopLogger) Warn(string, ...any) {}
func (NopLogger) Error(string, ...any) {}
func (n NopLogger) WithFields(map[string]any) Logger { return n }
func (n NopLogger) WithContext(context.Context) Logger { return n }

// glogLogger adapts a go-logger logger.
type glogLogger struct {
	logger glog.Logger
}

// NewGlogLogger wraps a go-logger logger. Fields are forwarded when the logger
// implements glog.FieldsLogger.
func NewGlogLogger(logger glog.Logger) Logger {
	if logger == nil {
		return NopLogger{}
	}
	return &glogLogger{logger: logger}
}

func (g *glogLogger) Debug(msg string, args ...any) { g.logger.Debug(msg, args...) }
func (g *glogLogger) Info(msg string, args ...any) { g.logger.Info(msg, args...) }
func (g *glogLogger) Warn(msg string, args ...any) { g.logger.Warn(msg, args...) }
func (g *glogLogger) Error(msg string, args ...any) { g.logger.Error(msg, args...) }

func (g *glogLogger) WithFields(fields map[string]any) Logger {
	if fl, ok := g.logger.(glog.FieldsLogger); ok && len(fields) > 0 {
		return &glogLogger{logger: fl.WithFields(fields)}
	}
	return g
}

// WithContext binds ctx and, like BasicLogger, adds its request id.
func (g *glogLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return g
	}
	out := &glogLogger{logger: g.logger.WithContext(ctx)}
	if id := GetRequestID(ctx); id != "" {
		return out.WithFields(map[string]any{"request_id": id})
	}
	return out
}

// NewServerLogger builds the go-logger backend used by the server binary. Level
// accepts the same names as ParseLogLevel; Format selects json, console or pretty
// output. w defaults to stdout.
func NewServerLogger(cfg LogConfig, w io.Writer) Logger {
	loggerType := glog.LoggerTypeJSON
	switch cfg.Format {
	case "console":
		loggerType = glog.LoggerTypeConsole
	case "pretty":
		loggerType = glog.LoggerTypePretty
	}

	return NewGlogLogger(glog.NewLogger(
		glog.WithName("slooze"),
		glog.WithLevel(ParseLogLevel(cfg.Level).String()),
		glog.WithLoggerType(loggerType),
		glog.WithWriter(w),
	))
}

var (
	_ Logger = (*BasicLogger)(nil)
	_ Logger = NopLogger{}
	_ Logger = (*glogLogger)(nil)
)
