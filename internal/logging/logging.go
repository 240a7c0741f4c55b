// Package logging provides the append-only log sink the editor reports
// through, backed by Go's slog package. Every operation, successful or
// rejected, produces exactly one sink line; the sink is the user's
// audit trail, not a debug channel.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Sink receives one line per editor operation.
type Sink interface {
	// Infof records a successful operation.
	Infof(format string, args ...interface{})

	// Errorf records a rejected or failed operation.
	Errorf(format string, args ...interface{})
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatText outputs human-readable text lines.
	FormatText Format = iota
	// FormatJSON outputs one JSON object per line.
	FormatJSON
)

// ParseLevel maps a config string onto a Level. Unknown strings map to
// LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat maps a config string onto a Format. Unknown strings map
// to FormatText.
func ParseFormat(s string) Format {
	if s == "json" {
		return FormatJSON
	}
	return FormatText
}

// SlogSink is a Sink writing through a slog.Logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink builds a sink writing to w with the given level and
// format.
func NewSlogSink(w io.Writer, level Level, format Format) *SlogSink {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &SlogSink{logger: slog.New(handler)}
}

// NewDefaultSink builds a text sink on stderr at info level.
func NewDefaultSink() *SlogSink {
	return NewSlogSink(os.Stderr, LevelInfo, FormatText)
}

// Infof records a successful operation.
func (s *SlogSink) Infof(format string, args ...interface{}) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

// Errorf records a rejected or failed operation.
func (s *SlogSink) Errorf(format string, args ...interface{}) {
	s.logger.Error(fmt.Sprintf(format, args...))
}

// MemorySink records lines in memory for test assertions.
type MemorySink struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Infof records a successful operation.
func (m *MemorySink) Infof(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

// Errorf records a rejected or failed operation.
func (m *MemorySink) Errorf(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprintf(format, args...))
}

// Infos returns a copy of the recorded success lines.
func (m *MemorySink) Infos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.infos...)
}

// Errors returns a copy of the recorded error lines.
func (m *MemorySink) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errors...)
}

// Len returns the total number of recorded lines.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.infos) + len(m.errors)
}
