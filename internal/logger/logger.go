package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Fields map[string]any

type Level int

const (
	DEBUG Level = iota
	INFO
	WARNING
	ERROR
	CRITICAL
)

var levelNames = map[Level]string{
	DEBUG:    "DEBUG",
	INFO:     "INFO",
	WARNING:  "WARNING",
	ERROR:    "ERROR",
	CRITICAL: "CRITICAL",
}

// Logger writes leveled lines with optional key=value fields. When a log
// directory is configured output is mirrored to a rotated file.
type Logger struct {
	level   Level
	out     *log.Logger
	service string
}

// New builds a logger. An empty logDir logs to stdout only.
func New(logDir, service, level string) (*Logger, error) {
	var w io.Writer = os.Stdout
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "app.log"),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}
	return NewWithWriter(w, service, level), nil
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(w io.Writer, service, level string) *Logger {
	return &Logger{
		level:   ParseLevel(level),
		out:     log.New(w, "", log.LstdFlags),
		service: service,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard, "", "CRITICAL")
}

func (l *Logger) ShouldLog(level Level) bool {
	return level >= l.level
}

func (l *Logger) write(level Level, ctx context.Context, msg string, fields Fields) {
	if !l.ShouldLog(level) {
		return
	}

	prefix := "[" + levelNames[level] + "]"
	if l.service != "" {
		prefix += " [" + l.service + "]"
	}

	var parts []string
	if ctx != nil {
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			parts = append(parts, "request_id="+reqID)
		}
	}
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
		}
	}
	if len(parts) > 0 {
		prefix += " [" + strings.Join(parts, " ") + "]"
	}

	l.out.Print(prefix + " " + msg)
}

func (l *Logger) Debug(msg string) { l.write(DEBUG, nil, msg, nil) }
func (l *Logger) Info(msg string)  { l.write(INFO, nil, msg, nil) }
func (l *Logger) Warn(msg string)  { l.write(WARNING, nil, msg, nil) }
func (l *Logger) Error(msg string) { l.write(ERROR, nil, msg, nil) }

func (l *Logger) Debugf(format string, args ...any) {
	l.write(DEBUG, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Infof(format string, args ...any) {
	l.write(INFO, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.write(WARNING, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.write(ERROR, nil, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.write(CRITICAL, nil, fmt.Sprintf(format, args...), nil)
	os.Exit(1)
}

// WithFields binds fields and the request context to an Entry.
func (l *Logger) WithFields(ctx context.Context, fields Fields) *Entry {
	return &Entry{logger: l, ctx: ctx, fields: fields}
}

type Entry struct {
	logger *Logger
	ctx    context.Context
	fields Fields
}

func (e *Entry) Debug(msg string) { e.logger.write(DEBUG, e.ctx, msg, e.fields) }
func (e *Entry) Info(msg string)  { e.logger.write(INFO, e.ctx, msg, e.fields) }
func (e *Entry) Warn(msg string)  { e.logger.write(WARNING, e.ctx, msg, e.fields) }
func (e *Entry) Error(msg string) { e.logger.write(ERROR, e.ctx, msg, e.fields) }

func (e *Entry) Warnf(format string, args ...any) {
	e.logger.write(WARNING, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Errorf(format string, args ...any) {
	e.logger.write(ERROR, e.ctx, fmt.Sprintf(format, args...), e.fields)
}

func ParseLevel(value string) Level {
	switch strings.TrimSpace(strings.ToUpper(value)) {
	case "DEBUG":
		return DEBUG
	case "WARNING", "WARN":
		return WARNING
	case "ERROR":
		return ERROR
	case "CRITICAL":
		return CRITICAL
	default:
		return INFO
	}
}
