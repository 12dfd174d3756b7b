package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

type Logger struct {
	service string
	level   Level
}

func New(service string) *Logger { return &Logger{service: service, level: LevelInfo} }

func NewWithLevel(service string, level Level) *Logger {
	return &Logger{service: service, level: level}
}

// WithService returns a logger for a sub-component sharing the same level.
func (l *Logger) WithService(service string) *Logger {
	return &Logger{service: service, level: l.level}
}

func (l *Logger) log(level Level, name, action string, fields map[string]any, err error) {
	if level < l.level {
		return
	}
	entry := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     name,
		"service":   l.service,
		"action":    action,
		"message":   action,
		"hostname":  hostname(),
	}
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = map[string]any{"msg": err.Error(), "type": fmt.Sprintf("%T", err)}
	}
	_ = json.NewEncoder(os.Stdout).Encode(entry)
}

func (l *Logger) Debug(action string, fields map[string]any) {
	l.log(LevelDebug, "DEBUG", action, fields, nil)
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.log(LevelInfo, "INFO", action, fields, nil)
}

func (l *Logger) Warn(action string, fields map[string]any) {
	l.log(LevelWarn, "WARN", action, fields, nil)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log(LevelError, "ERROR", action, fields, err)
}

func hostname() string { h, _ := os.Hostname(); return h }
