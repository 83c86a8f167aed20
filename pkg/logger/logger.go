// Package logger provides leveled, contextual logging helpers: every call
// site names a component and, optionally, a set of structured fields.
package logger

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// Level is a logging severity.
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
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu       sync.Mutex
	minLevel = LevelInfo
	std      = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel changes the minimum level that reaches the underlying writer.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

func logf(level Level, component, msg string, fields map[string]interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}
	if len(fields) == 0 {
		std.Printf("[%s] [%s] %s", level, component, msg)
		return
	}
	std.Printf("[%s] [%s] %s %s", level, component, msg, formatFields(fields))
}

func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

// DebugC logs a debug message scoped to component.
func DebugC(component, msg string) { logf(LevelDebug, component, msg, nil) }

// DebugCF logs a debug message scoped to component with structured fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	logf(LevelDebug, component, msg, fields)
}

// InfoC logs an info message scoped to component.
func InfoC(component, msg string) { logf(LevelInfo, component, msg, nil) }

// InfoCF logs an info message scoped to component with structured fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	logf(LevelInfo, component, msg, fields)
}

// WarnC logs a warning message scoped to component.
func WarnC(component, msg string) { logf(LevelWarn, component, msg, nil) }

// WarnCF logs a warning message scoped to component with structured fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	logf(LevelWarn, component, msg, fields)
}

// ErrorC logs an error message scoped to component.
func ErrorC(component, msg string) { logf(LevelError, component, msg, nil) }

// ErrorCF logs an error message scoped to component with structured fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	logf(LevelError, component, msg, fields)
}
