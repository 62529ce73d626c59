// Package logging provides the leveled logging wrappers shared by every
// package in this proxy, so goroutines handling different connections log
// through the same level filter and bracketed-tag convention.
package logging

import (
	"fmt"
	"log"
	"strings"
)

type Level int

const (
	LevelInfo Level = iota
	LevelDebug
)

var currentLevel = LevelInfo

// SetLevel configures the process-wide logging level.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		currentLevel = LevelDebug
	case "info", "":
		currentLevel = LevelInfo
	default:
		currentLevel = LevelInfo
	}
}

// Info logs high-level operations (always shown).
func Info(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

// Debug logs detailed protocol exchanges (only shown in debug mode).
func Debug(format string, args ...interface{}) {
	if currentLevel >= LevelDebug {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// Warn logs a recoverable, session-local denial or anomaly.
func Warn(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}

// Error logs errors (always shown).
func Error(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

// Stats logs statistics and summaries (always shown).
func Stats(format string, args ...interface{}) {
	log.Printf("[STATS] "+format, args...)
}

// Conn returns a logger scoped to one connection, so interleaved goroutine
// output stays attributable to the session that produced it.
func Conn(id uint64) *ConnLogger {
	return &ConnLogger{prefix: fmt.Sprintf("conn %05d", id)}
}

type ConnLogger struct {
	prefix string
}

func (c *ConnLogger) Info(format string, args ...interface{}) {
	Info("[%s] "+format, append([]interface{}{c.prefix}, args...)...)
}

func (c *ConnLogger) Debug(format string, args ...interface{}) {
	Debug("[%s] "+format, append([]interface{}{c.prefix}, args...)...)
}

func (c *ConnLogger) Warn(format string, args ...interface{}) {
	Warn("[%s] "+format, append([]interface{}{c.prefix}, args...)...)
}

func (c *ConnLogger) Error(format string, args ...interface{}) {
	Error("[%s] "+format, append([]interface{}{c.prefix}, args...)...)
}
