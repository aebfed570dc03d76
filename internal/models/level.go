package models

import "strings"

// LogLevel is the severity attached to a log record.
type LogLevel string

const (
	LevelDebug    LogLevel = "DEBUG"
	LevelInfo     LogLevel = "INFO"
	LevelWarning  LogLevel = "WARNING"
	LevelError    LogLevel = "ERROR"
	LevelCritical LogLevel = "CRITICAL"
)

// Rank orders levels from least to most severe. Unknown levels rank below debug.
func (l LogLevel) Rank() int {
	switch LogLevel(strings.ToUpper(string(l))) {
	case LevelDebug:
		return 1
	case LevelInfo:
		return 2
	case LevelWarning:
		return 3
	case LevelError:
		return 4
	case LevelCritical:
		return 5
	default:
		return 0
	}
}

// AtLeast reports whether l is as severe as other or more.
func (l LogLevel) AtLeast(other LogLevel) bool {
	return l.Rank() >= other.Rank()
}
