package domain

import "time"

// LogLevel represents the severity of a log entry.
type LogLevel string

// Log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid checks if the log level is valid.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

// LogEntry represents a single synthetic log line. Entries are immutable once
// created and always belong to exactly one service.
type LogEntry struct {
	ID          string    `json:"id"`
	ServiceID   string    `json:"service_id"`
	ServiceName string    `json:"service_name"`
	Level       LogLevel  `json:"level"`
	Message     string    `json:"message"`
	TraceID     string    `json:"trace_id,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	DurationMs  int       `json:"duration_ms"`
	StatusCode  int       `json:"status_code"`
	Timestamp   time.Time `json:"timestamp"`
}
