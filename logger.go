// Package botly implements a chat assistant that answers questions directly
// or, when a PDF has been attached and the message mentions @pdf, answers
// with retrieval-augmented generation over that document.
package botly

import (
	"github.com/trishiras/botly-v3-rag/internal/rag"
)

// LogLevel represents the severity of a log message.
type LogLevel = rag.LogLevel

// Log levels
const (
	LogLevelOff   = rag.LogLevelOff
	LogLevelError = rag.LogLevelError
	LogLevelWarn  = rag.LogLevelWarn
	LogLevelInfo  = rag.LogLevelInfo
	LogLevelDebug = rag.LogLevelDebug
)

// Logger interface for logging messages
type Logger = rag.Logger

// SetLogLevel sets the global log level for the botly package.
func SetLogLevel(level LogLevel) {
	rag.SetGlobalLogLevel(level)
}

// SetLogger replaces the logger used by the botly package.
func SetLogger(logger Logger) {
	rag.GlobalLogger = logger
}
