package resources

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Notifier shows transient messages to the operator
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier reports notifications through a zerolog logger
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that logs every message
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

// Success logs at info level
func (n *LogNotifier) Success(message string) {
	n.logger.Info().Msg(message)
}

// Error logs at error level
func (n *LogNotifier) Error(message string) {
	n.logger.Error().Msg(message)
}

// WriterNotifier prints toast-style lines to a terminal
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier writing to w
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Success prints a success line
func (n *WriterNotifier) Success(message string) {
	n.print("ok", message)
}

// Error prints an error line
func (n *WriterNotifier) Error(message string) {
	n.print("error", message)
}

func (n *WriterNotifier) print(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "[%s] %s\n", level, message)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
