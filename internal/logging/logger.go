// Package logging provides component loggers for matchmate.
//
// Every line has the form "[timestamp] [component] [LEVEL] message" and goes
// to stderr, plus a per-run file when Setup is given a log directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	runID     string
	runIDOnce sync.Once

	outputMu sync.Mutex
	output   io.Writer = os.Stderr

	debugEnabled atomic.Bool
)

// Logger writes lines tagged with a component name
type Logger struct {
	component string
}

// New returns a logger for a component. Loggers are cheap; the output
// destination is shared and can be changed later by Setup.
func New(component string) *Logger {
	return &Logger{component: component}
}

// RunID returns the identifier of this process run
func RunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// Setup configures debug output and, when logDir is not empty, mirrors all
// log lines into <logDir>/<run-id>-matchmate.log. The returned closer
// releases the file.
func Setup(logDir string, debug bool) (io.Closer, error) {
	debugEnabled.Store(debug)
	if logDir == "" {
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return io.NopCloser(nil), fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(logDir, fmt.Sprintf("%s-matchmate.log", RunID()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return io.NopCloser(nil), fmt.Errorf("failed to open log file: %w", err)
	}

	SetOutput(io.MultiWriter(os.Stderr, file))
	return file, nil
}

// SetOutput replaces the shared destination
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}

func (l *Logger) write(level, format string, v ...interface{}) {
	message := strings.TrimRight(fmt.Sprintf(format, v...), "\n")
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	line := fmt.Sprintf("[%s] [%s] [%s] %s\n", timestamp, l.component, level, message)

	outputMu.Lock()
	defer outputMu.Unlock()
	_, _ = io.WriteString(output, line)
}

// Debugf logs only when debug output is enabled
func (l *Logger) Debugf(format string, v ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	l.write("DEBUG", format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write("WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write("ERROR", format, v...)
}

// Component returns the component name
func (l *Logger) Component() string {
	return l.component
}
