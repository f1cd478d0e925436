// Package logging owns the daemon's log file. Screening is fail-open, so the
// log is the only place a degraded classifier shows up; fail-open events get
// their own tagged line format to keep them greppable.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes to a rotating file and mirrors warnings to stderr.
type Logger struct {
	file   *log.Logger
	stderr *log.Logger
	rot    *lumberjack.Logger
}

var (
	global *Logger
	once   sync.Once
)

// Get returns the process-wide logger, creating it on first use. dataDir is
// honored only on the first call.
func Get(dataDir string) *Logger {
	once.Do(func() {
		rot := &lumberjack.Logger{
			Filename:   filepath.Join(dataDir, "janus.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		global = &Logger{
			file:   log.New(rot, "", log.LstdFlags),
			stderr: log.New(os.Stderr, "", log.LstdFlags),
			rot:    rot,
		}
	})
	return global
}

// NewTestLogger returns a logger writing to w, for tests.
func NewTestLogger(w io.Writer) *Logger {
	return &Logger{
		file:   log.New(w, "", 0),
		stderr: log.New(io.Discard, "", 0),
	}
}

// Close flushes and closes the rotating file.
func (l *Logger) Close() error {
	if l.rot != nil {
		return l.rot.Close()
	}
	return nil
}

// Infof logs to the file only.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.file.Printf(format, v...)
}

// Warnf logs to the file and mirrors to stderr.
func (l *Logger) Warnf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.file.Print("WARN " + msg)
	l.stderr.Print(msg)
}

// FailOpen records a classifier-dependent decision that degraded to
// "proceed". op names the operation, errClass the failure category.
func (l *Logger) FailOpen(op, errClass string, err error) {
	msg := fmt.Sprintf("FAIL_OPEN op=%s class=%s err=%v", op, errClass, err)
	l.file.Print(msg)
	l.stderr.Print(msg)
}
