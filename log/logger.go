// Package log wraps github.com/op/go-logging with a module-named, leveled logger shared by
// every engine package. All loggers write through one formatted backend whose sink and
// verbosity can be changed at runtime.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

// Level is the logger verbosity, ordered from most to least verbose.
type Level int

const (
	// Debug logs every rebuild, reset, and resource reallocation.
	Debug Level = iota

	// Info logs lifecycle events and periodic statistics.
	Info

	// Notice logs noteworthy but normal events. This is the default.
	Notice

	// Warning logs recoverable problems such as skipped objects.
	Warning

	// Error logs failed frames and GPU resource errors.
	Error
)

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var (
	mu             sync.Mutex
	leveledBackend logging.LeveledBackend
	currentLevel   = Notice
)

// Logger is the leveled logging interface handed out by New.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New creates a logger tagged with the given module name.
//
// Parameters:
//   - module: the module name printed in every log line
//
// Returns:
//   - Logger: the named logger
func New(module string) Logger {
	return logging.MustGetLogger(module)
}

// SetSink redirects all loggers to the given writer, keeping the current level.
//
// Parameters:
//   - sink: the writer log lines are written to
func SetSink(sink io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	backend := logging.NewLogBackend(sink, "", 0)
	leveledBackend = logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	leveledBackend.SetLevel(toBackendLevel(currentLevel), "")
	logging.SetBackend(leveledBackend)
}

// SetLevel changes the verbosity of all loggers.
//
// Parameters:
//   - level: the minimum level that will be written
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
	leveledBackend.SetLevel(toBackendLevel(level), "")
}

// ParseLevel converts a level name ("debug", "info", "notice", "warning", "error") to a Level.
//
// Parameters:
//   - name: the case-insensitive level name
//
// Returns:
//   - Level: the parsed level
//   - error: an error if the name is not a known level
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "", "notice":
		return Notice, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Notice, fmt.Errorf("log: unknown level %q", name)
}

func toBackendLevel(level Level) logging.Level {
	switch level {
	case Debug:
		return logging.DEBUG
	case Info:
		return logging.INFO
	case Warning:
		return logging.WARNING
	case Error:
		return logging.ERROR
	default:
		return logging.NOTICE
	}
}

func init() {
	SetSink(os.Stdout)
}
