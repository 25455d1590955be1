package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger
	DebugLogger *log.Logger
	WarnLogger  *log.Logger

	minLevel atomic.Int32
)

func init() {
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	DebugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	minLevel.Store(int32(LevelInfo))
}

func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// SetLevel drops messages below the named level. An unknown name leaves
// the level unchanged.
func SetLevel(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	minLevel.Store(int32(level))
	return nil
}

// SetOutput points every level at w.
func SetOutput(w io.Writer) {
	for _, l := range []*log.Logger{InfoLogger, ErrorLogger, DebugLogger, WarnLogger} {
		l.SetOutput(w)
	}
}

func enabled(level Level) bool {
	return int32(level) >= minLevel.Load()
}

func Debug(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		DebugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func Info(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		InfoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func Warn(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		WarnLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func Error(format string, v ...interface{}) {
	ErrorLogger.Output(2, fmt.Sprintf(format, v...))
}

// FeedError logs a live feed that ended with an error.
func FeedError(feed, key string, err error) {
	if enabled(LevelWarn) {
		WarnLogger.Output(2, fmt.Sprintf("Feed ended with error: feed=%s, key=%s, error=%v", feed, key, err))
	}
}
