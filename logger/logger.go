package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// Logger is the interface of available logging methods.
type Logger interface {
	Trace(...interface{})
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
	Panic(...interface{})
	Fatal(...interface{})
}

// LoggerImpl wraps a sirupsen/logrus entry carrying the service name field.
type LoggerImpl struct {
	Logger         *log.Entry
	Service        string
	LogLevelStr    string
	PrintStackDump bool
}

func newServiceEntry(serviceName string, level string) *log.Entry {
	log.SetOutput(os.Stderr)
	// Don't use the JSON formatter when running on the CLI.
	logLevel, err := log.ParseLevel(level)
	if err != nil {
		fmt.Println("Error setting up logging: ", err)
		os.Exit(1)
	}
	log.SetLevel(logLevel)
	return log.WithFields(log.Fields{
		"service": serviceName,
	})
}

// NewLogger creates a new logger implementation.
func NewLogger(serviceName string, level string, stackDumpOnPanic bool) *LoggerImpl {
	return &LoggerImpl{
		Logger:         newServiceEntry(serviceName, level),
		Service:        serviceName,
		LogLevelStr:    level,
		PrintStackDump: stackDumpOnPanic,
	}
}

// NewWebLogger creates a logger for long-running server mode with an exit
// handler registered so in-flight pipelines can be torn down before logrus
// calls exit.
func NewWebLogger(serviceName string, level string, stackDumpOnPanic bool, exitHandlerFn func()) *LoggerImpl {
	log.RegisterExitHandler(exitHandlerFn)
	return NewLogger(serviceName, level, stackDumpOnPanic)
}

func (l *LoggerImpl) Trace(message ...interface{}) {
	l.Logger.Trace(message...)
}

func (l *LoggerImpl) Debug(message ...interface{}) {
	l.Logger.Debug(message...)
}

func (l *LoggerImpl) Info(message ...interface{}) {
	l.Logger.Info(message...)
}

func (l *LoggerImpl) Warn(message ...interface{}) {
	l.Logger.Warn(message...)
}

// Error logs with a stack trace when PrintStackDump is set.
func (l *LoggerImpl) Error(message ...interface{}) {
	if l.PrintStackDump {
		l.Logger.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack())).Error(message...)
		return
	}
	l.Logger.Error(message...)
}

// Panic exits via logrus Fatal unless PrintStackDump is set, in which case a
// real panic is raised, with the stack attached at debug/trace levels.
func (l *LoggerImpl) Panic(message ...interface{}) {
	if !l.PrintStackDump {
		l.Logger.Fatal(message...)
		return
	}
	if l.LogLevelStr == "debug" || l.LogLevelStr == "trace" {
		l.Logger.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack())).Panic(message...)
		return
	}
	l.Logger.Panic(message...)
}

// Fatal causes exit(1), attaching the stack at debug/trace levels.
// Call Panic() to get a stack dump instead.
func (l *LoggerImpl) Fatal(message ...interface{}) {
	if l.LogLevelStr == "debug" || l.LogLevelStr == "trace" {
		l.Logger.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack())).Fatal(message...)
		return
	}
	l.Logger.Fatal(message...)
}

// SetOutput sets the log output to the supplied Writer.
func (l *LoggerImpl) SetOutput(writer io.Writer) {
	log.SetOutput(writer)
}
