package common

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel the log level
type LogLevel int8

// Log levels,the zero value means "not set"
const (
	Debug LogLevel = iota + 1
	Info
	Warn
	Error
)

var logLevelNames = map[LogLevel]string{
	Debug: "debug",
	Info:  "info",
	Warn:  "warn",
	Error: "error",
}

func (p LogLevel) String() string {
	if name, ok := logLevelNames[p]; ok {
		return name
	}
	return fmt.Sprintf("LogLevel(%d)", int8(p))
}

func (p LogLevel) zapLevel() (zapcore.Level, bool) {
	switch p {
	case Debug:
		return zapcore.DebugLevel, true
	case Info:
		return zapcore.InfoLevel, true
	case Warn:
		return zapcore.WarnLevel, true
	case Error:
		return zapcore.ErrorLevel, true
	}
	return zapcore.InfoLevel, false
}

// ParseLogLevel parse level name (debug,info,warn,error)
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return 0, fmt.Errorf("invalid log level:%s,must be one of debug,info,warn,error", level)
}

// Logger the logger interface
type Logger interface {
	Debugf(format string, params ...interface{})
	Infof(format string, params ...interface{})
	Warnf(format string, params ...interface{})
	Errorf(format string, params ...interface{})
	DebugEnabled() bool
	InfoEnabled() bool
	WarnEnabled() bool
	ErrorEnabled() bool
	SetLevel(level LogLevel)
	Sync()
}

type loggerHolder struct {
	Logger
}

var (
	logger     atomic.Value
	loggerLock sync.Mutex
)

func init() {
	logger.Store(loggerHolder{NewZapLogger(&LogConfig{Level: Info.String()})})
}

func currentLogger() Logger {
	return logger.Load().(loggerHolder).Logger
}

// SetLogger replace the global logger
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	loggerLock.Lock()
	defer loggerLock.Unlock()
	old := currentLogger()
	logger.Store(loggerHolder{l})
	old.Sync()
}

// initLogger build the global logger from config
func initLogger(conf *LogConfig) error {
	if conf == nil {
		return nil
	}
	if conf.Level != "" {
		if _, err := ParseLogLevel(conf.Level); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "init logger,env:%s,file:%s,level:%s\n", conf.Env, conf.FileName, conf.Level)
	l := NewZapLogger(conf)
	SetLogger(l)
	// zap.L() serves the structured loggers of the sinks
	zap.ReplaceGlobals(l.Structured())
	return nil
}

// SetLogLevel set the level of the global logger,invalid level is ignored
func SetLogLevel(level LogLevel) {
	currentLogger().SetLevel(level)
}

// Debugf debug
func Debugf(format string, params ...interface{}) {
	currentLogger().Debugf(format, params...)
}

// Infof info
func Infof(format string, params ...interface{}) {
	currentLogger().Infof(format, params...)
}

// Warnf warn
func Warnf(format string, params ...interface{}) {
	currentLogger().Warnf(format, params...)
}

// Errorf error
func Errorf(format string, params ...interface{}) {
	currentLogger().Errorf(format, params...)
}

// Logf log with level
func Logf(level LogLevel, format string, params ...interface{}) {
	l := currentLogger()
	switch level {
	case Debug:
		l.Debugf(format, params...)
	case Warn:
		l.Warnf(format, params...)
	case Error:
		l.Errorf(format, params...)
	default:
		l.Infof(format, params...)
	}
}

// DebugEnabled is debug enabled
func DebugEnabled() bool {
	return currentLogger().DebugEnabled()
}

// InfoEnabled is info enabled
func InfoEnabled() bool {
	return currentLogger().InfoEnabled()
}

// WarnEnabled is warn enabled
func WarnEnabled() bool {
	return currentLogger().WarnEnabled()
}

// ErrorEnabled is error enabled
func ErrorEnabled() bool {
	return currentLogger().ErrorEnabled()
}

// SyncLogger flush the buffered logs
func SyncLogger() {
	currentLogger().Sync()
}
