package common

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvProduction the production env name
const EnvProduction = "production"

// ZapLogger is the Logger backed by a zap sugared logger,the level can be changed at runtime
type ZapLogger struct {
	*zap.SugaredLogger
	level zap.AtomicLevel
}

// NewZapLogger new zap logger from conf.
// Production logs ISO8601 times at info level,other envs log at debug level;
// conf.Level overrides both. Logs go to the rotated conf.FileName or stderr.
func NewZapLogger(conf *LogConfig) *ZapLogger {
	encoderConf := zap.NewDevelopmentEncoderConfig()
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	if conf.Env == EnvProduction {
		encoderConf = zap.NewProductionEncoderConfig()
		encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder
		level.SetLevel(zapcore.InfoLevel)
	}
	if l, err := ParseLogLevel(conf.Level); err == nil {
		zl, _ := l.zapLevel()
		level.SetLevel(zl)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConf), zapcore.AddSync(logWriter(conf)), level)
	var opts []zap.Option
	if !conf.NoCaller {
		// skip the package level helpers
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return &ZapLogger{SugaredLogger: zap.New(core, opts...).Sugar(), level: level}
}

func logWriter(conf *LogConfig) io.Writer {
	if conf.FileName == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   conf.FileName,
		MaxSize:    conf.MaxSize,
		MaxBackups: conf.MaxBackups,
		MaxAge:     conf.MaxAge,
		LocalTime:  true,
	}
}

// DebugEnabled implements Logger
func (l *ZapLogger) DebugEnabled() bool { return l.level.Enabled(zapcore.DebugLevel) }

// InfoEnabled implements Logger
func (l *ZapLogger) InfoEnabled() bool { return l.level.Enabled(zapcore.InfoLevel) }

// WarnEnabled implements Logger
func (l *ZapLogger) WarnEnabled() bool { return l.level.Enabled(zapcore.WarnLevel) }

// ErrorEnabled implements Logger
func (l *ZapLogger) ErrorEnabled() bool { return l.level.Enabled(zapcore.ErrorLevel) }

// SetLevel implements Logger,an unknown level is ignored
func (l *ZapLogger) SetLevel(level LogLevel) {
	if zl, ok := level.zapLevel(); ok {
		l.level.SetLevel(zl)
	}
}

// Sync implements Logger
func (l *ZapLogger) Sync() {
	_ = l.SugaredLogger.Sync()
}

// Structured the structured logger sharing the core and level of l
func (l *ZapLogger) Structured() *zap.Logger {
	return l.Desugar().WithOptions(zap.AddCallerSkip(-1))
}
