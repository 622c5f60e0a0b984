package logger

import (
	"context"
	"os"

	"github.com/febry-setyawan/loyalty/internal/config"
	sqldblogger "github.com/simukti/sqldb-logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application logging interface. It also satisfies
// sqldblogger.Logger so the same instance logs database queries.
type Logger interface {
	// With returns a logger based off the root logger and decorated
	// with given context and arguments.
	With(ctx context.Context, args ...interface{}) Logger

	Debug(args ...interface{})
	Info(args ...interface{})
	Error(args ...interface{})

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// Log implements the sqldblogger.Logger interface.
	Log(ctx context.Context, level sqldblogger.Level, msg string, data map[string]interface{})

	// Sync flushes any buffered log entries.
	Sync() error
}

type logger struct {
	*zap.SugaredLogger
}

// New creates a logger writing to stderr and, when a path is
// configured, to a size-rotated file.
func New(cfg *config.Config) Logger {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.Logger.Level); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stderr),
			level,
		),
	}

	if cfg.Logger.Path != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.Logger.Path,
			MaxSize:    cfg.Logger.MaxSizeMB,
			MaxBackups: cfg.Logger.MaxBackups,
			MaxAge:     cfg.Logger.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotated),
			level,
		))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCallerSkip(1))

	return &logger{l.Sugar()}
}

// NewForTest returns a no-op logger for tests.
func NewForTest() Logger {
	return &logger{zap.NewNop().Sugar()}
}

func (l *logger) With(ctx context.Context, args ...interface{}) Logger {
	if len(args) > 0 {
		return &logger{l.SugaredLogger.With(args...)}
	}
	return l
}

// Log implements the sqldblogger.Logger interface;
// every statement sent to the database goes through here.
func (l *logger) Log(_ context.Context, level sqldblogger.Level, msg string, data map[string]interface{}) {
	args := make([]interface{}, 0, len(data)*2)
	for k, v := range data {
		args = append(args, k, v)
	}

	sugar := l.SugaredLogger.With(args...)

	switch level {
	case sqldblogger.LevelError:
		sugar.Error(msg)
	case sqldblogger.LevelInfo:
		sugar.Info(msg)
	default:
		sugar.Debug(msg)
	}
}

func (l *logger) Sync() error {
	return l.SugaredLogger.Sync()
}
