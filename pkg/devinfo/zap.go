package devinfo

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter wraps a *zap.Logger to implement Logger.
// Key-value pairs are passed to the sugared logger's *w methods.
type ZapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter creates a Logger from a *zap.Logger.
// If logger is nil, zap.NewNop() is used.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAdapter{sugar: logger.Sugar()}
}

func (z *ZapAdapter) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }
func (z *ZapAdapter) Info(msg string, args ...any)  { z.sugar.Infow(msg, args...) }
func (z *ZapAdapter) Warn(msg string, args ...any)  { z.sugar.Warnw(msg, args...) }
func (z *ZapAdapter) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

// Sync flushes buffered log entries.
func (z *ZapAdapter) Sync() error {
	return z.sugar.Sync()
}

// ZapLogger builds a production zap logger at the given level name.
func ZapLogger(level string) (*ZapAdapter, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapAdapter(logger), nil
}
