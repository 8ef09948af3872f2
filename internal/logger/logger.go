package logger

import (
	"context"
	"time"

	"github.com/localpulse/localpulse/internal/config"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/fluent/fluent-logger-golang/fluent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger and optionally forwards structured records
// to a fluentd collector.
type Logger struct {
	*zap.SugaredLogger
	fluentd *fluent.Fluent
}

// Global logger for convenience in scripts and init paths. Everything else
// should take a *Logger through dependency injection.
var L *Logger

// NewLogger creates a new Logger from configuration.
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Logging.Level == "debug" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.DisableStacktrace = true

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	var fluentd *fluent.Fluent
	if cfg.Logging.FluentdEnabled && cfg.Logging.FluentdHost != "" && cfg.Logging.FluentdPort > 0 {
		fluentd, err = fluent.New(fluent.Config{
			FluentHost:   cfg.Logging.FluentdHost,
			FluentPort:   cfg.Logging.FluentdPort,
			Async:        true,
			WriteTimeout: 3 * time.Second,
			MaxRetry:     5,
		})
		if err != nil {
			zapLogger.Sugar().Warnf("fluentd unavailable, logging to stdout only: %v", err)
			fluentd = nil
		}
	}

	return &Logger{SugaredLogger: zapLogger.Sugar(), fluentd: fluentd}, nil
}

func init() {
	L, _ = NewLogger(config.GetDefaultConfig())
}

func GetLogger() *Logger {
	if L == nil {
		L, _ = NewLogger(config.GetDefaultConfig())
	}
	return L
}

// WithContext returns a logger annotated with the request-scoped fields.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(
			"request_id", types.GetRequestID(ctx),
			"user_id", types.GetUserID(ctx),
		),
		fluentd: l.fluentd,
	}
}

// Infow and friends are inherited from zap; the overrides below additionally
// mirror records to fluentd when it is configured.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
	l.forward("info", msg, keysAndValues...)
}

func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
	l.forward("warning", msg, keysAndValues...)
}

func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
	l.forward("error", msg, keysAndValues...)
}

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
	l.forward("debug", msg, keysAndValues...)
}

func (l *Logger) forward(level, msg string, keysAndValues ...interface{}) {
	if l.fluentd == nil {
		return
	}
	record := map[string]interface{}{
		"level":     level,
		"message":   msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			record[k] = keysAndValues[i+1]
		}
	}
	if err := l.fluentd.Post("billing.logs", record); err != nil {
		l.SugaredLogger.Warnf("failed to forward log to fluentd: %v", err)
	}
}

// retryableHTTPLogger adapts Logger to go-retryablehttp's logging interface.
type retryableHTTPLogger struct {
	logger *Logger
}

func (l *Logger) GetRetryableHTTPLogger() *retryableHTTPLogger {
	return &retryableHTTPLogger{logger: l}
}

func (r *retryableHTTPLogger) Printf(format string, v ...interface{}) {
	r.logger.Infof(format, v...)
}

// ginWriter adapts Logger to gin's io.Writer based logging.
type ginWriter struct {
	logger *Logger
}

func (l *Logger) GetGinWriter() *ginWriter {
	return &ginWriter{logger: l}
}

func (g *ginWriter) Write(p []byte) (n int, err error) {
	g.logger.Info(string(p))
	return len(p), nil
}
