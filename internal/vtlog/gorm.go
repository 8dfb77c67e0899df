package vtlog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger route les logs GORM vers le logger global zerolog
type GormLogger struct {
	Logger        zerolog.Logger
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

func NewGormLogger(level string) *GormLogger {
	return &GormLogger{
		Logger:        log.Logger,
		Level:         gormLevel(level),
		SlowThreshold: 200 * time.Millisecond,
	}
}

func gormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "warn":
		return gormlogger.Warn // Seulement les requêtes lentes
	case "error":
		return gormlogger.Error // Seulement les erreurs
	default:
		return gormlogger.Info // Toutes les requêtes
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.Level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= gormlogger.Info {
		l.Logger.Info().Msgf(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= gormlogger.Warn {
		l.Logger.Warn().Msgf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= gormlogger.Error {
		l.Logger.Error().Msgf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	event := l.Logger.With().
		Dur("elapsed_ms", elapsed).
		Int64("rows", rows).
		Str("sql", sql).
		Logger()

	switch {
	// ErrRecordNotFound fait partie du flux normal (visiteur inconnu), on ne le logue pas en erreur
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.Level >= gormlogger.Error:
		event.Error().Err(err).Msg("database query error")

	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold && l.Level >= gormlogger.Warn:
		event.Warn().Dur("threshold", l.SlowThreshold).Msg("slow database query")

	case l.Level >= gormlogger.Info:
		event.Info().Msg("database query")
	}
}
