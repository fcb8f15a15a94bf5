package lnclient

import (
	"github.com/rs/zerolog"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// zerologLogger adapts zerolog.Logger to linode.Logger.
type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a linode.Logger writing through logger.
func NewZerologLogger(logger zerolog.Logger) linode.Logger {
	return &zerologLogger{logger: logger}
}

func (l *zerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}
