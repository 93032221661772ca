package realtime

import (
	"go.uber.org/zap"
)

// eventLogger provides structured logging for connection lifecycle events
type eventLogger struct {
	logger *zap.Logger
}

func newEventLogger(l *zap.Logger) eventLogger {
	if l == nil {
		l = zap.L()
	}
	return eventLogger{logger: l.With(zap.String("component", "realtime"))}
}

func connFields(event string, c *Conn, fields []zap.Field) []zap.Field {
	all := make([]zap.Field, 0, len(fields)+3)
	all = append(all, zap.String("event", event))
	if c != nil {
		all = append(all, zap.String("conn_id", c.ID.String()))
		if c.userID != "" {
			all = append(all, zap.String("user_id", c.userID))
		}
	}
	return append(all, fields...)
}

func (l eventLogger) Debug(event string, c *Conn, fields ...zap.Field) {
	l.logger.Debug("realtime_event", connFields(event, c, fields)...)
}

func (l eventLogger) Info(event string, c *Conn, fields ...zap.Field) {
	l.logger.Info("realtime_event", connFields(event, c, fields)...)
}

func (l eventLogger) Warn(event string, c *Conn, fields ...zap.Field) {
	l.logger.Warn("realtime_warning", connFields(event, c, fields)...)
}

func (l eventLogger) Error(event string, c *Conn, err error, fields ...zap.Field) {
	l.logger.Error("realtime_error", connFields(event, c, append(fields, zap.Error(err)))...)
}
