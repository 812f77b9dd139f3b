package notify

import (
	"github.com/sirupsen/logrus"
)

// LogSink writes notifications to a structured logger. It is the sink the
// service falls back to when no other delivery channel is configured.
type LogSink struct {
	log *logrus.Entry
}

func NewLogSink(log *logrus.Entry) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(n Notification) {
	entry := s.log.WithFields(logrus.Fields{
		"notification_id": n.ID.String(),
		"operation":       n.Operation,
		"product_id":      n.ProductID,
	})
	if n.Level == LevelError {
		entry.Warn(n.Message)
		return
	}
	entry.Info(n.Message)
}
