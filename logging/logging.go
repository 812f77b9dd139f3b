// logging/logging.go

package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger using the field names the collector pipeline expects.
// An unknown level falls back to info.
func New(level string) *logrus.Logger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.Level = lvl
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = out
	return log
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}
