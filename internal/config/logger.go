package config

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	std *logrus.Logger
}

func NewLogger(level string) *Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(out io.Writer, level string) *Logger {
	std := logrus.New()
	std.SetOutput(out)
	std.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)
	return &Logger{std: std}
}

func (l *Logger) Info(action string, entity string, entityID string, userID int64, status string) {
	l.fields(action, entity, entityID, userID).WithField("status", status).Info(action)
}

func (l *Logger) Warn(action string, entity string, entityID string, userID int64, reason string) {
	l.fields(action, entity, entityID, userID).WithField("reason", reason).Warn(action)
}

func (l *Logger) Error(err error, action string, entity string, entityID string, userID int64) {
	l.fields(action, entity, entityID, userID).WithError(err).Error(action)
}

func (l *Logger) fields(action, entity, entityID string, userID int64) *logrus.Entry {
	return l.std.WithFields(logrus.Fields{
		"action":    action,
		"entity":    entity,
		"entity_id": entityID,
		"user_id":   userID,
	})
}
