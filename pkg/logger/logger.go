package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used across the application.
// Fields are passed as alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

type logrusLogger struct {
	l *logrus.Logger
}

func New(level string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return &logrusLogger{l: l}
}

func (lg *logrusLogger) Debug(msg string, args ...interface{}) {
	lg.l.WithFields(toFields(args)).Debug(msg)
}

func (lg *logrusLogger) Info(msg string, args ...interface{}) {
	lg.l.WithFields(toFields(args)).Info(msg)
}

func (lg *logrusLogger) Warn(msg string, args ...interface{}) {
	lg.l.WithFields(toFields(args)).Warn(msg)
}

func (lg *logrusLogger) Error(msg string, args ...interface{}) {
	lg.l.WithFields(toFields(args)).Error(msg)
}

func (lg *logrusLogger) Fatal(msg string, args ...interface{}) {
	lg.l.WithFields(toFields(args)).Fatal(msg)
}

func toFields(args []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[key] = args[i+1]
	}
	return fields
}
