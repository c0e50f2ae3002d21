package gomonetdb

import (
	"context"
	"io"

	rlog "github.com/sirupsen/logrus"
)

// MDBLogger is the MonetDB driver logger interface. It abstracts away the
// underlying logging mechanism so applications can plug in their own.
type MDBLogger interface {
	rlog.Ext1FieldLogger
	WithContext(ctx context.Context) *rlog.Entry
	SetLogLevel(level string) error
	GetLogLevel() string
	SetOutput(output io.Writer)
}

type defaultLogger struct {
	*rlog.Logger
}

// SetLogLevel sets the log level. Levels are those of logrus: trace, debug,
// info, warning, error, fatal, panic.
func (log *defaultLogger) SetLogLevel(level string) error {
	actualLevel, err := rlog.ParseLevel(level)
	if err != nil {
		return err
	}
	log.Logger.SetLevel(actualLevel)
	return nil
}

// GetLogLevel returns the current log level.
func (log *defaultLogger) GetLogLevel() string {
	return log.Logger.GetLevel().String()
}

// CreateDefaultLogger returns a new instance of MDBLogger with default config.
func CreateDefaultLogger() MDBLogger {
	inner := rlog.New()
	inner.SetLevel(rlog.ErrorLevel)
	return &defaultLogger{Logger: inner}
}

var logger = CreateDefaultLogger()

// SetLogger sets a new logger of MDBLogger interface for gomonetdb.
func SetLogger(inLogger MDBLogger) {
	logger = inLogger
}

// GetLogger returns the current logger.
func GetLogger() MDBLogger {
	return logger
}
