package core

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ProductionLogger implements Logger on top of logrus.
// JSON output is used for log aggregation, text output for local terminals.
type ProductionLogger struct {
	entry *logrus.Entry
}

// NewProductionLogger builds a logger from the logging section of Config.
// Every entry carries the component name under the "component" field.
func NewProductionLogger(logging LoggingConfig, component string) *ProductionLogger {
	return newProductionLogger(logging, component, resolveLogOutput(logging.Output))
}

func newProductionLogger(logging LoggingConfig, component string, out io.Writer) *ProductionLogger {
	base := logrus.New()
	base.SetOutput(out)

	if strings.EqualFold(logging.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	entry := logrus.NewEntry(base)
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return &ProductionLogger{entry: entry}
}

// WithComponent returns a logger tagged with a different component name.
func (l *ProductionLogger) WithComponent(component string) *ProductionLogger {
	return &ProductionLogger{entry: l.entry.WithField("component", component)}
}

func (l *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Info(msg)
}

func (l *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Error(msg)
}

func (l *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Warn(msg)
}

func (l *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Debug(msg)
}

func resolveLogOutput(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout
	case "", "stderr":
		return os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return os.Stderr
		}
		return f
	}
}
