// Package logging provides structured logging for the subsystem framework,
// wrapping logrus the way the wider codebase's pkg/logger does. Component
// packages that need a faster or differently-shaped logger (the router's
// dispatch hot path uses zerolog directly, the principal audit trail uses
// zap directly) wire that library themselves instead of overloading this
// one.
package logging

import (
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"
)

// Config controls a Logger's level and output format.
type Config struct {
	Level  string `env:"SUBSYSTEM_LOG_LEVEL"`
	Format string `env:"SUBSYSTEM_LOG_FORMAT"`
}

// DefaultConfig returns the baseline logging configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text"}
}

// ConfigFromEnv overlays DefaultConfig with whatever `env:"..."` tagged
// fields envdecode finds set in the environment, the same mechanism
// config.FromEnv uses for the rest of the framework's settings.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	// Errors here mean no tagged fields were set in the environment; the
	// logger isn't up yet to report anything louder, so defaults stand.
	_ = envdecode.Decode(&cfg)
	return cfg
}

// Logger wraps logrus.Logger with a component name attached to every entry.
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a Logger for the named component.
func New(component string, cfg Config) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{Logger: l, component: component}
}

// WithTrace returns an entry tagged with the component and a trace id.
func (l *Logger) WithTrace(traceID string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"component": l.component,
		"trace_id":  traceID,
	})
}

// Component returns an entry tagged only with the component name.
func (l *Logger) Component() *logrus.Entry {
	return l.WithFields(logrus.Fields{"component": l.component})
}
