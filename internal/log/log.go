// Package log configures Uber's Zap logging library as the backend for the
// standard library's log/slog front end, so the rest of the project logs
// through slog only.
//
// Initialize() MUST be called before the first logging statement in main;
// packages other than main should accept a *slog.Logger rather than rely on
// the defaults being configured.
package log

import (
	golog "log"
	"log/slog"
	"strings"

	"github.com/blendle/zapdriver"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// LoggingEnv is used to represent a specific configuration used by a given
// environment.
type LoggingEnv string

// String implements the Stringer interface.
func (e LoggingEnv) String() string {
	return string(e)
}

const (
	LoggingEnvDev  LoggingEnv = "dev"
	LoggingEnvProd LoggingEnv = "prod"
)

var defaultLoggingEnv = LoggingEnvDev

// Initialize sets up the process-wide loggers. "prod" uses zapdriver's
// production configuration (StackDriver-style structured output, sampling
// disabled); anything else uses Zap's development configuration.
//
// The returned logger is also installed as slog's default, with context
// attributes (see ContextWithAttrs) folded into every record.
func Initialize(env string) *slog.Logger {
	var err error
	var zapLogger *zap.Logger
	switch strings.ToLower(env) {
	case LoggingEnvProd.String():
		defaultLoggingEnv = LoggingEnvProd
		config := zapdriver.NewProductionConfig()
		// Make sure sampling is disabled.
		config.Sampling = nil
		// Build the logger and ensure we use the zapdriver Core so that
		// labels are handled correctly.
		zapLogger, err = config.Build(zapdriver.WrapCore())
	case LoggingEnvDev.String():
		fallthrough
	default:
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		golog.Panic(err)
	}
	zap.RedirectStdLog(zapLogger)

	logger := slog.New(NewContextLogHandler(zapslog.NewHandler(zapLogger.Core(), zapslog.WithCaller(true))))
	slog.SetDefault(logger)
	return logger
}

// LabelAttr causes attributes written by zapdriver to be marked as labels
// inside StackDriver when LoggingEnv is LoggingEnvProd. Otherwise it wraps
// slog.String.
func LabelAttr(key, value string) slog.Attr {
	if defaultLoggingEnv == LoggingEnvProd {
		return slog.String("labels."+key, value)
	}
	return slog.String(key, value)
}
