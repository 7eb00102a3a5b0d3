package logging

import (
	"io"
	"os"
	"strings"

	"github.com/2beens/fitwise/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 50
	defaultMaxAgeDays = 30
)

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
	// MaxAgeDays of rotated log files, defaults to 30
	MaxAgeDays int
}

// Setup configures the global logrus logger: level, format, output and the
// optional sentry hook.
func Setup(params LoggerSetupParams) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.SentryEnabled {
		setupSentry(params)
	}

	logrus.SetOutput(logOutput(params))
}

func setupSentry(params LoggerSetupParams) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              params.SentryDSN,
		Environment:      params.Environment,
		ServerName:       params.SentryServerName,
		TracesSampleRate: 1.0,
	}); err != nil {
		logrus.Errorf("sentry init: %s", err)
		return
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Infoln("sentry hook added")
}

func logOutput(params LoggerSetupParams) io.Writer {
	if params.LogFileName == "" {
		logrus.Debugln("logging to stdout only")
		return os.Stdout
	}

	fileName := params.LogFileName
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}
	maxAge := params.MaxAgeDays
	if maxAge <= 0 {
		maxAge = defaultMaxAgeDays
	}

	// rotated files are named in UTC and gzipped
	rotatingFile := &lumberjack.Logger{
		Filename: fileName,
		MaxSize:  logFileMaxSizeMB,
		MaxAge:   maxAge,
		Compress: true,
	}

	if !params.LogToStdout {
		return rotatingFile
	}
	logrus.Debugf("logging to stdout and %s", fileName)
	return pkg.NewCombinedWriter(os.Stdout, rotatingFile)
}

// GetLevel parses a level name case-insensitively. Unknown names mean info.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
