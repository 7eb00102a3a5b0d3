package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/2beens/fitwise/internal"
	"github.com/2beens/fitwise/internal/config"
	"github.com/2beens/fitwise/internal/logging"

	log "github.com/sirupsen/logrus"
)

// set at build time with -ldflags "-X main.version=..."
var version = ""

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development | ddev | dockerdev ]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	if cfg.SentryEnabled && sentryDSN == "" {
		log.Errorf("sentry enabled, but DSN not set. use SENTRY_DSN")
	}
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "fitwise-backend",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	versionInfo := version
	if versionInfo == "" {
		versionInfo, err = tryGetLastCommitHash()
		if err != nil {
			log.Tracef("failed to get last commit hash / version info: %s", err)
			versionInfo = "unknown"
		}
	}
	log.Tracef("running version: %s", versionInfo)

	dbPassword := os.Getenv("FITWISE_DB_PASS")
	if dbPassword == "" {
		log.Warnln("db password not set. use FITWISE_DB_PASS")
	}

	redisPassword := os.Getenv("FITWISE_REDIS_PASS")
	if redisPassword == "" {
		log.Errorf("redis password not set. use FITWISE_REDIS_PASS")
	}

	advisorAPIKey := os.Getenv("FITWISE_ADVISOR_API_KEY")
	if cfg.AdvisorURL != "" && advisorAPIKey == "" {
		log.Warnln("remote advisor configured, but FITWISE_ADVISOR_API_KEY not set")
	}

	if otelServiceName := os.Getenv("OTEL_SERVICE_NAME"); otelServiceName == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             versionInfo,
			DBPassword:              dbPassword,
			RedisPassword:           redisPassword,
			AdvisorAPIKey:           advisorAPIKey,
			HoneycombTracingEnabled: honeycombEnabled,
			DBPingMaxElapsed:        30 * time.Second,
		},
	)
	cancel()
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)

	// go to sleep 🥱
	if err := server.GracefulShutdown(); err != nil {
		log.Errorf("graceful shutdown: %s", err)
	}
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}
