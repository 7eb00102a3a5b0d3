package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/2beens/fitwise/internal/auth"
	"github.com/2beens/fitwise/internal/cache"
	"github.com/2beens/fitwise/internal/config"
	"github.com/2beens/fitwise/internal/db"
	"github.com/2beens/fitwise/internal/db/migrations"
	"github.com/2beens/fitwise/internal/exercises"
	"github.com/2beens/fitwise/internal/middleware"
	"github.com/2beens/fitwise/internal/misc"
	"github.com/2beens/fitwise/internal/recommendations"
	"github.com/2beens/fitwise/internal/telemetry/metrics"
	"github.com/2beens/fitwise/internal/telemetry/tracing"
	"github.com/2beens/fitwise/internal/workouts"
)

const (
	sessionsCleanupInterval = 8 * time.Hour
	maxRequestBodyBytes     = 1 << 20
	advisorTimeout          = 10 * time.Second
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	loginChecker           *auth.LoginChecker
	authService            *auth.Service
	exercisesRepo          *exercises.Repo
	workoutsService        *workouts.Service
	recommendationsService *recommendations.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()

	stopBackgroundJobs context.CancelFunc
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	DBPassword              string
	RedisPassword           string
	AdvisorAPIKey           string
	HoneycombTracingEnabled bool
	// how long to keep retrying the first db ping
	DBPingMaxElapsed time.Duration
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     params.DBPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
		PingMaxElapsed: params.DBPingMaxElapsed,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if cfg.MigrationsEnabled {
		connString := db.ConnString(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName, cfg.PostgresUser, params.DBPassword)
		if err := migrations.Up(connString); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Debugln("db migrations applied")
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(params.VersionInfo, pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitwise-backend", rdb)
	if err != nil {
		dbPool.Close()
		return nil, multierr.Append(err, rdb.Close())
	}

	sessionTTL := auth.DefaultTTL
	if cfg.SessionTTLHours > 0 {
		sessionTTL = time.Duration(cfg.SessionTTLHours) * time.Hour
	}
	authService := auth.NewAuthService(auth.NewUsersRepo(dbPool), sessionTTL, rdb)

	unreadCache, err := cache.NewLocalCache(cfg.RecommendationsCacheSizeMB)
	if err != nil {
		otelShutdown()
		dbPool.Close()
		return nil, multierr.Append(fmt.Errorf("recommendations cache: %w", err), rdb.Close())
	}

	exercisesRepo := exercises.NewRepo(dbPool)
	workoutsService := workouts.NewService(workouts.NewRepo(dbPool), metricsManager)

	var advisors []recommendations.Advisor
	if cfg.AdvisorURL != "" {
		tracedHttpClient := &http.Client{
			Timeout:   advisorTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
		advisors = append(advisors, recommendations.NewRemoteAdvisor(tracedHttpClient, cfg.AdvisorURL, params.AdvisorAPIKey))
	}
	// rules always come last, as the fallback
	advisors = append(advisors, recommendations.NewRuleAdvisor())

	recommendationsService := recommendations.NewService(
		recommendations.NewRepo(dbPool),
		recommendations.NewSummarizer(exercisesRepo, workoutsService),
		unreadCache,
		metricsManager,
		advisors...,
	)

	bgCtx, stopBackgroundJobs := context.WithCancel(context.Background())
	go runPeriodically(bgCtx, sessionsCleanupInterval, authService.ScanAndClean)

	return &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		dbPool:      dbPool,
		redisClient: rdb,

		authService:            authService,
		loginChecker:           auth.NewLoginChecker(sessionTTL, rdb),
		exercisesRepo:          exercisesRepo,
		workoutsService:        workoutsService,
		recommendationsService: recommendationsService,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,

		stopBackgroundJobs: stopBackgroundJobs,
	}, nil
}

func runPeriodically(ctx context.Context, interval time.Duration, job func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	miscHandler := misc.NewHandler(s.versionInfo, map[string]misc.Pinger{
		"postgres": s.dbPool,
		"redis": misc.PingerFunc(func(ctx context.Context) error {
			return s.redisClient.Ping(ctx).Err()
		}),
	})
	miscHandler.SetupRoutes(r)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authHandler := auth.NewHandler(s.authService, s.metricsManager)
	authHandler.SetupRoutes(authRouter)
	// rate limit the auth endpoints to prevent credentials guessing
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	authRouter.Use(middleware.RateLimit(reqRateLimiter, "auth", s.config.LoginRateLimitAllowedPerMin, s.metricsManager))

	exercisesHandler := exercises.NewHandler(s.exercisesRepo, s.metricsManager)
	exercisesHandler.SetupRoutes(r.PathPrefix("/exercises").Subrouter())

	workoutsHandler := workouts.NewHandler(s.workoutsService)
	workoutsHandler.SetupRoutes(r.PathPrefix("/workouts").Subrouter())

	recommendationsHandler := recommendations.NewHandler(s.recommendationsService)
	recommendationsHandler.SetupRoutes(r.PathPrefix("/recommendations").Subrouter())

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.RequestID())
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins...))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.LimitAndDrainBody(maxRequestBodyBytes))

	return r
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

// GracefulShutdown stops the http servers first, so no request is left
// without its db or redis connection, then releases the rest.
func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var errs error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shutdown metrics http server: %w", err))
		}
		log.Warnln("metrics server shut down")
	}

	s.stopBackgroundJobs()

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close redis client: %w", err))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if sentry.CurrentHub().Client() != nil && !sentry.Flush(5*time.Second) {
		log.Warnln("sentry flush timed out")
	}

	return errs
}
