package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lacquer-social/vernis/cachestore"
	"github.com/lacquer-social/vernis/countstore"
	"github.com/lacquer-social/vernis/ledger"
	"github.com/lacquer-social/vernis/moderation"
	"github.com/lacquer-social/vernis/submissions"
	"github.com/lacquer-social/vernis/util/cliutil"
	"github.com/lacquer-social/vernis/visual"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"github.com/shopspring/decimal"
)

type Server struct {
	logger      *slog.Logger
	echo        *echo.Echo
	service     *submissions.Service
	ledger      *ledger.Ledger
	sessionAuth *sessionAuth
}

type Config struct {
	DatabaseURL           string
	MaxDBConnections      int
	RedisURL              string
	VisionHost            string
	VisionAPIKey          string
	PerImageSafetyCost    string
	PerImageLabelCost     string
	MonthlyAlertThreshold string
	CheckRelevance        bool
	SlackWebhookURL       string
	SessionSecret         string
	Logger                *slog.Logger
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	db, err := cliutil.SetupDatabase(config.DatabaseURL, config.MaxDBConnections)
	if err != nil {
		return nil, err
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	if config.RedisURL != "" {
		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %w", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %w", err)
		}
		cache = csh
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5000, 30*time.Minute)
	}

	safetyCost, err := decimal.NewFromString(config.PerImageSafetyCost)
	if err != nil {
		return nil, fmt.Errorf("parsing per-image-safety-cost: %w", err)
	}
	labelCost, err := decimal.NewFromString(config.PerImageLabelCost)
	if err != nil {
		return nil, fmt.Errorf("parsing per-image-label-cost: %w", err)
	}
	alertThreshold, err := decimal.NewFromString(config.MonthlyAlertThreshold)
	if err != nil {
		return nil, fmt.Errorf("parsing monthly-alert-threshold: %w", err)
	}

	var notifier ledger.Notifier
	if config.SlackWebhookURL != "" {
		notifier = &ledger.SlackNotifier{SlackWebhookURL: config.SlackWebhookURL}
	}
	costLedger, err := ledger.NewLedger(db, logger, alertThreshold, notifier)
	if err != nil {
		return nil, err
	}

	vision := visual.NewClient(config.VisionHost, config.VisionAPIKey)
	vision.Cache = cache

	engine := &moderation.Engine{
		Logger:   logger,
		Vision:   vision,
		Counters: counters,
		Ledger:   costLedger,
		Config: moderation.Config{
			PerImageSafetyCost: safetyCost,
			PerImageLabelCost:  labelCost,
		},
	}

	service, err := submissions.NewService(db, engine, counters, logger, config.CheckRelevance)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())

	srv := &Server{
		logger:      logger,
		echo:        e,
		service:     service,
		ledger:      costLedger,
		sessionAuth: &sessionAuth{secret: []byte(config.SessionSecret)},
	}
	srv.registerRoutes()
	return srv, nil
}

func (srv *Server) registerRoutes() {
	e := srv.echo
	e.GET("/_health", srv.handleHealthCheck)

	authed := e.Group("", srv.sessionAuth.middleware)
	authed.POST("/submissions", srv.handleCreateSubmission)
	authed.GET("/submissions", srv.handleListSubmissions, srv.requireRole("moderator", "admin"))
	authed.GET("/submissions/:id", srv.handleGetSubmission)
	authed.POST("/submissions/:id/approve", srv.handleApprove, srv.requireRole("moderator", "admin"))
	authed.POST("/submissions/:id/reject", srv.handleReject, srv.requireRole("moderator", "admin"))
	authed.POST("/submissions/:id/withdraw", srv.handleWithdraw)
	authed.GET("/admin/costs", srv.handleCostStats, srv.requireRole("moderator", "admin"))
}

// RunAPI serves the HTTP API until SIGINT/SIGTERM, then shuts down
// gracefully.
func (srv *Server) RunAPI(ctx context.Context, bind string) error {
	srv.logger.Info("starting API server", "bind", bind)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.echo.Start(bind); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		srv.logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.echo.Shutdown(shutdownCtx)
}

func (srv *Server) RunMetrics(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, mux)
}

func (srv *Server) handleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
