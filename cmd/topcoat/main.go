package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "topcoat",
		Usage:   "moderation daemon for nail-design submissions",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/topcoat/vernis.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for counters and caching; in-memory stores when empty",
			EnvVars: []string{"TOPCOAT_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":3883",
			EnvVars: []string{"TOPCOAT_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3884",
			EnvVars: []string{"TOPCOAT_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "vision-host",
			Usage:   "method, hostname, and port of the vision analysis service",
			Value:   "https://vision.googleapis.com",
			EnvVars: []string{"TOPCOAT_VISION_HOST"},
		},
		&cli.StringFlag{
			Name:    "vision-api-key",
			EnvVars: []string{"TOPCOAT_VISION_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "per-image-safety-cost",
			Usage:   "estimated cost (USD) of one safe-search call",
			Value:   "0.0015",
			EnvVars: []string{"TOPCOAT_PER_IMAGE_SAFETY_COST"},
		},
		&cli.StringFlag{
			Name:    "per-image-label-cost",
			Usage:   "estimated cost (USD) of one label-detection call",
			Value:   "0.0015",
			EnvVars: []string{"TOPCOAT_PER_IMAGE_LABEL_COST"},
		},
		&cli.StringFlag{
			Name:    "monthly-alert-threshold",
			Usage:   "monthly vision spend (USD) above which a warning fires; alerting only",
			Value:   "50",
			EnvVars: []string{"TOPCOAT_MONTHLY_ALERT_THRESHOLD"},
		},
		&cli.BoolFlag{
			Name:    "check-relevance",
			Usage:   "run label detection and gate submissions on topical relevance",
			Value:   true,
			EnvVars: []string{"TOPCOAT_CHECK_RELEVANCE"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "incoming webhook for budget alerts",
			EnvVars: []string{"TOPCOAT_SLACK_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:     "session-secret",
			Usage:    "HMAC secret for verifying session JWTs",
			Required: true,
			EnvVars:  []string{"TOPCOAT_SESSION_SECRET"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   40,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		// At a minimum, you need to set
		// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:4318
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				log.Fatal("failed to create trace exporter", "error", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("topcoat"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),         // DataDog
					attribute.String("environment", os.Getenv("ENVIRONMENT")), // Others
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		srv, err := NewServer(Config{
			DatabaseURL:           cctx.String("database-url"),
			MaxDBConnections:      cctx.Int("max-db-connections"),
			RedisURL:              cctx.String("redis-url"),
			VisionHost:            cctx.String("vision-host"),
			VisionAPIKey:          cctx.String("vision-api-key"),
			PerImageSafetyCost:    cctx.String("per-image-safety-cost"),
			PerImageLabelCost:     cctx.String("per-image-label-cost"),
			MonthlyAlertThreshold: cctx.String("monthly-alert-threshold"),
			CheckRelevance:        cctx.Bool("check-relevance"),
			SlackWebhookURL:       cctx.String("slack-webhook-url"),
			SessionSecret:         cctx.String("session-secret"),
			Logger:                logger,
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.RunAPI(ctx, cctx.String("bind")); err != nil {
			return fmt.Errorf("failed to run moderation service: %w", err)
		}
		return nil
	},
}
