package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"quillpost-api/database"
	"quillpost-api/jobs"
	"quillpost-api/routes"
	"quillpost-api/services"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled publish job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("port", v.GetString("port"), "HTTP listen port")
	flags.Bool("scheduler-enabled", v.GetBool("scheduler_enabled"), "publish scheduled drafts in the background")
	flags.Bool("seed-on-start", v.GetBool("seed_on_start"), "load sample data into an empty database")
	mustBindPFlags(v, flags, "port", "scheduler-enabled", "seed-on-start")

	return cmd
}

func serve(ctx context.Context, v *viper.Viper) error {
	cfg, log, db, err := bootstrap(v)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer closeDB(db, log)

	if err := database.Migrate(db, log); err != nil {
		return err
	}
	if cfg.SeedOnStart {
		if err := database.SeedData(db, log); err != nil {
			log.Warn("failed to seed database", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.GinMode)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewMetrics(registry)
	notifier := services.NewNotifier(cfg, log)

	router := routes.NewRouter(ctx, routes.Dependencies{
		DB:       db,
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Metrics:  metrics,
		Notifier: notifier,
	})

	if cfg.SchedulerEnabled {
		job := jobs.NewScheduledPublishJob(services.NewPostService(db, metrics), cfg.SchedulerInterval, log)
		job.Start(ctx)
		defer job.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupCORS(router, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting quillpost api", zap.String("addr", srv.Addr), zap.String("db_engine", cfg.DBEngine))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", zap.Error(err))
		}
	}

	waitForMail(notifier)
	return nil
}

func waitForMail(n services.Notifier) {
	if es, ok := n.(*services.EmailService); ok {
		es.Wait()
	}
}
