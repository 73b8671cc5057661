package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("scheduler", false, "periodically scrape companies with a known career page")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("scheduler.enabled", serveCmd.Flags().Lookup("scheduler"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-radar server", zap.String("version", resolveVersion()))

	svc, err := newServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing services", zap.Error(err))
	}
	// Close drains pending analysis writes before the pool goes away.
	defer svc.Close()

	if config.Scheduler.Enabled {
		if err := svc.scheduler.Start(ctx); err != nil {
			logger.Fatal("starting the scheduler", zap.Error(err))
		}
		defer svc.scheduler.Stop()
	}

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.NewRouter(server.Config{CORSOrigins: config.Server.CORSOrigins}, server.Deps{
		Analyzer:   svc.analyzer,
		Catalog:    svc.store,
		Discoverer: svc.finder,
		Scraper:    svc.scraper,
		Logger:     logger.Named("http"),
	})

	srv := &http.Server{
		Addr:         config.Server.Addr,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
