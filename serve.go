package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	intconfig "smartbus/internal/config"
	router "smartbus/internal/http"
	"smartbus/internal/metrics"
	"smartbus/internal/realtime"
	"smartbus/internal/services"
)

const stopCacheSize = 256

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API, the socket channel and the broadcast loop",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	env, err := intconfig.LoadEnv()
	if err != nil {
		return err
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	if _, err := intconfig.ConnectDB(env); err != nil {
		return err
	}
	defer intconfig.CloseDB()

	collector := metrics.NewCollector()
	hub := realtime.NewHub(collector, openSinks(env)...)
	defer hub.Close()

	tracker := &realtime.Tracker{
		Hub:      hub,
		Interval: env.BroadcastInterval,
		Metrics:  collector,
	}
	if err := tracker.Start(); err != nil {
		return err
	}

	r := router.NewRouter(env, router.Options{
		Metrics:   collector,
		Hub:       hub,
		StopCache: services.NewStopCache(stopCacheSize, env.RouteCacheTTL),
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server running on http://localhost%s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracker.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	log.Println("Server stopped cleanly.")
	return nil
}

// openSinks connects the configured brokers. A broker that cannot be reached
// at startup is logged and skipped.
func openSinks(env intconfig.Env) []realtime.Sink {
	var sinks []realtime.Sink
	if env.NATSURL != "" {
		s, err := realtime.NewNATSSink(env.NATSURL)
		if err != nil {
			log.Printf("[NATS] disabled: %v", err)
		} else {
			sinks = append(sinks, s)
		}
	}
	if env.AMQPURL != "" {
		sinks = append(sinks, realtime.NewAMQPSink(env.AMQPURL))
	}
	return sinks
}
