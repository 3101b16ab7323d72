/*
Package main is the entry point for the roomchat server.

It is responsible for loading configuration, initializing the global logging system,
opening the selected store, starting the live feed hub and the expiry sweeper,
setting up the HTTP server, and gracefully handling operating system interrupt
signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomchat/internal/app/chat"
	"roomchat/internal/app/feed"
	"roomchat/internal/configs"
	"roomchat/internal/handler"
	"roomchat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("store_driver", cfg.StoreDriver).
		Dur("inactivity_timeout", cfg.InactivityTimeout).
		Dur("sweep_interval", cfg.SweepInterval).
		Float64("send_rate", cfg.SendRate).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open store", "driver", cfg.StoreDriver)
	}
	defer stores.Close()

	// Initialize the live feed and the chat services
	hub := feed.NewHub()
	go hub.Run()

	presence := chat.NewPresence(stores.participants, stores.messages, cfg.InactivityTimeout,
		chat.WithPublisher(hub), chat.WithDisconnector(hub))
	messages := chat.NewMessages(stores.participants, stores.messages, chat.WithPublisher(hub))

	sweeper := chat.NewSweeper(presence, cfg.SweepInterval)
	sweeper.Start(ctx)

	// Setup HTTP server and routes
	router := handler.Router(ctx, &handler.AppDeps{
		Presence: presence,
		Messages: messages,
		Hub:      hub,
		Config:   cfg,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("roomchat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	sweeper.Stop()
	hub.Stop()

	logx.Info("Server gracefully stopped.")
}
