package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentiment-backend/cmd"
	"sentiment-backend/internal/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	envFile := cmd.EnvFileFlag()
	debug := flag.Bool("debug", false, "enable debug logging")
	eager := flag.Bool("eager", true, "create the pipeline on DEVICE before serving")
	flag.Parse()

	cmd.SetupLogging(*debug)
	log.Println("Starting sentiment server...")

	cfg := cmd.LoadConfig(*envFile)
	loader := cmd.InitializeModel(cfg)
	defer cmd.Shutdown(loader)

	if *eager {
		if _, err := loader.GetPipeline(cfg.Device); err != nil {
			log.Fatalf("could not create pipeline on device %s: %v", cfg.Device, err)
		}
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	service := api.NewSentimentService(loader, cfg.Device, cfg.Concurrency)
	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("sentiment server listening", "port", cfg.Port, "device", cfg.Device, "model_dir", cfg.ModelDir)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	log.Println("Server stopped.")
}
