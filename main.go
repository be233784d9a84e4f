package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"lead-intake/pkg/api"
	"lead-intake/pkg/config"
	"lead-intake/pkg/middleware"
	"lead-intake/pkg/notifier"
	"lead-intake/pkg/queue"
	"lead-intake/pkg/services"
	"lead-intake/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using process environment")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	n, err := notifier.New(cfg)
	if err != nil {
		log.Fatalf("Error selecting notifier: %v", err)
	}

	var q queue.Queue
	switch cfg.QueueBackend {
	case config.QueueAMQP:
		q, err = queue.NewAMQPQueue(cfg.AMQPURL, cfg.QueueName, cfg.NotifyWorkers)
		if err != nil {
			log.Fatalf("Error connecting to queue: %v", err)
		}
	default:
		q = queue.NewMemoryQueue(cfg.QueueSize, cfg.NotifyWorkers)
	}

	leadService := services.NewLeadService(store.NewMemoryStore(), n, q, cfg)

	// Workers get their own context so buffered jobs still run during shutdown
	if err := q.Start(context.Background(), leadService.DeliverNotification); err != nil {
		log.Fatalf("Error starting notification workers: %v", err)
	}

	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	router.Use(middleware.CORS())
	api.RegisterRoutes(router, api.NewHandlers(leadService))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Printf("Server starting on port %s (notify=%s send_email=%v queue=%s)",
			cfg.Port, n.Channel(), cfg.SendEmail, cfg.QueueBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	if err := q.Close(); err != nil {
		log.Printf("Error closing queue: %v", err)
	}
}
