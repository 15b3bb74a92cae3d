package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/streamtip/streamtip-gobackend/internal/config"
	"github.com/streamtip/streamtip-gobackend/internal/engine"
	"github.com/streamtip/streamtip-gobackend/internal/gateway"
	"github.com/streamtip/streamtip-gobackend/internal/handlers"
	"github.com/streamtip/streamtip-gobackend/internal/push"
)

func main() {
	// Load .env
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env: %s", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Wire the engine: one registry, one serialized reconciler, both
	// feeders converging on it.
	gatewayClient := gateway.NewClient(cfg.PaymentsBaseURL)
	memo := &engine.MemoSink{}
	sink := engine.MultiSink{engine.LogSink{}, memo}
	registry := engine.NewRegistry()
	reconciler := engine.NewReconciler(registry, sink)
	eng := engine.NewEngine(ctx, gatewayClient, reconciler, registry, engine.WatchConfig{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
	})

	var feed push.Feed
	switch cfg.PushMode {
	case config.PushModeSocket:
		feed = push.NewSocketFeed(cfg.SocketURL, cfg.CreatorID)
	case config.PushModeKafka:
		feed = push.NewKafkaFeed(push.KafkaFeedConfig{
			Brokers:   cfg.KafkaBrokers,
			Topic:     cfg.KafkaTopic,
			GroupID:   cfg.KafkaGroupID,
			CreatorID: cfg.CreatorID,
		})
	}
	if feed != nil {
		listener := engine.NewListener(feed, reconciler, registry)
		go func() {
			if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Push feed stopped: %v", err)
			}
		}()
		go listener.Run(ctx)
		log.Printf("Push channel active (%s mode) for creator %s", cfg.PushMode, cfg.CreatorID)
	} else {
		log.Println("Push channel disabled; relying on polling only")
	}

	tipHandler := handlers.NewTipHandler(eng, memo)

	// Set up router
	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")
	router.HandleFunc("/api/tip", tipHandler.SubmitTip).Methods("POST")
	router.HandleFunc("/api/tip", tipHandler.SessionStatus).Methods("GET")
	router.HandleFunc("/api/tip/receipt", tipHandler.Receipt).Methods("GET")

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Server running on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
