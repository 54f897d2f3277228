package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/config"
	"github.com/ariefcatur/go-cafe-orders.git/internal/courier"
	kafkax "github.com/ariefcatur/go-cafe-orders.git/internal/kafka"
	"github.com/ariefcatur/go-cafe-orders.git/internal/orders"
	"github.com/ariefcatur/go-cafe-orders.git/internal/postgres"
	"github.com/ariefcatur/go-cafe-orders.git/internal/redisx"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Status-change producer so trackers see dispatches immediately
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	prod.Start(ctx)

	docs := &store.PG{DB: db, Redis: rdb}
	svc := &courier.Service{
		Orders: &orders.Service{
			Store:    docs,
			Events:   prod,
			Producer: cfg.ServiceName + "-courier",
		},
		Dedup:        &redisx.Dedup{Client: rdb, Service: cfg.ServiceName + "-courier"},
		CourierName:  cfg.CourierName,
		CourierPhone: cfg.CourierPhone,
	}

	// Consumer
	group := getenv("COURIER_GROUP", "courier-svc")
	workers := mustAtoi(os.Getenv("COURIER_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderPlaced, workers)

	go func() {
		log.Printf("courier consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderPlaced, workers)
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
