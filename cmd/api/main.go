package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/auth"
	"github.com/ariefcatur/go-cafe-orders.git/internal/cart"
	"github.com/ariefcatur/go-cafe-orders.git/internal/catalog"
	"github.com/ariefcatur/go-cafe-orders.git/internal/config"
	"github.com/ariefcatur/go-cafe-orders.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-cafe-orders.git/internal/kafka"
	"github.com/ariefcatur/go-cafe-orders.git/internal/orders"
	"github.com/ariefcatur/go-cafe-orders.git/internal/postgres"
	"github.com/ariefcatur/go-cafe-orders.git/internal/profile"
	"github.com/ariefcatur/go-cafe-orders.git/internal/redisx"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/go-chi/chi/v5"
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
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Bootstrap(ctx, db); err != nil {
		log.Fatalf("db bootstrap: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// Services
	docs := &store.PG{DB: db, Redis: rdb}
	watcher := &store.RedisWatcher{Redis: rdb}
	authSvc := &auth.Service{
		Store:      docs,
		Sessions:   &auth.RedisSessions{Redis: rdb},
		Secret:     []byte(cfg.JWTSecret),
		TTL:        cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	}
	catalogSvc := &catalog.Service{Store: docs, Redis: rdb}
	cartSvc := &cart.Service{Store: docs}
	orderSvc := &orders.Service{Store: docs, Events: prod, Producer: cfg.ServiceName}
	profileSvc := &profile.Service{Store: docs, Auth: authSvc, BcryptCost: cfg.BcryptCost}

	// Router
	router := httpx.NewRouter()
	(&httpx.AuthHandler{Auth: authSvc}).Register(router)
	(&httpx.CatalogHandler{Catalog: catalogSvc}).Register(router)
	router.Group(func(r chi.Router) {
		r.Use(httpx.RequireUser(authSvc))
		(&httpx.CartHandler{Cart: cartSvc, Catalog: catalogSvc}).Register(r)
		(&httpx.OrdersHandler{Orders: orderSvc, Cart: cartSvc, Auth: authSvc, Watcher: watcher}).Register(r)
		(&httpx.ProfileHandler{Profile: profileSvc}).Register(r)
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
