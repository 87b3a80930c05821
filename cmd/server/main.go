package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jfuentes/portfolio-tracker/internal/advisor"
	"github.com/jfuentes/portfolio-tracker/internal/api"
	"github.com/jfuentes/portfolio-tracker/internal/config"
	"github.com/jfuentes/portfolio-tracker/internal/fetch"
	"github.com/jfuentes/portfolio-tracker/internal/kafka"
	"github.com/jfuentes/portfolio-tracker/internal/portfolio"
	"github.com/jfuentes/portfolio-tracker/internal/prices"
	"github.com/jfuentes/portfolio-tracker/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
	}

	positions := store.NewPositionStore(ctx, store.NewRedisStorage(client))

	avCache := fetch.NewRedisCache(client, "prices:av:")
	cgCache := fetch.NewRedisCache(client, "prices:cg:")
	alphaVantage := fetch.NewAlphaVantage(cfg.Fetch.AlphaVantageKey, cfg.Fetch.AlphaVantageBaseURL, avCache)
	coinGecko := fetch.NewCoinGecko(cfg.Fetch.CoinGeckoBaseURL, cgCache)
	orchestrator := fetch.NewOrchestrator(alphaVantage, coinGecko, coinGecko)

	resolver := prices.NewResolver(nil, prices.NewRandomNoise(time.Now().UnixNano()))

	var events portfolio.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
		log.Printf("publishing portfolio events to %s", cfg.Kafka.Topic)
	}

	service := portfolio.NewService(positions, resolver, orchestrator,
		[]fetch.PriceCache{avCache, cgCache}, events)

	if cfg.Refresh.AutoRefresh {
		cancel := service.StartAutoRefresh(ctx, cfg.Refresh.Interval)
		defer cancel()
		log.Printf("auto-refresh enabled every %s", cfg.Refresh.Interval)
	}

	advisorClient := advisor.NewClient(cfg.Advisor.APIKey, cfg.Advisor.BaseURL, cfg.Advisor.Model)
	if !advisorClient.Configured() {
		log.Println("no advisor API key configured, chat will use canned responses")
	}

	handler := api.NewHandler(service, advisorClient)
	router := api.SetupRoutes(handler)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("portfolio tracker listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
