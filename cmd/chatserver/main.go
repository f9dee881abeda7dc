package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	redisDriver "github.com/redis/go-redis/v9"

	"lyceum/internal/config"
	"lyceum/internal/handlers/chatserver"
	appKafka "lyceum/internal/kafka"
	"lyceum/internal/realtime"
	appRedis "lyceum/internal/redis"
	"lyceum/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Stream server configuration loaded.")

	// 2. Initialize Redis for handshake auth checks
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	sessionRevoker := appRedis.NewRedisSessionRevoker(redisClient)
	log.Println("Connected to Redis.")

	// 3. Start the WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	log.Println("WebSocket hub started.")

	// 4. WebSocket handler
	wsHandler := chatserver.NewWebSocketHandler(hub, cfg.Auth, cfg.WebSocket, tokenBlacklist, sessionRevoker)

	// 5. Consume the outgoing stream topic and deliver to connected clients.
	// Each stream server instance uses the shared group, so an event reaches
	// one instance; the hub drops events for users not connected here.
	streamConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create stream Kafka consumer: %v", err)
	}
	defer streamConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	go func() {
		topics := []string{cfg.Kafka.StreamTopic}
		log.Printf("Stream consumer listening on topic %s (group %s)", cfg.Kafka.StreamTopic, cfg.Kafka.StreamGroup)
		err := streamConsumer.Consume(consumerCtx, topics, cfg.Kafka.StreamGroup,
			func(ctx context.Context, kafkaMsg *confluentKafka.Message) error {
				var event realtime.Event
				if err := json.Unmarshal(kafkaMsg.Value, &event); err != nil {
					log.Printf("Error unmarshalling stream event: %v, value: %s", err, string(kafkaMsg.Value))
					return nil // Commit offset for bad message
				}
				hub.Deliver(&event)
				return nil
			})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Stream consumer error: %v", err)
		}
		log.Println("Stream consumer stopped.")
	}()

	// 6. HTTP server for the WebSocket endpoint
	serveMux := http.NewServeMux()
	serveMux.Handle(cfg.ChatServer.WebSocketPath, wsHandler)

	serverAddr := fmt.Sprintf("%s:%s", cfg.ChatServer.Host, cfg.ChatServer.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        serveMux,
		ReadTimeout:    cfg.ChatServer.ReadTimeout,
		WriteTimeout:   cfg.ChatServer.WriteTimeout,
		MaxHeaderBytes: cfg.ChatServer.MaxHeaderBytes,
	}

	go func() {
		log.Printf("Stream server listening on %s, WebSocket path %s", serverAddr, cfg.ChatServer.WebSocketPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Stream server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, stopping stream server...")

	cancelConsumers()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Stream server forced to shut down: %v", err)
	}
	log.Println("Stream server stopped.")
}
