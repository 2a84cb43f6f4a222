package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"adinsight/internal/api"
	"adinsight/internal/config"
	"adinsight/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(appContainer.InsightService, appConfig.Server.GinMode)
	if err := server.Run(ctx, ":"+appConfig.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
