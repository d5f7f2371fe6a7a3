package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/parley-chat/parley/internal/chat"
	"github.com/parley-chat/parley/internal/history"
	"github.com/parley-chat/parley/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Starting Parley server...")

	// A .env file is optional; the environment wins either way.
	_ = godotenv.Load()

	cfg := server.NewConfigFromEnv()
	server.SetConfig(cfg)

	archive, err := openArchive(cfg.HistoryDir)
	if err != nil {
		log.Fatalf("Failed to open history archive: %v", err)
	}
	defer func() {
		if err := archive.Close(); err != nil {
			log.Printf("Error closing history archive: %v", err)
		}
	}()

	coordinator := chat.NewCoordinator(cfg.GuestNamePrefix)
	hub := server.NewHub(coordinator, archive)
	server.StartHub(hub)

	mux := server.SetupRoutes(hub)
	httpServer := server.CreateServer(cfg.Port, mux)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.StartServer(httpServer)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown did not complete cleanly: %v", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Hub shutdown did not complete cleanly: %v", err)
	}
}

func openArchive(dir string) (history.Archive, error) {
	if dir == "" {
		return history.Noop{}, nil
	}
	log.Printf("Recording message history to %s", dir)
	return history.Open(dir)
}
