// Package main provides the embedded ClubTrack core server for desktop
// platforms. Desktop clients communicate via REST/WebSocket on localhost:8090.
package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/perbakken/clubtrack/backend/cmd/desktop/handlers"
	"github.com/perbakken/clubtrack/backend/internal/db"
	"github.com/perbakken/clubtrack/backend/internal/logging"
	syncpkg "github.com/perbakken/clubtrack/backend/internal/sync"
	"github.com/perbakken/clubtrack/backend/internal/sync/queue"
)

func main() {
	logging.Init(os.Stdout, logging.LevelInfo)

	dataDir := os.Getenv("DB_PATH")
	if dataDir == "" {
		dataDir = "./data"
	}

	serverURL := os.Getenv("CLUBTRACK_SERVER_URL")
	if serverURL == "" {
		serverURL = syncpkg.DefaultConfig().BaseURL
	}

	database, err := db.Open(dataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := db.InitSchema(database.DB); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	config := syncpkg.DefaultConfig()
	store := queue.NewStore(database.DB)
	monitor := syncpkg.NewConnectivityMonitor(true)
	client := syncpkg.NewEndpointClient(serverURL, config.RequestTimeout)
	coordinator := syncpkg.NewCoordinator(store, client, monitor)

	hub := NewWSHub()
	coordinator.SetAbandonFunc(hub.BroadcastOperationAbandoned)

	syncHandler := handlers.NewSyncHandler(store, coordinator)
	syncHandler.SetWebSocketHub(hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"clubtrack-desktop"}`))
	})
	mux.HandleFunc("/sync/queue", syncHandler.Queue)
	mux.HandleFunc("/sync/status", syncHandler.Status)
	mux.HandleFunc("/sync/now", syncHandler.SyncNow)
	mux.HandleFunc("/ws", hub.ServeWS)

	coordinator.StartAutoSync(config.Interval)
	defer coordinator.StopAutoSync()

	port := "8090"
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("ClubTrack Desktop Server starting on port %s...", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal; StopAutoSync lets an in-flight pass finish
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	server.Close()
}
