package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stride-sync-server/internal/config"
	"stride-sync-server/internal/handler"
	"stride-sync-server/internal/middleware"
	"stride-sync-server/internal/repository"
	"stride-sync-server/internal/schema"
	"stride-sync-server/internal/service"
	"stride-sync-server/internal/websocket"
	"stride-sync-server/pkg/hash"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	for _, dbName := range []string{cfg.Database.ServerDB, cfg.Database.CacheDB, cfg.Database.HistoryDB} {
		exists, err := client.DBExists(context.Background(), dbName)
		if err != nil {
			log.Fatalf("Failed to check database existence: %v", err)
		}
		if !exists {
			if err := client.CreateDB(context.Background(), dbName); err != nil {
				log.Fatalf("Failed to create database %s: %v", dbName, err)
			}
			log.Printf("Created database: %s", dbName)
		}
	}

	remoteStore := repository.NewCouchEntityStore(client, cfg.Database.ServerDB)
	localCache := repository.NewCouchEntityStore(client, cfg.Database.CacheDB)
	membershipRepo := repository.NewMembershipRepository(client, cfg.Database.ServerDB)
	historyRepo := repository.NewHistoryRepository(fmt.Sprintf("%s/%s", couchURL, cfg.Database.HistoryDB))

	schemas := schema.NewRegistry()
	if cfg.Sync.SchemaFile != "" {
		schemas, err = schema.NewRegistryFromFile(cfg.Sync.SchemaFile)
		if err != nil {
			log.Fatalf("Failed to load entity schemas: %v", err)
		}
	}

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	syncKeyHash, err := hash.Hash(cfg.Sync.SyncKey)
	if err != nil {
		log.Fatalf("Invalid sync key: %v", err)
	}

	authorizer := service.NewMembershipAuthorizer(membershipRepo, []string{"AccountabilityGroup"})
	authService := service.NewAuthService(syncKeyHash, cfg.JWT.Secret, cfg.JWT.Expiration)
	conflictService := service.NewConflictService(
		localCache,
		remoteStore,
		authorizer,
		schemas,
		historyRepo,
		cfg.Sync.HistoryCap,
	)
	conflictService.SetNotifier(handler.NewWebSocketNotifier(wsManager))

	authHandler := handler.NewAuthHandler(authService)
	conflictHandler := handler.NewConflictHandler(conflictService)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/token", authHandler.IssueToken).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/conflicts", conflictHandler.ListActive).Methods("GET", "OPTIONS")
	protected.HandleFunc("/conflicts/resolved", conflictHandler.ListResolved).Methods("GET", "OPTIONS")
	protected.HandleFunc("/conflicts/report", conflictHandler.Report).Methods("POST", "OPTIONS")
	protected.HandleFunc("/conflicts/auto-resolve", conflictHandler.AutoResolveAll).Methods("POST", "OPTIONS")
	protected.HandleFunc("/conflicts/{id}/resolve", conflictHandler.Resolve).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Stride Sync Server on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
