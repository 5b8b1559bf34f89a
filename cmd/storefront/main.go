package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/api"
	"github.com/Mepiyou/myfirstfront/internal/auth"
	"github.com/Mepiyou/myfirstfront/internal/cart"
	"github.com/Mepiyou/myfirstfront/internal/config"
	"github.com/Mepiyou/myfirstfront/internal/database"
	"github.com/Mepiyou/myfirstfront/internal/handlers"
	"github.com/Mepiyou/myfirstfront/internal/logger"
	"github.com/Mepiyou/myfirstfront/internal/notify"
	"github.com/Mepiyou/myfirstfront/internal/queue"
	"github.com/Mepiyou/myfirstfront/internal/routes"
	"github.com/Mepiyou/myfirstfront/internal/syncer"
)

func main() {
	// --- Environment (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}
	cfg := config.Load()

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	// --- Local store (token, cart, theme, sync queue) ---
	db, err := database.Open(cfg.DataPath)
	if err != nil {
		zl.Fatal("Failed to open local store", zap.String("path", cfg.DataPath), zap.Error(err))
	}
	defer db.Close()

	// --- Application context, explicitly constructed and injected ---
	hub := notify.NewHub(zl.Named("notify"))
	tokens := auth.NewTokenStore(db)
	client := api.NewClient(cfg.APIBase, tokens, zl.Named("api"))
	cartStore := cart.NewStore(db, zl.Named("cart"))
	queueStore := queue.NewStore(db, hub, zl.Named("queue"))

	sync := syncer.New(queueStore, client.ProductsURL(), hub, zl.Named("syncer"), syncer.Options{
		StartupDelay:  cfg.SyncStartupDelay,
		ProbeInterval: cfg.ProbeInterval,
		OnSynced:      hub.NotifyRefresh,
	})

	app := &handlers.Handlers{
		DB:     db,
		API:    client,
		Cart:   cartStore,
		Queue:  queueStore,
		Syncer: sync,
		Tokens: tokens,
		Hub:    hub,
		Config: cfg,
		Log:    zl.Named("handlers"),
	}

	// --- Background sync triggers (startup delay + connectivity edge) ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sync.Start(ctx)

	// --- Router ---
	router := routes.SetupRouter(app)

	zl.Info("Starting MyFirst storefront shell",
		zap.String("addr", cfg.Addr),
		zap.String("api", cfg.APIBase),
	)
	if err := router.Run(cfg.Addr); err != nil {
		zl.Fatal("Failed to start server", zap.Error(err))
	}
}
