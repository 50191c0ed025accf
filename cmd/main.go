package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gwgplus/nikkle/config"
	"github.com/gwgplus/nikkle/internal/api"
	"github.com/gwgplus/nikkle/internal/container"
	"github.com/gwgplus/nikkle/internal/domain/port"
	"github.com/gwgplus/nikkle/internal/infrastructure/archive"
	"github.com/gwgplus/nikkle/internal/infrastructure/ccd"
	"github.com/gwgplus/nikkle/internal/infrastructure/ocr"
	"github.com/gwgplus/nikkle/internal/infrastructure/screen"
	"github.com/gwgplus/nikkle/internal/infrastructure/storage"
	"github.com/gwgplus/nikkle/internal/infrastructure/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Хранилище: файл базы либо работа в памяти для стендов
	var (
		accounts port.AccountStore
		logs     port.LogStore
	)
	if cfg.DBPath != "" {
		store, err := storage.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()
		accounts, logs = store, store
		log.Printf("Using sqlite database: %s", cfg.DBPath)
	} else {
		store := storage.NewMemoryStore()
		accounts, logs = store, store
		log.Println("DB_PATH is empty, using in-memory store")
	}

	dialer := ccd.NewDialer(ccd.Config{
		Host:           cfg.CCDHost,
		Port:           cfg.CCDPort,
		ConnectTimeout: cfg.ConnectTimeout,
		StageTimeout:   cfg.StageTimeout,
		SettleDelay:    cfg.SettleDelay,
	})
	watcher := watch.New(cfg.ImageExts...)
	recognizer := ocr.NewClient(cfg.OCRServiceURL, cfg.OCRTimeout)
	archiver := archive.New(cfg.TargetDir, cfg.BackupDir, screen.NewGrabber())

	appContainer := container.New(
		dialer, watcher, recognizer, archiver, accounts, logs,
		cfg.WatchDir, cfg.ImageTimeout, cfg.OCRTimeout)

	server := api.NewServer(appContainer.InspectionService, appContainer.AuthService, api.Display{
		Scale:   cfg.ImageScale,
		OffsetX: cfg.ImageOffsetX,
		OffsetY: cfg.ImageOffsetY,
	})
	appContainer.InspectionService.SetNotifier(server)

	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.Handler(),
	}

	go func() {
		log.Printf("Operator panel is listening on :%s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}
