package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"faceguard/internal/analyzer"
	"faceguard/internal/auth"
	"faceguard/internal/config"
	"faceguard/internal/detectpool"
	"faceguard/internal/faceengine"
	"faceguard/internal/health"
	"faceguard/internal/httpapi"
	"faceguard/internal/middleware"
	"faceguard/internal/pixelate"
	"faceguard/internal/store"
	"faceguard/internal/workerpool"
	"faceguard/internal/ws"
)

func main() {
	logger := log.New(os.Stderr, "[faceguard] ", log.Ltime)

	cfg := config.Load()

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = os.TempDir() + "/faceguard"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		logger.Fatalf("create upload dir %s: %v", uploadDir, err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()
	logger.Printf("store initialized at %s", cfg.DatabasePath)

	poolSize := cfg.DetectorPoolSize
	if poolSize <= 0 {
		poolSize = detectpool.DefaultSize()
	}
	detectors := make([]detectpool.Detector, poolSize)
	for i := range detectors {
		detectors[i] = detectpool.NewHTTPDetector(cfg.DetectorEndpoint)
	}
	pool := detectpool.New(detectors)
	logger.Printf("detector pool size %d, endpoint %s", poolSize, cfg.DetectorEndpoint)

	engine := faceengine.New(pool)
	workers := workerpool.New(poolSize)
	an := analyzer.New(engine, workers, poolSize, cfg.FFmpegPath, cfg.FFprobePath)
	exporter := pixelate.New(workers, poolSize, cfg.FFmpegPath, cfg.FFprobePath)

	tokens := auth.NewExportTokenIssuer(cfg.JWTSecret, cfg.ExportTokenTTL)
	if cfg.JWTSecret == "" {
		logger.Printf("JWT_SECRET not set: generated a random export-token secret (dev mode only)")
	}

	verifier := auth.NewAPIKeyVerifier(cfg.APIKey)
	if verifier.Enabled() {
		logger.Printf("API key authentication enabled")
	} else {
		logger.Printf("API key authentication disabled (set API_KEY to enable)")
	}

	healthProbes := make([]health.Prober, len(detectors))
	for i, d := range detectors {
		healthProbes[i] = d.(*detectpool.HTTPDetector)
	}
	checker := health.NewChecker(cfg.DetectorEndpoint, healthProbes...)

	sweeper := store.NewSweeper(st)

	api := httpapi.New(st, an, engine, exporter, tokens, checker, uploadDir, cfg.FFmpegPath, cfg.FFprobePath, logger)
	wsHandler := ws.NewHandler(st, an)

	mux := api.Routes()
	mux.Handle("GET /ws/detections/{videoId}", wsHandler)

	handler := middleware.Chain(mux, verifier, cfg.AllowedOrigins, cfg.MaxUploadBytes, logger)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler, ReadHeaderTimeout: 60 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	errc := make(chan error, 1)
	go func() {
		logger.Printf("HTTP server listening on %s", cfg.ListenAddr)
		errc <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		logger.Printf("server error: %v", err)
	case s := <-sig:
		logger.Printf("received signal %v, shutting down", s)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("failed to shutdown http server: %v", err)
	}

	wg.Wait()
	logger.Println("exited")
}
