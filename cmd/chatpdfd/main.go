package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"chatpdf/internal/chat"
	"chatpdf/internal/config"
	"chatpdf/internal/llm"
	"chatpdf/internal/ocr"
	"chatpdf/internal/pdf"
	"chatpdf/internal/quality"
	"chatpdf/internal/server"
	"chatpdf/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0o755); err != nil {
		logger.Error("create data directory", "error", err)
		os.Exit(1)
	}
	st, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		logger.Error("open session store", "path", cfg.Server.DBPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("close session store", "error", cerr)
		}
	}()

	scorer := quality.NewScorer(cfg.OCR.WordlistPath)
	extractor := pdf.NewExtractor(pdf.Config{
		UseOCR:     cfg.OCR.Enabled,
		Threshold:  cfg.OCR.Threshold,
		Resolution: cfg.OCR.Resolution,
		Language:   cfg.OCR.Language,
	}, scorer, ocr.NewTesseract(), logger)

	client := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	newSession := func() *chat.Session {
		return chat.NewSession(client, cfg.Chat.MaxHistory)
	}

	srv := server.New(cfg.Server, st, extractor, newSession, logger)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("serving", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	srv.Cleanup()
}
