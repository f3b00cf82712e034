package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"chatpdf/internal/chat"
	"chatpdf/internal/config"
	"chatpdf/internal/llm"
	"chatpdf/internal/ocr"
	"chatpdf/internal/pdf"
	"chatpdf/internal/quality"
)

func main() {
	_ = godotenv.Load()

	model := flag.String("model", "", "completion model to use (overrides CHAT_MODEL)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--model m] <file.pdf>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	pdfPath := flag.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadConfig()
	if *model != "" {
		cfg.LLM.Model = *model
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if _, err := os.Stat(pdfPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: file %s not found\n", pdfPath)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scorer := quality.NewScorer(cfg.OCR.WordlistPath)
	extractor := pdf.NewExtractor(pdf.Config{
		UseOCR:     cfg.OCR.Enabled,
		Threshold:  cfg.OCR.Threshold,
		Resolution: cfg.OCR.Resolution,
		Language:   cfg.OCR.Language,
	}, scorer, ocr.NewTesseract(), logger)
	extractor.Progress = func(page, total int) {
		fmt.Printf("Processing page %d/%d\n", page, total)
	}

	text, err := extractor.ExtractText(ctx, pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	client := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	session := chat.NewSession(client, cfg.Chat.MaxHistory)
	session.Seed(text)
	chat.RunInteractive(ctx, session, os.Stdin, os.Stdout)
}
