package main

import (
	"context"
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	botly "github.com/trishiras/botly-v3-rag"
	"github.com/trishiras/botly-v3-rag/config"
	"github.com/trishiras/botly-v3-rag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	docPath := flag.String("doc", "", "Attach a PDF on startup")
	logLevel := flag.String("log-level", "", "Log level: off, error, warn, info or debug")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	var level botly.LogLevel
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("invalid log level %q", cfg.LogLevel)
	}
	botly.SetLogLevel(level)

	bot, err := botly.New(
		botly.WithConfig(botConfig(cfg)),
	)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	session, err := botly.NewSession(bot, cfg.DocumentDir)
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}

	if *docPath != "" {
		if err := session.AttachFile(context.Background(), *docPath); err != nil {
			log.Fatalf("failed to attach %s: %v", *docPath, err)
		}
	}

	p := tea.NewProgram(tui.New(session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}

func botConfig(cfg *config.Config) botly.Config {
	bc := botly.DefaultConfig()
	bc.Model.Model = cfg.Model
	bc.Model.BaseURL = cfg.BaseURL
	bc.Model.Temperature = cfg.Temperature
	bc.Model.TopP = cfg.TopP
	bc.Model.TopK = cfg.TopK
	bc.Model.NumPredict = cfg.NumPredict
	bc.Model.KeepAlive = cfg.KeepAlive
	bc.Model.Timeout = cfg.Timeout
	bc.Model.Cache = cfg.Cache
	bc.Model.Verbose = cfg.Verbose
	bc.EmbeddingProvider = cfg.EmbeddingProvider
	bc.EmbeddingModel = cfg.EmbeddingModel
	bc.EmbeddingBaseURL = cfg.EmbeddingBaseURL
	bc.EmbeddingAPIKey = cfg.EmbeddingAPIKey
	bc.EmbeddingRate = cfg.EmbeddingRate
	bc.TopK = cfg.RetrievalTopK
	bc.ChunkStrategy = cfg.ChunkStrategy
	bc.BreakPercentile = cfg.BreakPercentile
	bc.ChunkSize = cfg.ChunkSize
	bc.ChunkOverlap = cfg.ChunkOverlap
	return bc
}
