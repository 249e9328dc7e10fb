// Command server runs the bo:matic API: speech-to-text job management,
// transcript analysis, and the combined audio-to-findings pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bomatic/bomatic-server/internal/analysis"
	"github.com/bomatic/bomatic-server/internal/analysis/gemini"
	"github.com/bomatic/bomatic-server/internal/analysis/openai"
	"github.com/bomatic/bomatic-server/internal/api"
	"github.com/bomatic/bomatic-server/internal/auth"
	"github.com/bomatic/bomatic-server/internal/auth/jwt"
	"github.com/bomatic/bomatic-server/internal/auth/password"
	"github.com/bomatic/bomatic-server/internal/config"
	"github.com/bomatic/bomatic-server/internal/database"
	"github.com/bomatic/bomatic-server/internal/logger"
	"github.com/bomatic/bomatic-server/internal/mail"
	"github.com/bomatic/bomatic-server/internal/pipeline"
	"github.com/bomatic/bomatic-server/internal/server"
	"github.com/bomatic/bomatic-server/internal/stt"
	"github.com/bomatic/bomatic-server/internal/stt/daglo"
	"github.com/bomatic/bomatic-server/internal/user"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "path to config.yml")
	envFile := flag.String("env", "", "path to .env file")
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		return err
	}

	logger.Init(cfg.Log, cfg.App.Name)
	log := logger.GetGlobalLogger()
	log.Info("Starting service", logger.Fields(
		"environment", cfg.App.Environment,
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	userStore := user.NewStore(db)
	if err := userStore.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tokens, err := jwt.NewService(cfg.Auth)
	if err != nil {
		return err
	}
	mailer := mail.NewMailer(cfg.Mail, log)
	authSvc := auth.NewService(userStore, tokens, password.NewBcryptHasher(), mailer, log)

	sttProvider := daglo.NewProvider(cfg.STT.Daglo, log)
	pollCfg := stt.PollConfig{
		Interval: cfg.STT.PollInterval,
		Timeout:  cfg.STT.PollTimeout,
	}
	jobStore := stt.NewStore()
	tracker := stt.NewTracker(sttProvider, jobStore, pollCfg, log)

	analysisProvider, err := buildAnalysisProvider(cfg)
	if err != nil {
		return err
	}
	analyzer := analysis.NewAnalyzer(analysisProvider, log)
	orchestrator := pipeline.NewOrchestrator(sttProvider, analyzer, pollCfg, log)

	srv := server.New(cfg.Server, log)
	api.RegisterRoutes(srv, api.Handlers{
		Health:      api.NewHealthHandler(db, sttProvider, cfg.App.Name),
		Auth:        api.NewAuthHandler(authSvc),
		STT:         api.NewSTTHandler(sttProvider, jobStore, tracker, log),
		Analysis:    api.NewAnalysisHandler(analyzer),
		Pipeline:    api.NewPipelineHandler(orchestrator),
		TokenParser: authSvc,
	}, cfg.Server.AllowedOrigins, log)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Shutdown complete")
	return nil
}

func buildAnalysisProvider(cfg *config.Config) (analysis.Provider, error) {
	switch cfg.Analysis.Provider {
	case "gemini":
		return gemini.NewProvider(cfg.Analysis.Gemini), nil
	case "openai":
		return openai.NewProvider(cfg.Analysis.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Analysis.Provider)
	}
}
