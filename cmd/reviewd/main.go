package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/moltbook/observatory/src/ai"
	"github.com/moltbook/observatory/src/config"
	"github.com/moltbook/observatory/src/council"
	"github.com/moltbook/observatory/src/data"
	"github.com/moltbook/observatory/src/publication"
	"github.com/moltbook/observatory/src/webserver"
)

func buildTargets(cfg config.Config, logger *zap.Logger) []publication.Target {
	targets := []publication.Target{
		publication.NewWebsiteTarget(cfg.WebsiteDataDir),
	}

	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			logger.Fatal("discord session", zap.Error(err))
		}
		targets = append(targets, publication.NewDiscordTarget(session, cfg.DiscordChannelID))
	} else {
		logger.Info("discord target disabled, token or channel not set")
	}

	if cfg.MoltbookURL != "" {
		targets = append(targets, publication.NewMoltbookTarget(cfg.MoltbookURL, cfg.MoltbookAPIKey))
	}

	return targets
}

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := data.Migrate(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	store := data.NewMySQL(db)

	rdb := data.MustRedis(cfg.RedisURL)
	safetyCache := data.NewSafetyCache(rdb, 15*time.Minute)

	aiClient := ai.NewClient(ai.FactoryConfig{
		Provider:  cfg.AIProvider,
		OpenAIKey: cfg.OpenAIKey,
		ClaudeKey: cfg.ClaudeKey,
		Model:     cfg.AIModel,
	})
	reviewer := council.NewReviewer(aiClient, time.Duration(cfg.ReviewTimeout)*time.Second, logger)
	panel := council.New(reviewer, store, safetyCache, logger)

	coordinator := publication.NewCoordinator(store, panel, buildTargets(cfg, logger), logger)

	router := webserver.New(cfg, coordinator, panel, store)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()
	logger.Info("observatory review pipeline listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
