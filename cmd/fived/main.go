package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nidhogg/fived/internal/api"
	"github.com/nidhogg/fived/internal/config"
	"github.com/nidhogg/fived/internal/embedding"
	"github.com/nidhogg/fived/internal/events"
	"github.com/nidhogg/fived/internal/graph"
	"github.com/nidhogg/fived/internal/knowledge"
	"github.com/nidhogg/fived/internal/linker"
	"github.com/nidhogg/fived/internal/linking"
	"github.com/nidhogg/fived/internal/notify"
	"github.com/nidhogg/fived/internal/session"
	"github.com/nidhogg/fived/internal/store"
	"github.com/nidhogg/fived/internal/vectorstore"
)

// linkEvents is both ends of the link event stream.
type linkEvents interface {
	events.Publisher
	events.Subscriber
}

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/fived.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	if cfg.Server.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(cfg.Server.LogLevel)
		if err != nil {
			logger.Warn("invalid log level, keeping debug", zap.String("level", cfg.Server.LogLevel))
		} else {
			zc := zap.NewDevelopmentConfig()
			zc.Level = zap.NewAtomicLevelAt(lvl)
			if l, err := zc.Build(); err == nil {
				logger = l
			}
		}
	}
	logger.Info("Starting fived...", zap.String("config", cfgPath))

	ctx := context.Background()

	// Entity store: PostgreSQL when configured, memory otherwise
	var entities store.Entities = store.NewMemory()
	var pgStore *store.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := store.New(ctx, cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running with in-memory entities", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(ctx, cfg.Database.Postgres.Migrations); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			pgStore = ps
			entities = ps
		}
	}

	// Link graph
	var linkGraph *graph.LinkGraph
	if cfg.Database.Neo4j.URI != "" {
		g, gErr := graph.New(ctx, cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
		if gErr != nil {
			logger.Warn("Neo4j unavailable, running without link graph", zap.Error(gErr))
		} else if sErr := g.EnsureSchema(ctx); sErr != nil {
			logger.Warn("Neo4j schema setup failed, running without link graph", zap.Error(sErr))
			g.Close(ctx)
		} else {
			linkGraph = g
		}
	}

	// Sessions and events: Redis when reachable, in-process otherwise
	ttl := time.Duration(cfg.Session.TTL)
	var sessions session.Store = session.NewMemory(ttl)
	var bus linkEvents = events.NewLocal()
	var redisSessions *session.Redis
	var redisBus *events.Bus
	if cfg.Database.Redis.URL != "" {
		rs, rErr := session.NewRedis(ctx, cfg.Database.Redis.URL, ttl, logger)
		if rErr != nil {
			logger.Warn("Redis unavailable, keeping sessions in memory", zap.Error(rErr))
		} else {
			redisSessions = rs
			sessions = rs
		}
		rb, bErr := events.NewBus(ctx, cfg.Database.Redis.URL, logger)
		if bErr != nil {
			logger.Warn("Redis unavailable, using in-process link events", zap.Error(bErr))
		} else {
			redisBus = rb
			bus = rb
		}
	}

	// Knowledge index with optional embeddings and Qdrant
	kopts := knowledge.Options{
		ChunkSize:  cfg.Knowledge.ChunkSize,
		Collection: cfg.Knowledge.Collection,
	}
	var qdrant *vectorstore.Client
	if cfg.Embedding.Endpoint != "" {
		emb, eErr := embedding.New(cfg.Embedding)
		if eErr != nil {
			logger.Warn("embedding provider unavailable, keyword search only", zap.Error(eErr))
		} else {
			kopts.Embedder = emb
			if cfg.Database.Qdrant.Host != "" {
				qc, qErr := vectorstore.NewClient(cfg.Database.Qdrant)
				if qErr != nil {
					logger.Warn("Qdrant unavailable, keeping vectors in memory", zap.Error(qErr))
				} else {
					qdrant = qc
					kopts.Vectors = qc
				}
			}
		}
	}
	index := knowledge.NewIndex(kopts, logger)
	if path := cfg.Knowledge.IndexPath; path != "" {
		if lErr := index.Load(ctx, path); lErr != nil && !errors.Is(lErr, fs.ErrNotExist) {
			logger.Warn("failed to load knowledge index", zap.String("path", path), zap.Error(lErr))
		} else if lErr == nil {
			logger.Info("Knowledge index loaded", zap.Int("documents", len(index.Documents())))
		}
	}

	// Linking service
	deps := linking.Deps{
		Store:    entities,
		Engine:   linker.NewEngine(cfg.Linker.ScoringWeights()),
		Sessions: sessions,
		Events:   bus,
	}
	if linkGraph != nil {
		deps.Graph = linkGraph
	}
	svc := linking.New(deps, logger)

	// Notifications
	broadcaster := notify.NewBroadcaster(logger)
	if cfg.Notify.Slack.Enabled && cfg.Notify.Slack.WebhookURL != "" {
		broadcaster.Register(notify.NewSlack(cfg.Notify.Slack.WebhookURL, cfg.Notify.Slack.Channel, logger))
	}
	if cfg.Notify.Discord.Enabled && cfg.Notify.Discord.BotToken != "" {
		d, dErr := notify.NewDiscord(cfg.Notify.Discord.BotToken, cfg.Notify.Discord.ChannelID, logger)
		if dErr != nil {
			logger.Warn("Discord notifier unavailable", zap.Error(dErr))
		} else {
			broadcaster.Register(d)
		}
	}
	relayCtx, stopRelay := context.WithCancel(ctx)
	if len(broadcaster.Platforms()) > 0 {
		go notify.NewRelay(broadcaster, false, logger).Run(relayCtx, bus)
		logger.Info("Link notifications enabled", zap.Strings("platforms", broadcaster.Platforms()))
	}

	handler := api.NewHandler(api.Deps{
		Store:       entities,
		Linking:     svc,
		Knowledge:   index,
		Broadcaster: broadcaster,
		Defaults:    cfg.Linker.SuggestOptions(),
	}, logger)

	port := fmt.Sprintf("%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("fived listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down fived...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	stopRelay()

	if path := cfg.Knowledge.IndexPath; path != "" {
		if err := index.Save(path); err != nil {
			logger.Warn("failed to save knowledge index", zap.String("path", path), zap.Error(err))
		}
	}
	if qdrant != nil {
		qdrant.Close()
	}
	if redisBus != nil {
		redisBus.Close()
	}
	if redisSessions != nil {
		redisSessions.Close()
	}
	if linkGraph != nil {
		linkGraph.Close(shutdownCtx)
	}
	if pgStore != nil {
		pgStore.Close()
	}
}
