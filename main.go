package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wagneradl/knowledge-mcp/internal/config"
	"github.com/wagneradl/knowledge-mcp/internal/conflict"
	"github.com/wagneradl/knowledge-mcp/internal/ingest"
	"github.com/wagneradl/knowledge-mcp/internal/notify"
	"github.com/wagneradl/knowledge-mcp/internal/policy"
	"github.com/wagneradl/knowledge-mcp/internal/retrieval"
	"github.com/wagneradl/knowledge-mcp/internal/server"
	"github.com/wagneradl/knowledge-mcp/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	transportFlag := flag.String("transport", "", "Transport mode: stdio or http (overrides config)")
	portFlag := flag.String("port", "", "HTTP port (overrides config, only used with --transport http)")
	dataDirFlag := flag.String("data-dir", "", "Directory for the SQLite database (overrides config)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if *transportFlag != "" {
		cfg.Transport = *transportFlag
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
	}

	store, err := storage.Open(filepath.Join(cfg.DataDir, "knowledge.db"))
	if err != nil {
		logger.Fatal("failed to open knowledge store", zap.Error(err))
	}
	defer store.Close()

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + strconv.Itoa(cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-memory collaborators", zap.Error(err))
			rdb = nil
		}
	}

	policyEngine := policy.New(cfg.Policy.MinConfidence)
	conflictCache := conflict.NewCache(rdb)

	embedder := retrieval.NewEmbeddingClient(cfg.Embedding.Endpoint, cfg.Embedding.Model, cfg.Embedding.APIKey, logger)
	vectorIndex := retrieval.NewVectorIndex(rdb)
	weights := retrieval.Weights{
		Lexical:  cfg.Retrieval.LexicalWeight,
		Semantic: cfg.Retrieval.SemanticWeight,
		Graph:    cfg.Retrieval.GraphWeight,
	}
	retriever := retrieval.New(store, embedder, vectorIndex, weights)

	notifier := notify.NewLogNotifier(logger)
	changeNotifier := &uriChangeNotifier{notifier: notifier}
	scheduler := ingest.NewScheduler(store, changeNotifier, logger, time.Duration(cfg.Ingest.BatchIntervalSecs)*time.Second)

	srv := server.New(server.Deps{
		Store:     store,
		Policy:    policyEngine,
		Conflicts: conflictCache,
		Retriever: retriever,
		Scheduler: scheduler,
		Notifier:  notifier,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cfg.Transport {
	case "", "stdio":
		logger.Info("knowledge-mcp starting", zap.String("transport", "stdio"))
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case "http":
		addr := cfg.BindAddr + ":" + cfg.Port
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		logger.Info("knowledge-mcp listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, handler); err != nil {
			logger.Fatal("http server error", zap.Error(err))
		}
	default:
		logger.Fatal("unknown transport", zap.String("transport", cfg.Transport))
	}
}

// uriChangeNotifier adapts the ingestion scheduler's per-batch callback to
// the resource-URI shaped notify.Notifier the rest of the server uses.
type uriChangeNotifier struct {
	notifier notify.Notifier
}

func (u *uriChangeNotifier) NotifyChange(taskID string, entriesCreated int) {
	if entriesCreated > 0 {
		u.notifier.Notify("ingestion_tasks/" + taskID)
	}
}
