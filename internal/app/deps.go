package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"promptshift/internal/cache"
	"promptshift/internal/config"
	"promptshift/internal/embeddings"
	"promptshift/internal/llm"
	"promptshift/internal/logger"
	"promptshift/internal/perturb"
	"promptshift/internal/queue"
	"promptshift/internal/store"
)

// CLIDeps is what the quantify CLI needs: just the quantifier.
type CLIDeps struct {
	Config     config.Config
	Log        *slog.Logger
	Quantifier perturb.Runner
}

// GatewayDeps serves the HTTP API: synchronous quantification plus stored
// experiments dispatched to workers.
type GatewayDeps struct {
	Config     config.Config
	Log        *slog.Logger
	Store      store.Store
	Queue      queue.Queue
	Quantifier perturb.Runner
}

// WorkerDeps executes queued experiment runs.
type WorkerDeps struct {
	Config     config.Config
	Log        *slog.Logger
	Store      store.Store
	Queue      queue.Queue
	Quantifier perturb.Runner
}

// BuildCLI loads env, config, and the quantifier stack.
func BuildCLI() (CLIDeps, error) {
	cfg, log := loadBase()
	q, err := buildQuantifier(cfg, log)
	if err != nil {
		return CLIDeps{}, err
	}
	return CLIDeps{Config: cfg, Log: log, Quantifier: q}, nil
}

// BuildGateway loads env, config, and shared components for the HTTP API.
func BuildGateway() (GatewayDeps, error) {
	cfg, log := loadBase()
	st, err := buildStore(cfg, log)
	if err != nil {
		return GatewayDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return GatewayDeps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	quant, err := buildQuantifier(cfg, log)
	if err != nil {
		return GatewayDeps{}, err
	}
	return GatewayDeps{Config: cfg, Log: log, Store: st, Queue: q, Quantifier: quant}, nil
}

// BuildWorker loads env, config, and shared components for the run worker.
func BuildWorker() (WorkerDeps, error) {
	cfg, log := loadBase()
	st, err := buildStore(cfg, log)
	if err != nil {
		return WorkerDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return WorkerDeps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	quant, err := buildQuantifier(cfg, log)
	if err != nil {
		return WorkerDeps{}, err
	}
	return WorkerDeps{Config: cfg, Log: log, Store: st, Queue: q, Quantifier: quant}, nil
}

func loadBase() (config.Config, *slog.Logger) {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel)
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildQuantifier(cfg config.Config, log *slog.Logger) (*perturb.Quantifier, error) {
	if cfg.LLMProvider != "openai" {
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
	}
	sampler, err := llm.NewOpenAISampler(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI sampler: %w", err)
	}
	embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
	}
	log.Info("using OpenAI backends", "llm_model", cfg.LLMModel, "embedding_model", cfg.EmbeddingModel)

	groupCache := buildCache(cfg, log)

	return perturb.NewQuantifier(log, sampler, embedder, groupCache, perturb.QuantifierOptions{
		CacheNamespace: cfg.LLMModel + "/" + cfg.EmbeddingModel,
		CacheTTL:       time.Duration(cfg.CacheTTL) * time.Second,
	}), nil
}

func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		log.Info("embedding-group caching disabled")
		return cache.NewNoOpCache()
	}
	c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		// Caching is an optimization; fall back instead of refusing to start.
		log.Warn("redis unavailable, continuing without cache", "err", err)
		return cache.NewNoOpCache()
	}
	log.Info("using Redis embedding-group cache", "addr", cfg.RedisAddr)
	return c
}
