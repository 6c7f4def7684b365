// Command market-intel serves the LinkSaudi market intelligence RAG
// pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linksaudi/market-intelligence/pkg/config"
	"github.com/linksaudi/market-intelligence/pkg/embeddings"
	"github.com/linksaudi/market-intelligence/pkg/generation"
	"github.com/linksaudi/market-intelligence/pkg/monitoring"
	"github.com/linksaudi/market-intelligence/pkg/pipeline"
	"github.com/linksaudi/market-intelligence/pkg/prompt"
	"github.com/linksaudi/market-intelligence/pkg/retrieval"
	"github.com/linksaudi/market-intelligence/pkg/server"
	"github.com/linksaudi/market-intelligence/pkg/sessions"
	"github.com/linksaudi/market-intelligence/pkg/types"
	"github.com/linksaudi/market-intelligence/pkg/vectorstore"
	"github.com/linksaudi/market-intelligence/pkg/websearch"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder := buildEmbedder(cfg, logger)
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	marketStore, err := buildStore(ctx, cfg, vectorstore.MarketCollection(), vectorstore.NewMockMarketStore(), logger)
	if err != nil {
		return err
	}
	defer marketStore.Close()

	legalStore, err := buildStore(ctx, cfg, vectorstore.LegalCollection(), vectorstore.NewMockLegalStore(), logger)
	if err != nil {
		return err
	}
	defer legalStore.Close()

	chatClient := buildChatClient(cfg, logger)

	marketEngine := pipeline.NewEngine(
		marketProfile(cfg),
		retrieval.NewRetriever(marketStore, embedder, retrieval.MarketMockDocument),
		prompt.NewMarketFormatter(cfg.Pipeline.TruncateChars),
		generation.NewGenerator(chatClient, 0.3, 1000, generation.NewMarketFallbackTemplate()),
		pipeline.WithMetrics(metrics),
		pipeline.WithHistorySize(cfg.Pipeline.HistorySize),
	)

	legalEngine := pipeline.NewEngine(
		legalProfile(cfg),
		retrieval.NewRetriever(legalStore, embedder, retrieval.LegalMockDocument),
		prompt.NewLegalFormatter(cfg.Pipeline.TruncateChars),
		generation.NewGenerator(chatClient, 0.2, 1500, generation.NewLegalFallbackTemplate()),
		pipeline.WithMetrics(metrics),
		pipeline.WithHistorySize(cfg.Pipeline.HistorySize),
	)

	sessionManager, err := sessions.NewManager(legalEngine, cfg.Sessions.Directory)
	if err != nil {
		return err
	}

	var webSearch *websearch.Client
	if cfg.WebSearch.Enabled {
		webSearch = websearch.NewClient(websearch.Config{
			RequestTimeout: cfg.WebSearch.RequestTimeout,
			MaxResults:     cfg.WebSearch.MaxResults,
		})
	}

	srv := server.New(marketEngine, legalEngine, sessionManager, webSearch)
	httpServer := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTP.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// buildEmbedder assembles the hybrid embedding engine. Without an OpenAI
// key the engine runs on the local provider alone.
func buildEmbedder(cfg *config.Config, logger *slog.Logger) *embeddings.Engine {
	var opts []embeddings.EngineOption
	opts = append(opts, embeddings.WithCache(
		embeddings.NewLRUCache(cfg.Embeddings.CacheSize, cfg.Embeddings.CacheTTL)))

	if cfg.Embeddings.EnableLocal {
		opts = append(opts, embeddings.WithFallback(
			embeddings.NewLocalProvider(cfg.Embeddings.Dimensions)))
	}

	if cfg.Embeddings.RedisEnabled {
		opts = append(opts, embeddings.WithL2Cache(embeddings.NewRedisCache(
			cfg.Embeddings.RedisAddr,
			cfg.Embeddings.RedisPassword,
			cfg.Embeddings.RedisDB,
			cfg.Embeddings.CacheTTL,
		)))
	}

	var primary embeddings.Provider
	if cfg.Embeddings.OpenAIAPIKey != "" {
		provider, err := embeddings.NewOpenAIProvider(embeddings.OpenAIProviderConfig{
			APIKey:         cfg.Embeddings.OpenAIAPIKey,
			Endpoint:       cfg.Embeddings.APIEndpoint,
			Model:          cfg.Embeddings.Model,
			Dimensions:     cfg.Embeddings.Dimensions,
			RequestTimeout: cfg.Embeddings.RequestTimeout,
			RateLimit:      cfg.Embeddings.RateLimit,
		})
		if err != nil {
			logger.Warn("OpenAI embedding provider unavailable", "error", err)
		} else {
			primary = provider
		}
	} else {
		logger.Warn("no OpenAI API key configured, embeddings use the local provider only")
	}

	return embeddings.NewEngine(primary, opts...)
}

// buildStore connects the Weaviate collection, or selects the mock store
// when configured to, or when the connection cannot be established.
func buildStore(ctx context.Context, cfg *config.Config, collection vectorstore.Collection, mock vectorstore.Store, logger *slog.Logger) (vectorstore.Store, error) {
	if cfg.Weaviate.UseMock {
		logger.Info("mock document store selected by configuration", "class", collection.ClassName)
		return mock, nil
	}

	store, err := vectorstore.NewWeaviateStore(ctx, vectorstore.WeaviateConfig{
		URL:            cfg.Weaviate.URL,
		APIKey:         cfg.Weaviate.APIKey,
		Headers:        cfg.Weaviate.Headers,
		Timeout:        cfg.Weaviate.Timeout,
		ConnectRetries: cfg.Weaviate.ConnectRetries,
		RetryBaseDelay: cfg.Weaviate.RetryBaseDelay,
	}, collection)
	if err != nil {
		if types.KindOf(err) == types.ErrKindTransientConnection {
			logger.Warn("weaviate unreachable, serving mock data", "class", collection.ClassName, "error", err)
			return mock, nil
		}
		return nil, err
	}

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Warn("schema initialization failed", "class", collection.ClassName, "error", err)
	}
	return store, nil
}

func buildChatClient(cfg *config.Config, logger *slog.Logger) generation.ChatClient {
	if cfg.Generation.OpenAIAPIKey == "" {
		logger.Warn("no OpenAI API key configured, responses use the template fallback")
		return nil
	}
	client, err := generation.NewOpenAIChatClient(generation.OpenAIChatConfig{
		APIKey:         cfg.Generation.OpenAIAPIKey,
		Endpoint:       cfg.Generation.APIEndpoint,
		Model:          cfg.Generation.Model,
		RequestTimeout: cfg.Generation.RequestTimeout,
	})
	if err != nil {
		logger.Warn("chat client unavailable", "error", err)
		return nil
	}
	return client
}

func marketProfile(cfg *config.Config) pipeline.Profile {
	profile := pipeline.MarketProfile()
	profile.ContextLimit = cfg.Pipeline.MarketContextLimit
	return profile
}

func legalProfile(cfg *config.Config) pipeline.Profile {
	profile := pipeline.LegalProfile()
	profile.ContextLimit = cfg.Pipeline.LegalContextLimit
	return profile
}
