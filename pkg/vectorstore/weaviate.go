package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// WeaviateConfig holds connection settings for the Weaviate store.
type WeaviateConfig struct {
	URL            string
	APIKey         string
	Headers        map[string]string
	Timeout        time.Duration
	ConnectRetries int
	RetryBaseDelay time.Duration
}

// WeaviateStore wraps the Weaviate Go client for one document collection.
type WeaviateStore struct {
	client     *weaviate.Client
	collection Collection
	config     WeaviateConfig
	logger     *slog.Logger
}

// NewWeaviateStore connects to Weaviate and verifies readiness with
// bounded exponential backoff before returning. A connection that still
// fails after the retries surfaces as a transient error so the caller can
// fall back to mock data instead of aborting.
func NewWeaviateStore(ctx context.Context, cfg WeaviateConfig, collection Collection) (*WeaviateStore, error) {
	if cfg.URL == "" {
		return nil, types.NewPipelineError(types.ErrKindConfiguration, "vectorstore.NewWeaviateStore",
			fmt.Errorf("weaviate URL is required"))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ConnectRetries <= 0 {
		cfg.ConnectRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}

	host, scheme, err := splitURL(cfg.URL)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrKindConfiguration, "vectorstore.NewWeaviateStore", err)
	}

	clientConfig := weaviate.Config{
		Host:    host,
		Scheme:  scheme,
		Headers: cfg.Headers,
	}
	if cfg.APIKey != "" {
		clientConfig.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(clientConfig)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrKindConfiguration, "vectorstore.NewWeaviateStore",
			fmt.Errorf("creating weaviate client: %w", err))
	}

	ws := &WeaviateStore{
		client:     client,
		collection: collection,
		config:     cfg,
		logger:     slog.Default().With("component", "weaviate-store", "class", collection.ClassName),
	}

	if err := ws.connectWithRetry(ctx); err != nil {
		return nil, err
	}

	ws.logger.Info("connected to weaviate", "host", host)
	return ws, nil
}

// connectWithRetry verifies readiness, doubling the delay after each
// failed attempt.
func (ws *WeaviateStore) connectWithRetry(ctx context.Context) error {
	delay := ws.config.RetryBaseDelay
	var lastErr error

	for attempt := 1; attempt <= ws.config.ConnectRetries; attempt++ {
		checkCtx, cancel := context.WithTimeout(ctx, ws.config.Timeout)
		ready, err := ws.client.Misc().ReadyChecker().Do(checkCtx)
		cancel()

		if err == nil && ready {
			return nil
		}
		if err == nil {
			err = fmt.Errorf("weaviate reported not ready")
		}
		lastErr = err

		if attempt < ws.config.ConnectRetries {
			ws.logger.Warn("weaviate connection attempt failed, retrying",
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return types.NewPipelineError(types.ErrKindTransientConnection, "vectorstore.connect", ctx.Err())
			}
			delay *= 2
		}
	}

	return types.NewPipelineError(types.ErrKindTransientConnection, "vectorstore.connect",
		fmt.Errorf("unable to connect to weaviate after %d attempts: %w", ws.config.ConnectRetries, lastErr))
}

// Ready reports whether the store is reachable right now.
func (ws *WeaviateStore) Ready(ctx context.Context) error {
	ready, err := ws.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return types.NewPipelineError(types.ErrKindTransientConnection, "vectorstore.Ready", err)
	}
	if !ready {
		return types.NewPipelineError(types.ErrKindTransientConnection, "vectorstore.Ready",
			fmt.Errorf("weaviate reported not ready"))
	}
	return nil
}

// SemanticSearch returns the limit nearest documents to the query vector.
func (ws *WeaviateStore) SemanticSearch(ctx context.Context, vector []float32, limit int, sf types.SearchFilters) ([]types.Document, error) {
	if limit <= 0 {
		limit = 10
	}

	nearVector := ws.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	query := ws.client.GraphQL().Get().
		WithClassName(ws.collection.ClassName).
		WithFields(ws.fields()...).
		WithNearVector(nearVector).
		WithLimit(limit)

	if where := buildWhere(sf); where != nil {
		query = query.WithWhere(where)
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrKindTransientConnection, "vectorstore.SemanticSearch", err)
	}
	return ws.parseResults(result)
}

// KeywordSearch returns limit documents ranked by BM25 relevance. Used
// when no embedding is available or semantic search matched nothing.
func (ws *WeaviateStore) KeywordSearch(ctx context.Context, queryText string, limit int, sf types.SearchFilters) ([]types.Document, error) {
	if limit <= 0 {
		limit = 10
	}

	bm25 := ws.client.GraphQL().Bm25ArgBuilder().WithQuery(queryText)
	query := ws.client.GraphQL().Get().
		WithClassName(ws.collection.ClassName).
		WithFields(ws.fields()...).
		WithBM25(bm25).
		WithLimit(limit)

	if where := buildWhere(sf); where != nil {
		query = query.WithWhere(where)
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrKindTransientConnection, "vectorstore.KeywordSearch", err)
	}
	return ws.parseResults(result)
}

// Close releases client resources. The Weaviate Go client holds no
// persistent connection, so this only logs.
func (ws *WeaviateStore) Close() error {
	ws.logger.Info("closing weaviate store")
	return nil
}

func (ws *WeaviateStore) fields() []graphql.Field {
	fields := make([]graphql.Field, 0, len(ws.collection.Properties))
	for _, prop := range ws.collection.Properties {
		fields = append(fields, graphql.Field{Name: prop})
	}
	return fields
}

// buildWhere converts the canonical filters into a Weaviate where clause.
// Multiple filters combine with And.
func buildWhere(sf types.SearchFilters) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder

	if sf.DocumentType != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"documentType"}).
			WithOperator(filters.Equal).
			WithValueText(sf.DocumentType))
	}
	if sf.Jurisdiction != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"jurisdiction"}).
			WithOperator(filters.Equal).
			WithValueText(sf.Jurisdiction))
	}
	if sf.PracticeArea != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"practiceArea"}).
			WithOperator(filters.Equal).
			WithValueText(sf.PracticeArea))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

// parseResults maps the GraphQL response onto canonical documents,
// preserving the store's relevance order.
func (ws *WeaviateStore) parseResults(result *models.GraphQLResponse) ([]types.Document, error) {
	if result == nil {
		return nil, types.NewPipelineError(types.ErrKindTransientConnection, "vectorstore.parseResults",
			fmt.Errorf("weaviate returned an empty response"))
	}
	if len(result.Errors) > 0 {
		messages := make([]string, 0, len(result.Errors))
		for _, gqlErr := range result.Errors {
			if gqlErr != nil {
				messages = append(messages, gqlErr.Message)
			}
		}
		return nil, types.NewPipelineError(types.ErrKindTransientConnection, "vectorstore.parseResults",
			fmt.Errorf("weaviate query errors: %s", strings.Join(messages, "; ")))
	}

	getData, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	items, ok := getData[ws.collection.ClassName].([]interface{})
	if !ok {
		return nil, nil
	}

	documents := make([]types.Document, 0, len(items))
	for _, item := range items {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		documents = append(documents, ws.collection.Parse(itemMap))
	}
	return documents, nil
}

func splitURL(raw string) (host, scheme string, err error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing weaviate URL %q: %w", raw, err)
	}
	if parsed.Host == "" {
		return "", "", fmt.Errorf("weaviate URL %q has no host", raw)
	}
	return parsed.Host, parsed.Scheme, nil
}
