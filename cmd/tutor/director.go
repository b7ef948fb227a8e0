// In file: cmd/tutor/director.go
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dileep-u-k/tutor-director/internal/agent"
	"github.com/dileep-u-k/tutor-director/internal/compose"
	"github.com/dileep-u-k/tutor-director/internal/llm"
	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/store"
	"github.com/dileep-u-k/tutor-director/internal/tools"
)

// director bundles everything one process needs to answer questions.
type director struct {
	cfg       *AppConfig
	modelID   string
	knowledge *store.KnowledgeStore
	metadata  *store.MetadataStore
	composer  *compose.Composer
	catalog   *tools.Catalog
	loop      *agent.Loop
	// profiler is nil when Redis is not configured.
	profiler *llm.Profiler
	closers  []func() error
}

// newDirector wires the tool catalog and orchestration loop around the given
// decision engine and generator.
func newDirector(
	cfg *AppConfig,
	knowledge *store.KnowledgeStore,
	metadata *store.MetadataStore,
	decider agent.DecisionClient,
	gen compose.Generator,
	opts ...compose.Option,
) (*director, error) {
	composer := compose.New(gen, opts...)
	catalog, err := tools.BuildCatalog(
		tools.NewKnowledgeTool(knowledge),
		tools.NewSelectFilesTool(metadata),
		tools.NewAnswerTool(composer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot build tool catalog: %v", ErrConfiguration, err)
	}
	log.Infof("✅ Tool catalog built with %d tools over %d documents.", catalog.Len(), metadata.Len())

	loop := agent.NewLoop(decider, tools.NewExecutor(catalog), agent.WithMaxIterations(cfg.MaxIterations))
	return &director{
		cfg:       cfg,
		modelID:   cfg.Model,
		knowledge: knowledge,
		metadata:  metadata,
		composer:  composer,
		catalog:   catalog,
		loop:      loop,
	}, nil
}

// bootstrap is the composition root: it loads the stores, connects to the
// model provider and, when configured, to Redis.
func bootstrap(ctx context.Context, cfg *AppConfig, opts ...compose.Option) (*director, error) {
	log.SetLevel(cfg.LogLevel)

	knowledge, err := loadKnowledge(cfg.KnowledgePath)
	if err != nil {
		return nil, err
	}
	metadata, err := loadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	closers := []func() error{client.Close}

	var (
		decider  llm.Decider = llm.NewGeminiDecider(client)
		cache    *llm.AttachmentCache
		profiler *llm.Profiler
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnf("⚠️ Could not connect to Redis at %s, profiling and attachment cache disabled: %v", cfg.RedisAddr, err)
			_ = rdb.Close()
		} else {
			profiler = llm.NewProfiler(rdb)
			decider = llm.NewProfiledDecider(decider, profiler, client.ModelID())
			cache = llm.NewAttachmentCache(rdb, cfg.AttachmentTTL)
			closers = append(closers, rdb.Close)
			log.Infof("✅ Connected to Redis at %s.", cfg.RedisAddr)
		}
	}

	d, err := newDirector(cfg, knowledge, metadata, decider, llm.NewGeminiGenerator(client, cache), opts...)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}
	d.modelID = client.ModelID()
	d.profiler = profiler
	d.closers = closers
	return d, nil
}

// Close releases the provider and Redis connections.
func (d *director) Close() {
	for _, c := range d.closers {
		if err := c(); err != nil {
			log.Warnf("⚠️ Error during shutdown: %v", err)
		}
	}
}

// loadKnowledge degrades to an empty store when the document is missing.
func loadKnowledge(path string) (*store.KnowledgeStore, error) {
	ks, err := store.LoadKnowledgeStore(path)
	if errors.Is(err, store.ErrStoreNotFound) {
		log.Warnf("⚠️ Knowledge document %s not found; every subject will be reported as unknown.", path)
		return store.EmptyKnowledgeStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	log.Infof("✅ Loaded knowledge levels for %s (%d subjects).", ks.UserID(), len(ks.Subjects()))
	return ks, nil
}

// loadMetadata fails on a malformed document. A missing one yields an empty
// store, which the catalog then rejects.
func loadMetadata(path string) (*store.MetadataStore, error) {
	ms, err := store.LoadMetadataStore(path)
	if errors.Is(err, store.ErrStoreNotFound) {
		log.Warnf("⚠️ Document metadata %s not found.", path)
		return store.NewMetadataStore(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return ms, nil
}
