package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FeedCollector/internal/config"
	"FeedCollector/internal/domain"
	"FeedCollector/internal/infrastructure/filestore"
	"FeedCollector/internal/infrastructure/llm"
	"FeedCollector/internal/infrastructure/ml"
	"FeedCollector/internal/infrastructure/scheduler"
	"FeedCollector/internal/infrastructure/storage"
	"FeedCollector/internal/infrastructure/telegram"
	"FeedCollector/internal/logging"
	"FeedCollector/internal/ports"
	"FeedCollector/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	collector *usecase.Collector
	writer    ports.ArtifactWriter
	store     ports.DocumentStore
	mode      domain.OutputMode
}

// Report is what a single run hands back to the CLI.
type Report struct {
	Result       usecase.RunResult
	ArtifactPath string
}

// New builds the application. Only configuration problems are returned as
// errors; an unreachable store or missing oracle credentials degrade the
// pipeline instead.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	mode, err := domain.ParseOutputMode(cfg.Collector.OutputMode)
	if err != nil {
		return nil, err
	}

	sources, err := BuildSources(NewRegistry(nil), cfg.Sources, baseLogger.With("component", "source"))
	if err != nil {
		return nil, err
	}

	oracle := newOracle(ctx, cfg.LLM, baseLogger.With("component", "llm"))

	var enricher *usecase.Enricher
	var aggregator *usecase.Aggregator
	if oracle != nil {
		enricher = usecase.NewEnricher(oracle, usecase.GenerationConfig{
			Model:        cfg.LLM.Model,
			SystemPrompt: cfg.LLM.SystemPrompt,
			Temperature:  cfg.LLM.Temperature,
			MaxTokens:    cfg.LLM.MaxTokens,
			Timeout:      cfg.LLM.Timeout.Std(),
			Concurrency:  cfg.LLM.Concurrency,
		}, baseLogger.With("component", "enricher"))

		summaryModel := cfg.LLM.SummaryModel
		if summaryModel == "" {
			summaryModel = cfg.LLM.Model
		}
		aggregator = usecase.NewAggregator(oracle, usecase.GenerationConfig{
			Model:        summaryModel,
			SystemPrompt: cfg.LLM.SummarySystemPrompt,
			Temperature:  cfg.LLM.SummaryTemperature,
			MaxTokens:    cfg.LLM.SummaryMaxTokens,
			Timeout:      cfg.LLM.Timeout.Std(),
		}, baseLogger.With("component", "aggregator"))
	}

	storeLogger := baseLogger.With("component", "persister")
	store, err := storage.Open(ctx, cfg.Storage, baseLogger)
	if err != nil {
		storeLogger.Warn("document store unavailable, persistence disabled", "error", err)
		store = nil
	}
	var persister ports.SummaryPersister
	if store != nil {
		persister = usecase.NewPersister(store, cfg.Storage.MaxRetries, cfg.Storage.RetryDelay.Std(), storeLogger)
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	collector := usecase.NewCollector(usecase.CollectorDeps{
		Sources:     sources,
		Enricher:    enricher,
		Aggregator:  aggregator,
		Persister:   persister,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "collector"),
		Concurrency: cfg.Collector.Concurrency,
		RunTimeout:  cfg.Collector.RunTimeout.Std(),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		collector: collector,
		writer:    filestore.NewWriter(cfg.Collector.OutputDir, cfg.Collector.OutputPrefix),
		store:     store,
		mode:      mode,
	}, nil
}

// newOracle picks the provider named in cfg. It returns nil, which disables
// enrichment and aggregation, when the provider lacks credentials.
func newOracle(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) ports.Oracle {
	if !cfg.Enabled {
		logger.Info("llm disabled by configuration")
		return nil
	}

	switch cfg.Provider {
	case config.ProviderInference:
		if cfg.BaseURL == "" {
			logger.Warn("inference base_url not set, enrichment disabled")
			return nil
		}
		return ml.NewClient(cfg, nil)
	case config.ProviderAnthropic, config.ProviderGemini, config.ProviderOpenAI:
		if cfg.APIKey == "" {
			logger.Warn("llm api key not set, enrichment disabled", "provider", cfg.Provider)
			return nil
		}
	}

	switch cfg.Provider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicClient(cfg, nil)
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg, nil)
		if err != nil {
			logger.Warn("gemini client unavailable, enrichment disabled", "error", err)
			return nil
		}
		return client
	default:
		return llm.NewOpenAIClient(cfg, nil)
	}
}

// RunOnce executes one collection run and writes the artifact for the
// configured output mode. Only a failed artifact write is an error.
func (a *Application) RunOnce(ctx context.Context) (Report, error) {
	result := a.collector.Run(ctx)

	path, err := a.writer.Write(result.Output(a.mode))
	if err != nil {
		return Report{Result: result}, fmt.Errorf("write artifact: %w", err)
	}
	a.logger.Info("artifact written", "path", path, "mode", string(a.mode), "run_id", result.RunID)

	return Report{Result: result, ArtifactPath: path}, nil
}

// Schedule repeats RunOnce on the configured interval until ctx is done.
func (a *Application) Schedule(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval.Std(), a.cfg.Scheduler.Location())
	jobs := usecase.NewScheduler(driver, func(ctx context.Context, trigger time.Time) error {
		a.logger.Info("scheduled run triggered", "at", trigger.Format(time.RFC3339))
		_, err := a.RunOnce(ctx)
		return err
	}, a.logger.With("component", "scheduler"))

	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval.Std().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Collector.RunTimeout.Std()+time.Minute)
	defer cancel()
	if err := jobs.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// Close releases the document store connection.
func (a *Application) Close(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Close(ctx)
}

// PersistenceEnabled reports whether a document store is connected.
func (a *Application) PersistenceEnabled() bool {
	return a.store != nil
}
