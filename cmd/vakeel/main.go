package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/vakeelhq/vakeel/internal/ai"
	"github.com/vakeelhq/vakeel/internal/config"
	"github.com/vakeelhq/vakeel/internal/db"
	"github.com/vakeelhq/vakeel/internal/embedcache"
	"github.com/vakeelhq/vakeel/internal/handler"
	"github.com/vakeelhq/vakeel/internal/job"
	"github.com/vakeelhq/vakeel/internal/middleware"
	"github.com/vakeelhq/vakeel/internal/repo"
	"github.com/vakeelhq/vakeel/internal/schedule"
	"github.com/vakeelhq/vakeel/internal/service"
)

func main() {
	var configPath string
	var csvPath string

	rootCmd := &cobra.Command{
		Use:   "vakeel",
		Short: "vakeel lawyer-search backend",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the vakeel server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, database)
		},
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "import lawyer profiles from a csv file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvPath == "" {
				return fmt.Errorf("--csv is required")
			}
			cfg, database, err := setup(configPath)
			if err != nil {
				return err
			}
			return runImport(cfg, database, csvPath)
		},
	}
	importCmd.Flags().StringVar(&csvPath, "csv", "", "path to the advocate csv file")

	rootCmd.AddCommand(runCmd, importCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, database, nil
}

type services struct {
	retrieval *service.RetrievalService
	chat      *service.ChatService
	ingest    *service.IngestService
	resources *repo.ResourceRepo
	embedRepo *repo.EmbeddingRepo
}

func buildServices(cfg *config.Config, database *sql.DB) (*services, error) {
	providers := append([]config.ProviderConfig{cfg.AI.ProviderConfig}, cfg.AI.Fallbacks...)
	var generators []ai.GeneratorEntry
	var embedders []ai.EmbedderEntry
	for _, pc := range providers {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", pc.Provider, err)
		}
		generators = append(generators, ai.GeneratorEntry{
			Name:      provider.Name(),
			Generator: ai.NewGenerator(provider, cfg.AI.GenerateModel),
		})
		embedders = append(embedders, ai.EmbedderEntry{
			Name:     provider.Name(),
			Embedder: ai.NewEmbedder(provider, cfg.AI.EmbedModel, cfg.Retrieval.Dimensions),
		})
	}
	generator := ai.NewGroupGenerator(generators)
	embedder := embedcache.WrapLruCacheToEmbedder(
		ai.NewGroupEmbedder(embedders),
		cfg.AI.EmbedCacheSize,
		time.Duration(cfg.AI.EmbedCacheTTLHours)*time.Hour,
	)

	timeout := time.Duration(cfg.AI.Timeout) * time.Second
	embedService := service.NewEmbeddingService(embedder, timeout)
	resourceRepo := repo.NewResourceRepo(database)
	embeddingRepo := repo.NewEmbeddingRepo(database, cfg.Retrieval.Dimensions)
	chunker := ai.NewChunker(cfg.Retrieval.ChunkMaxChars, cfg.Retrieval.ChunkMaxCount)

	retrieval := service.NewRetrievalService(
		embedService,
		embeddingRepo,
		cfg.Retrieval.SimilarityFloor,
		cfg.Retrieval.ResultLimit,
	)
	chat := service.NewChatService(generator, retrieval, timeout)
	ingest := service.NewIngestService(resourceRepo, embeddingRepo, embedService, chunker, cfg.Ingest.BatchSize)

	return &services{
		retrieval: retrieval,
		chat:      chat,
		ingest:    ingest,
		resources: resourceRepo,
		embedRepo: embeddingRepo,
	}, nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("public_url", cfg.PublicURL),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Int("dimensions", cfg.Retrieval.Dimensions),
	)

	svcs, err := buildServices(cfg, database)
	if err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Search:         handler.NewSearchHandler(svcs.retrieval),
		Chat:           handler.NewChatHandler(svcs.chat),
		Health:         handler.NewHealthHandler(svcs.embedRepo),
		Resources:      handler.NewResourceHandler(svcs.resources, svcs.ingest),
		ChatRateWindow: time.Duration(cfg.ChatRateWindow) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := schedule.NewRunner()
	if err := runner.Add(cfg.Jobs.ReembedSpec, job.NewReembedJob(svcs.ingest, svcs.resources, cfg.Jobs.ReembedBatch)); err != nil {
		return fmt.Errorf("schedule reembed job: %w", err)
	}
	runner.Start(ctx)
	defer runner.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func runImport(cfg *config.Config, database *sql.DB, csvPath string) error {
	svcs, err := buildServices(cfg, database)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := svcs.ingest.ImportCSV(ctx, csvPath)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("import completed",
		zap.Int("total", stats.Total),
		zap.Int("imported", stats.Imported),
		zap.Int("failed", stats.Failed),
	)
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d records failed to import", stats.Failed, stats.Total)
	}
	return nil
}
