package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/config"
	"github.com/klinika-ai/klinika-engine/pkg/database"
	"github.com/klinika-ai/klinika-engine/pkg/graph"
	"github.com/klinika-ai/klinika-engine/pkg/handlers"
	"github.com/klinika-ai/klinika-engine/pkg/llm"
	"github.com/klinika-ai/klinika-engine/pkg/logging"
	"github.com/klinika-ai/klinika-engine/pkg/mcp"
	"github.com/klinika-ai/klinika-engine/pkg/mcp/tools"
	"github.com/klinika-ai/klinika-engine/pkg/middleware"
	"github.com/klinika-ai/klinika-engine/pkg/planner"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
	"github.com/klinika-ai/klinika-engine/pkg/services"
	sqlval "github.com/klinika-ai/klinika-engine/pkg/sql"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load("config.yaml", Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("schema_source", cfg.Schema.Source),
		zap.String("target_driver", cfg.Target.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var executor database.Executor
	if cfg.Target.Execute || cfg.Schema.Source == "introspect" {
		executor, err = database.Connect(ctx, &database.Config{
			Driver:   cfg.Target.Driver,
			Host:     cfg.Target.Host,
			Port:     cfg.Target.Port,
			User:     cfg.Target.User,
			Password: cfg.Target.Password,
			Database: cfg.Target.Database,
			MaxConns: cfg.Target.MaxConns,
		})
		if err != nil {
			logger.Fatal("target database connection failed",
				zap.String("error", logging.SanitizeError(err)))
		}
		defer executor.Close()
	}

	snapshots := schema.NewManager(logger, graph.WithHubPenalty(cfg.Planner.HubPenalty))
	loadModel := newModelLoader(ctx, cfg, executor, logger)
	if err := snapshots.Reload(loadModel); err != nil {
		logger.Fatal("initial schema load failed", zap.Error(err))
	}

	generator, err := llm.NewGenerator(&llm.Config{
		Provider:    cfg.LLM.Provider,
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	if err != nil {
		logger.Fatal("llm client creation failed", zap.Error(err))
	}

	queryPlanner := planner.New(snapshots, planner.Config{
		MaxContextChars:    cfg.Planner.MaxContextChars,
		MaxColumnsPerTable: cfg.Planner.MaxColumnsPerTable,
		FallbackHubs:       cfg.Planner.FallbackHubs,
		RelatedMaxHops:     cfg.Planner.RelatedMaxHops,
	}, logger)

	validator := sqlval.NewValidator(sqlval.DefaultRules(cfg.Validator.LargeTableRows), logger)

	var execForAnswers database.Executor
	if cfg.Target.Execute {
		execForAnswers = executor
	}
	answers := services.NewAnswerService(
		queryPlanner, generator, validator, execForAnswers, cfg.LLM.MaxAttempts, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, snapshots, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(answers, logger).RegisterRoutes(mux)
	handlers.NewSchemaHandler(queryPlanner, func() error {
		return snapshots.Reload(loadModel)
	}, logger).RegisterRoutes(mux)

	mcpServer := mcp.NewServer("klinika-engine", cfg.Version, logger)
	tools.RegisterAll(mcpServer.MCP(), &tools.Deps{Answers: answers, Logger: logger})
	mux.Handle("/mcp", mcpServer.NewStreamableHTTPServer())

	handler := middleware.RequestID(middleware.RequestLogger(logger)(mux))
	srv := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting klinika-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}

// newModelLoader returns the loader the snapshot manager re-runs on every
// reload, reading either the descriptor file or the target database's
// information schema.
func newModelLoader(ctx context.Context, cfg *config.Config, executor database.Executor, logger *zap.Logger) func() (*schema.Model, error) {
	if cfg.Schema.Source == "descriptor" {
		path := cfg.Schema.DescriptorPath
		return func() (*schema.Model, error) {
			return schema.LoadFile(path)
		}
	}

	opts := schema.IntrospectOptions{
		Schema:           cfg.Target.Database,
		SampleRowLimit:   cfg.Schema.SampleRowLimit,
		SensitiveColumns: cfg.Schema.SensitiveColumns,
	}
	return func() (*schema.Model, error) {
		var (
			desc *schema.Descriptor
			err  error
		)
		switch e := executor.(type) {
		case *database.MySQLExecutor:
			desc, err = schema.NewMySQLIntrospector(e.DB(), opts, logger).Introspect(ctx)
		case *database.PostgresExecutor:
			desc, err = schema.NewPostgresIntrospector(e.Pool(), opts, logger).Introspect(ctx)
		default:
			return nil, errors.New("no introspector for configured target driver")
		}
		if err != nil {
			return nil, err
		}
		return schema.NewModel(desc)
	}
}
