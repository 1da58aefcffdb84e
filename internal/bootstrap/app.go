package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"academic-backend/internal/analyses"
	"academic-backend/internal/documents"
	"academic-backend/internal/llm"
	"academic-backend/internal/llm/gemini"
	"academic-backend/internal/llm/groq"
	"academic-backend/internal/prompts"
	"academic-backend/internal/shared/config"
	"academic-backend/internal/shared/server"
	"academic-backend/internal/shared/storage/db"
	"academic-backend/internal/shared/storage/object"
	localstore "academic-backend/internal/shared/storage/object/local"
	s3store "academic-backend/internal/shared/storage/object/s3"
	"academic-backend/internal/tools"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	Limiter    *llm.Limiter
	Completion *llm.CompletionClient

	DocumentsRepo documents.DocumentsRepo
	AnalysesRepo  analyses.Repo

	DocumentsService *documents.Service
	AnalysesService  *analyses.Service
	ToolsService     *tools.Service

	DocumentsHandler *documents.Handler
	AnalysisHandler  *analyses.Handler
	ToolsHandler     *tools.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		AnalysisHandler: app.AnalysisHandler,
		ToolsHandler:    app.ToolsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// BuildProvider selects the completion provider from configuration. An
// unset API key yields the placeholder so the rest of the stack stays
// usable in dev.
func BuildProvider(cfg config.LLMConfig) (llm.Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		log.Printf("bootstrap: LLM_API_KEY empty; completions will fail with a configuration error")
		return llm.PlaceholderProvider{}, nil
	}
	switch cfg.Provider {
	case "gemini":
		return gemini.NewClient(cfg.APIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.RequestTimeout)
	default:
		return groq.NewClient(cfg.APIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.RequestTimeout)
	}
}

// BuildCompletion wires the renderer, limiter, and provider into one client.
func BuildCompletion(cfg config.LLMConfig) (*llm.CompletionClient, *llm.Limiter, error) {
	provider, err := BuildProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	renderer, err := prompts.NewRegistry()
	if err != nil {
		return nil, nil, err
	}
	limiter := llm.NewLimiter(cfg.RequestsPerWindow, cfg.Window, nil)
	client := llm.NewCompletionClient(provider, renderer, limiter,
		cfg.MaxRetries, cfg.BaseBackoff, cfg.MaxBackoff, cfg.RequestTimeout)
	return client, limiter, nil
}

func buildServices(app *App) error {
	var docRepo documents.DocumentsRepo
	var analysisRepo analyses.Repo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		analysisRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		analysisRepo = analyses.NewMemoryRepo()
	}

	completion, limiter, err := BuildCompletion(app.Config.LLM)
	if err != nil {
		return err
	}

	docSvc := &documents.Service{Store: app.Store, Repo: docRepo}
	analysisSvc := &analyses.Service{
		Repo:         analysisRepo,
		DocRepo:      docRepo,
		Store:        app.Store,
		Orchestrator: &analyses.Orchestrator{Completer: completion},
		Provider:     app.Config.LLM.Provider,
		Model:        app.Config.LLM.Model,
	}
	toolsSvc := &tools.Service{
		Invoker: &tools.Invoker{Completer: completion},
		DocRepo: docRepo,
		Store:   app.Store,
	}

	app.Limiter = limiter
	app.Completion = completion
	app.DocumentsRepo = docRepo
	app.AnalysesRepo = analysisRepo
	app.DocumentsService = docSvc
	app.AnalysesService = analysisSvc
	app.ToolsService = toolsSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.AnalysisHandler = analyses.NewHandler(analysisSvc, docRepo)
	app.ToolsHandler = tools.NewHandler(toolsSvc)
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
