package bootstrap

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/aihub/incident-backend-go/internal/agent"
	"github.com/aihub/incident-backend-go/internal/config"
	"github.com/aihub/incident-backend-go/internal/logger"
	"github.com/aihub/incident-backend-go/internal/policy"
	"github.com/aihub/incident-backend-go/internal/services"
)

// App 持有需要在关闭时清理的共享资源
type App struct {
	Report services.TranscriptProcessor
	Store  *policy.Store

	cleanupTasks []func() error
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// SetGlobalApp sets the global app instance
func SetGlobalApp(app *App) {
	globalApp = app
}

// Init bootstraps configuration, logger, the policy store and the
// generation pipeline required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	store := policy.NewStore(cfg.Store)

	embedder, err := policy.NewOpenAIEmbedder(
		cfg.AI.OpenAIAPIKey, cfg.AI.EmbeddingModel, cfg.AI.MaxRetries, cfg.AI.TimeoutSecs)
	if err != nil {
		return nil, err
	}

	searchService := policy.NewSearchService(embedder, store, cfg.Store.DefaultK)
	resolver := policy.NewResolver(store)

	backend, err := agent.NewOpenAIBackend(
		cfg.AI.OpenAIAPIKey, cfg.AI.AgentModel, searchService, cfg.AI.MaxToolRounds)
	if err != nil {
		return nil, err
	}

	app := &App{
		Report: services.NewReportService(backend, resolver),
		Store:  store,
	}
	app.cleanupTasks = append(app.cleanupTasks, func() error {
		logger.Sync()
		return nil
	})

	SetGlobalApp(app)
	return app, nil
}

// Shutdown 执行清理任务
func (a *App) Shutdown() {
	for _, task := range a.cleanupTasks {
		if err := task(); err != nil {
			log.Printf("cleanup task failed: %v", err)
		}
	}
}
