package app

import (
	"fmt"

	"github.com/ternarybob/appforge/internal/common"
	"github.com/ternarybob/appforge/internal/creator"
	"github.com/ternarybob/appforge/internal/handlers"
	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/services/analyzer"
	"github.com/ternarybob/appforge/internal/services/auth"
	"github.com/ternarybob/appforge/internal/services/events"
	"github.com/ternarybob/appforge/internal/services/llm"
	"github.com/ternarybob/appforge/internal/services/scheduler"
	"github.com/ternarybob/appforge/internal/storage/badger"
	"github.com/ternarybob/arbor"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	EventService     interfaces.EventService
	AuthService      interfaces.AuthService
	LLMService       interfaces.LLMService
	AnalyzerService  *analyzer.Service
	ProjectCreator   interfaces.ProjectCreator
	SchedulerService *scheduler.Service

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	AuthHandler       *handlers.AuthHandler
	AnalyzeHandler    *handlers.AnalyzeHandler
	ProjectHandler    *handlers.ProjectHandler
	RealtimeHandler   *handlers.RealtimeHandler
	DeploymentHandler *handlers.DeploymentHandler
	WSHandler         *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHandlers()

	if err := app.SchedulerService.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	return app, nil
}

func (a *App) initServices() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	a.EventService = events.NewService(a.Logger)

	authService, err := auth.NewService(storageManager.UserStorage(), &a.Config.Auth, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}
	a.AuthService = authService

	// LLMService is nil when no provider is configured; the analyzer
	// falls back to keyword heuristics in that case.
	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.LLMService = llmService
	a.AnalyzerService = analyzer.NewService(llmService, a.Logger)

	a.ProjectCreator = creator.NewCreator(
		storageManager.ProjectStorage(),
		storageManager.ProjectFileStorage(),
		a.EventService,
		a.Config,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(a.ProjectCreator, storageManager, &a.Config.Pipeline, a.Logger)

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.AuthHandler = handlers.NewAuthHandler(a.AuthService, a.Logger)
	a.AnalyzeHandler = handlers.NewAnalyzeHandler(a.AnalyzerService, a.AuthHandler, a.Logger)
	a.ProjectHandler = handlers.NewProjectHandler(
		a.StorageManager.ProjectStorage(),
		a.StorageManager.ProjectFileStorage(),
		a.AuthHandler,
		a.Logger,
	)
	a.RealtimeHandler = handlers.NewRealtimeHandler(a.ProjectCreator, a.AuthHandler, a.Logger)
	a.DeploymentHandler = handlers.NewDeploymentHandler(
		a.StorageManager.DeploymentStorage(),
		a.StorageManager.ProjectStorage(),
		a.EventService,
		a.AuthHandler,
		a.Logger,
	)
	a.WSHandler = handlers.NewWebSocketHandler(a.ProjectCreator, a.AuthService, a.AnalyzerService, a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
