package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/scrimline/scrimline-chat/internal/dependencies/clock"
	"github.com/scrimline/scrimline-chat/internal/dependencies/random"
	"github.com/scrimline/scrimline-chat/internal/services/auth"
	"github.com/scrimline/scrimline-chat/internal/services/chat"
	"github.com/scrimline/scrimline-chat/internal/services/roster"
	"github.com/scrimline/scrimline-chat/internal/services/tournament"
	"github.com/scrimline/scrimline-chat/internal/services/tryout"
	"github.com/scrimline/scrimline-chat/internal/storage"
	"github.com/scrimline/scrimline-chat/internal/storage/memory"
	redisstorage "github.com/scrimline/scrimline-chat/internal/storage/redis"
	"github.com/scrimline/scrimline-chat/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Collaborator ports
	RosterNotifier      roster.Notifier
	TournamentDirectory tournament.Directory

	// Services
	AuthService      *auth.Service
	TryoutController *tryout.Controller
	Dispatcher       *chat.Dispatcher
	Registry         *ws.Registry
	SocketHandler    *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PlatformURL is the base URL of the upstream platform API. If empty,
	// roster notifications are discarded and tournament lookups fail.
	PlatformURL string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Collaborator ports against the platform, when configured
	var rosterNotifier roster.Notifier = roster.NopNotifier{}
	var tournamentDirectory tournament.Directory = &tournament.StaticDirectory{}
	if cfg.PlatformURL != "" {
		rosterNotifier = roster.NewHTTPNotifier(cfg.PlatformURL, logger)
		tournamentDirectory = tournament.NewHTTPDirectory(cfg.PlatformURL, logger)
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, rosterNotifier, tournamentDirectory, authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	rosterNotifier roster.Notifier,
	tournamentDirectory tournament.Directory,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	authService := auth.New(store, clk, authCfg, logger)
	tryoutController := tryout.NewController(store, clk, rnd, logger)
	registry := ws.NewRegistry(logger)
	dispatcher := chat.NewDispatcher(store, tryoutController, rosterNotifier, tournamentDirectory, registry, clk, logger)
	socketHandler := ws.NewHandler(registry, dispatcher, authService, logger)

	return &App{
		Storage:             store,
		Clock:               clk,
		Random:              rnd,
		RosterNotifier:      rosterNotifier,
		TournamentDirectory: tournamentDirectory,
		AuthService:         authService,
		TryoutController:    tryoutController,
		Dispatcher:          dispatcher,
		Registry:            registry,
		SocketHandler:       socketHandler,
	}
}
