// Package app wires configuration, storage, services, the sweeper and the HTTP router.
package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/axellelanca/linkquota/internal/api"
	"github.com/axellelanca/linkquota/internal/config"
	"github.com/axellelanca/linkquota/internal/monitor"
	"github.com/axellelanca/linkquota/internal/repository"
	"github.com/axellelanca/linkquota/internal/services"
	"github.com/axellelanca/linkquota/internal/shortcode"
	"github.com/axellelanca/linkquota/internal/store"
)

// App holds every long-lived component. The CLI commands and the server share it.
type App struct {
	Cfg         *config.Config
	DB          *gorm.DB
	Links       *store.LinkStore
	LinkService *services.LinkService
	UserService *services.UserService
	Sweeper     *monitor.ExpirationSweeper
	Router      *gin.Engine
}

// New opens the database, loads the link index and builds the services.
// The sweeper is created idle; the caller decides whether to start it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := repository.Open(cfg.Database.Name)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Name, err)
	}

	links, err := store.Open(ctx, repository.NewLinkRepository(db))
	if err != nil {
		_ = repository.Close(db)
		return nil, err
	}

	userService := services.NewUserService(repository.NewUserRepository(db), cfg.Links)
	linkService := services.NewLinkService(links, userService, shortcode.NewGenerator(rand.Reader), cfg.Links)
	sweeper := monitor.NewExpirationSweeper(linkService, cfg.SweepInterval())

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	api.SetupRoutes(router, linkService, userService, cfg)

	log.Println("Services métiers initialisés.")

	return &App{
		Cfg:         cfg,
		DB:          db,
		Links:       links,
		LinkService: linkService,
		UserService: userService,
		Sweeper:     sweeper,
		Router:      router,
	}, nil
}

// Addr returns the HTTP listen address, e.g. ":8080".
func (a *App) Addr() string {
	return fmt.Sprintf(":%d", a.Cfg.Server.Port)
}

// Close releases the database connection.
func (a *App) Close() error {
	return repository.Close(a.DB)
}
