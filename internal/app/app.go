package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/sweeper/internal/config"
	"github.com/vancomm/sweeper/internal/database"
	"github.com/vancomm/sweeper/internal/engine"
	"github.com/vancomm/sweeper/internal/lobby"
	"github.com/vancomm/sweeper/internal/middleware"
	"github.com/vancomm/sweeper/internal/records"
	"github.com/vancomm/sweeper/internal/repository"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	log    logrus.FieldLogger
	cfg    *config.Config
	router *http.ServeMux
	db     *pgxpool.Pool
	lobby  *lobby.Lobby
}

func New(log logrus.FieldLogger, cfg *config.Config) *App {
	return &App{
		log:    log,
		cfg:    cfg,
		router: http.NewServeMux(),
	}
}

func (a *App) engineOptions() []engine.Option {
	e := a.cfg.Engine
	return []engine.Option{
		engine.WithTickInterval(e.TickInterval),
		engine.WithCommandBuffer(e.CommandBuffer),
		engine.WithMaxDimensions(e.MaxWidth, e.MaxHeight),
	}
}

// Start serves until ctx is done, then shuts the server and every table
// down.
func (a *App) Start(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	lobbyOpts := []lobby.Option{
		lobby.WithEngineOptions(a.engineOptions()...),
		lobby.WithMaxTables(a.cfg.Engine.MaxTables),
	}
	var queries *repository.Queries
	if a.cfg.Database.Enabled() {
		db, err := database.ConnectAndMigrate(ctx, a.log, a.cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("unable to connect to db: %w", err)
		}
		defer db.Close()
		a.db = db
		queries = repository.New(db)
		recorder := records.NewRecorder(a.log.WithField("component", "records"), queries)
		lobbyOpts = append(lobbyOpts, lobby.WithObserver(recorder.Observer))
	} else {
		a.log.Warn("no database configured, records disabled")
	}

	a.lobby = lobby.New(ctx, a.log, lobbyOpts...)
	a.loadRoutes(queries)

	server := &http.Server{
		Addr: a.cfg.Addr,
		Handler: middleware.Wrap(
			a.handler(),
			middleware.Logging(a.log),
			middleware.Recover(a.log),
			middleware.Cors(a.cfg.CORSOrigins),
		),
	}

	group.Go(func() error {
		a.log.WithField("addr", a.cfg.Addr).Info("server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		<-ctx.Done()
		return a.lobby.Wait()
	})

	return group.Wait()
}

// handler strips APP_BASE_PATH when set.
func (a *App) handler() http.Handler {
	if a.cfg.BasePath == "" {
		return a.router
	}
	return http.StripPrefix(a.cfg.BasePath, a.router)
}
