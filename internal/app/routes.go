package app

import (
	"github.com/vancomm/sweeper/internal/handlers"
	"github.com/vancomm/sweeper/internal/repository"
)

func (a *App) loadRoutes(queries *repository.Queries) {
	tables := handlers.NewTables(a.log, a.lobby)

	var scores *handlers.Highscores
	if queries != nil {
		scores = handlers.NewHighscores(a.log, queries)
	}
	handlers.Register(a.router, tables, a.cfg.WebSocket.Upgrader(), scores)
}
