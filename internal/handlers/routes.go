package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// Register mounts the table routes and, when scores is non-nil, the
// highscore route.
func Register(mux *http.ServeMux, tables *Tables, upgrader *websocket.Upgrader, scores *Highscores) {
	mux.HandleFunc("POST /tables", tables.Create)
	mux.HandleFunc("GET /tables/{id}", tables.Fetch)
	mux.HandleFunc("POST /tables/{id}/commands", tables.Command)
	mux.HandleFunc("DELETE /tables/{id}", tables.Delete)
	mux.HandleFunc("GET /tables/{id}/connect", tables.Connect(upgrader))
	if scores != nil {
		mux.HandleFunc("GET /highscores", scores.List)
	}
}
