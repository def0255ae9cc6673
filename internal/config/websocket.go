package config

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// WebSocket configures the upgrader. No allowed origins means any origin.
type WebSocket struct {
	AllowedOrigins  []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	ReadBufferSize  int      `env:"WS_READ_BUFFER"     envDefault:"1024"`
	WriteBufferSize int      `env:"WS_WRITE_BUFFER"    envDefault:"4096"`
}

func (w WebSocket) Upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  w.ReadBufferSize,
		WriteBufferSize: w.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			if len(w.AllowedOrigins) == 0 {
				return true
			}
			return slices.Contains(w.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
}
