package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors allows the given origins, or any origin when none are given.
// Credentials are only allowed for an explicit origin list.
func Cors(origins []string) Middleware {
	options := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: len(origins) > 0,
	}
	if len(origins) == 0 {
		options.AllowedOrigins = []string{"*"}
	}
	return cors.New(options).Handler
}
