package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware that allows the storefront origin plus local
// development hosts.
func CORS(storefrontURL string) func(http.Handler) http.Handler {
	origins := []string{
		"http://localhost:3000", // local dev
	}
	if storefrontURL != "" {
		origins = append(origins, storefrontURL)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
