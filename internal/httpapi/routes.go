package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sphera-labs/sphera-backend/internal/hub"
	"github.com/sphera-labs/sphera-backend/internal/ws"
)

// SetupRoutes builds the router with the hub and collaborator services
// injected.
func SetupRoutes(h *hub.Hub, api *PlayerAPI, log *zap.Logger, clientURL string, originPatterns []string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{clientURL},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	r.Get("/", Root)
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log, originPatterns))

	r.Route("/api", func(r chi.Router) {
		r.Post("/assign-nft-to-player", api.AssignNFT)
		r.Get("/get-players-by-nft-ids", api.PlayersByNFTIDs)
	})

	return r
}

func Root(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("Server is running!"))
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
