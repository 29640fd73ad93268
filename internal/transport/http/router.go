package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/synapse-live/relay-service/internal/room"
	"github.com/synapse-live/relay-service/internal/transport/ws"
)

type HealthResponse struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	Version      string `json:"version"`
	Rooms        int    `json:"rooms"`
	Participants int    `json:"participants"`
}

func NewRouter(wsServer *ws.Server, registry *room.Registry, service, version string) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// Доска открыта для браузерных клиентов с любых origin-ов.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         3600,
	}))

	// WS endpoint
	r.Get("/ws/{id}", wsServer.HandleWS)

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		rooms, participants := registry.Stats()
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:       "healthy",
			Service:      service,
			Version:      version,
			Rooms:        rooms,
			Participants: participants,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
