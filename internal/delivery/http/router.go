package http

import (
	"log/slog"
	"net/http"

	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
	"eventhub/internal/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps holds the controllers and collaborators the router wires together.
type RouterDeps struct {
	Events         *controllers.EventController
	Participation  *controllers.ParticipationController
	Tags           *controllers.TagController
	TokenVerifier  domain.TokenVerifier
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(deps RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(deps.TokenVerifier, deps.Logger)

	// Discovery
	mux.HandleFunc("GET /api/events", deps.Events.ListPublicEvents)
	mux.HandleFunc("GET /api/tags", deps.Tags.ListTags)

	// Events
	mux.HandleFunc("GET /api/events/{eventID}", auth(deps.Events.GetEventDetails))
	mux.HandleFunc("POST /api/events", auth(deps.Events.CreateEvent))
	mux.HandleFunc("PATCH /api/events/{eventID}", auth(deps.Events.UpdateEvent))
	mux.HandleFunc("DELETE /api/events/{eventID}", auth(deps.Events.DeleteEvent))
	mux.HandleFunc("GET /api/users/me/events", auth(deps.Events.ListMyEvents))

	// Participation
	mux.HandleFunc("POST /api/events/{eventID}/join", auth(deps.Participation.JoinEvent))
	mux.HandleFunc("POST /api/events/{eventID}/leave", auth(deps.Participation.LeaveEvent))

	// Operations
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with recovery, metrics, request logging and CORS.
func NewHandler(deps RouterDeps) http.Handler {
	var h http.Handler = NewRouter(deps)
	h = middleware.Recover(deps.Logger, h)
	h = metrics.HTTPMiddleware(h)
	h = middleware.LoggingMiddleware(deps.Logger, h)
	return middleware.CORS(deps.AllowedOrigins, h)
}
