// internal/wire/wire.go
package wire

import (
	"net/http"

	"event-ticketing/internal/adaptor"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/middleware"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired router and services.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Deps are the optional infrastructure pieces built in main.
type Deps struct {
	usecase.Dependencies

	// Limiter backs the rate limiter; nil disables it.
	Limiter middleware.Counter
}

// Wiring builds services, handlers and routes.
func Wiring(repo *repository.Repository, config *utils.Config, deps Deps, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps.Dependencies, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, config, deps, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	deps Deps,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins...))

	wireAuth(r, handler.Auth, repo, logger)
	wireUser(r, handler.User, handler.Order, repo, logger)
	wireOrder(r, handler.Order, repo, logger)
	wirePayment(r, handler.Payment, repo, config, deps.Limiter, logger)
	wireTicket(r, handler.Ticket, repo, config, deps.Limiter, logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseJSON(w, http.StatusMethodNotAllowed, false, "Method not allowed", nil, nil)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
