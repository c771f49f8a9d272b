package wire

import (
	"context"
	"net/http"
	"time"

	"car-rental/internal/adaptor"
	"car-rental/internal/data/repository"
	"car-rental/internal/usecase"
	"car-rental/pkg/middleware"
	"car-rental/pkg/payment"
	"car-rental/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the wired HTTP surface.
type App struct {
	Router *chi.Mux
}

// Wiring builds services, handlers and routes.
func Wiring(
	repo *repository.Repository,
	db Pinger,
	config *utils.Config,
	gateway payment.Gateway,
	dispatcher usecase.Dispatcher,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, gateway, dispatcher, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router: setupRouter(handler, repo, db, config, logger),
	}
}

// guards are the middleware stacks routes pick from.
type guards struct {
	auth  func(http.Handler) http.Handler
	admin func(http.Handler) http.Handler
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	db Pinger,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.CORS))

	tokens := utils.NewTokenIssuer(config.JWT, config.App.Name)
	g := guards{
		auth:  middleware.AuthSession(tokens, repo.Session, logger),
		admin: middleware.Admin(repo.User, logger),
	}

	r.Route("/api", func(r chi.Router) {
		wireAuth(r, handler.Auth, g)
		wireUser(r, handler.User, handler.Booking, handler.Feedback, g)
		wireCar(r, handler.Car, handler.Booking, handler.Feedback, g)
		wireBooking(r, handler.Booking, handler.Payment, g)
		wirePayment(r, handler.Payment, g)
		wireFeedback(r, handler.Feedback, g)
	})

	r.Get("/health", health(db, logger))

	return r
}

func health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "database unavailable", nil, nil)
			return
		}
		utils.ResponseSuccess(w, "OK", nil)
	}
}
