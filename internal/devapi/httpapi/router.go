package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/devapi/services"
	"github.com/dmitrijs2005/rainwise/internal/logging"
	"github.com/dmitrijs2005/rainwise/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configure NewRouter. A nil Gatherer leaves /metrics off.
type Options struct {
	Logger   logging.Logger
	Metrics  *Metrics
	Gatherer prometheus.Gatherer
	Secret   []byte
}

// NewRouter assembles the chi router with middleware and routes.
func NewRouter(h *Handlers, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}

	r := chi.NewRouter()
	// Outermost first; RequestID must precede logging.
	r.Use(
		Recover(opts.Logger),
		RequestID(),
		Logging(opts.Logger),
		opts.Metrics.Middleware(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/public/health", h.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/confirm-email", h.ConfirmEmail)
		r.Post("/login", h.Login)
		r.Post("/refresh-token", h.RefreshToken)
		r.Post("/logout", h.Logout)
	})

	// Cities are public for every method, matching the client's allow-list.
	r.Route("/cities", func(r chi.Router) {
		collection[models.City, services.CityInput]{
			h: h, c: h.catalog.Cities, noun: "City", filters: []string{"language"},
		}.mount(r)
	})

	admin := RequireRole(common.RoleAdmin)
	r.Group(func(r chi.Router) {
		r.Use(Bearer(opts.Secret))

		r.Route("/guides", func(r chi.Router) {
			collection[models.Guide, services.GuideInput]{
				h: h, c: h.catalog.Guides, noun: "Guide", filters: []string{"status", "difficulty", "language"},
			}.mount(r, admin)
		})
		r.Route("/modules", func(r chi.Router) {
			collection[models.Module, services.ModuleInput]{
				h: h, c: h.catalog.Modules, noun: "Module", filters: []string{"guideId", "status"},
			}.mount(r, admin)
		})
		r.Route("/questions", func(r chi.Router) {
			collection[models.Question, services.QuestionInput]{
				h: h, c: h.catalog.Questions, noun: "Question", filters: []string{"moduleId", "blockType", "questionType"},
			}.mount(r, admin)
		})
		r.Route("/users", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.ListUsers)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})
	})

	return r
}
