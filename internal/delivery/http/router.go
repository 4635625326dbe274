package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/jglobalproperties/estate_api/internal/config"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/handler"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/middleware"
	"github.com/jglobalproperties/estate_api/internal/delivery/http/response"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

// Handlers groups every HTTP handler served by the router
type Handlers struct {
	Houses     *handler.ListingHandler
	Lands      *handler.ListingHandler
	Reviews    *handler.ReviewHandler
	Blogs      *handler.BlogHandler
	Comments   *handler.CommentHandler
	Auth       *handler.AuthHandler
	Newsletter *handler.NewsletterHandler
	Media      *handler.MediaHandler
	Events     *handler.EventHandler

	// Probes are checked by /health, keyed by dependency name
	Probes map[string]Probe
}

// Probe reports whether a dependency is reachable
type Probe func(ctx context.Context) error

const probeTimeout = 2 * time.Second

// Router holds HTTP handlers and router configuration
type Router struct {
	handlers Handlers
	tokens   middleware.TokenValidator
	logger   *logger.Logger
	cfg      *config.Config
}

// NewRouter creates a new HTTP router. tokens guards the admin routes.
func NewRouter(handlers Handlers, tokens middleware.TokenValidator, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handlers: handlers,
		tokens:   tokens,
		logger:   log,
		cfg:      cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(rt.cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	h := rt.handlers
	admin := middleware.Auth(rt.tokens)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Auth.SignUp)
			r.Post("/signin", h.Auth.SignIn)
			r.Post("/logout", h.Auth.Logout)
			r.With(admin).Get("/profile", h.Auth.Profile)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", h.Reviews.Create)
			r.Get("/land/{landId}", h.Reviews.ByLand)
			r.Get("/house/{houseId}", h.Reviews.ByHouse)

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/", h.Reviews.List)
				r.Get("/pending", h.Reviews.Pending)
				r.Get("/stats/{kind}/{id}", h.Reviews.Stats)
				r.Post("/bulk/approve", h.Reviews.BulkApprove)
				r.Post("/bulk/reject", h.Reviews.BulkReject)
				r.Put("/{id}/status", h.Reviews.UpdateStatus)
				r.Put("/{id}/approve", h.Reviews.Approve)
				r.Put("/{id}/reject", h.Reviews.Reject)
				r.Delete("/{id}", h.Reviews.Delete)
			})

			r.Get("/{id}", h.Reviews.GetByID)
		})

		rt.listingRoutes(r, "/houses", h.Houses, admin)
		rt.listingRoutes(r, "/lands", h.Lands, admin)

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", h.Blogs.List)
			r.Get("/slug/{slug}", h.Blogs.GetBySlug)
			r.Get("/{blogId}", h.Blogs.GetByID)
			r.Get("/{blogId}/comments", h.Comments.ByBlog)
			r.Post("/{blogId}/comments", h.Comments.Create)

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", h.Blogs.Create)
				r.Put("/{blogId}", h.Blogs.Update)
				r.Delete("/{blogId}", h.Blogs.Delete)

				r.Route("/comments", func(r chi.Router) {
					r.Get("/pending", h.Comments.Pending)
					r.Post("/bulk/approve", h.Comments.BulkApprove)
					r.Post("/bulk/reject", h.Comments.BulkReject)
					r.Put("/{commentId}/status", h.Comments.UpdateStatus)
					r.Put("/{commentId}/approve", h.Comments.Approve)
					r.Put("/{commentId}/reject", h.Comments.Reject)
					r.Delete("/{commentId}", h.Comments.Delete)
				})
			})
		})

		r.Route("/admin/blogs", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.Blogs.AdminList)
			r.Get("/{blogId}", h.Blogs.AdminGet)
			r.Get("/{blogId}/comments", h.Comments.AdminByBlog)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.Events.List)
			r.Get("/slug/{slug}", h.Events.GetBySlug)
			r.Get("/{eventId}", h.Events.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", h.Events.Create)
				r.Put("/{eventId}", h.Events.Update)
				r.Delete("/{eventId}", h.Events.Delete)
				r.Post("/{eventId}/image", h.Events.UploadImage)
				r.Delete("/{eventId}/image", h.Events.DeleteImage)
			})
		})

		r.Route("/newsletter", func(r chi.Router) {
			r.Post("/subscribe", h.Newsletter.Subscribe)
			r.Post("/unsubscribe", h.Newsletter.Unsubscribe)
			r.With(admin).Get("/subscribers", h.Newsletter.Subscribers)
			r.With(admin).Get("/export", h.Newsletter.Export)
		})

		r.Route("/media", func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.Media.Upload)
			r.Get("/", h.Media.List)
			r.Get("/{id}", h.Media.GetByID)
			r.Delete("/{id}", h.Media.Delete)
		})
	})

	return r
}

func (rt *Router) listingRoutes(r chi.Router, prefix string, h *handler.ListingHandler, admin func(http.Handler) http.Handler) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/slug/{slug}", h.GetBySlug)
		r.Get("/{id}", h.GetByID)
		r.Get("/{id}/units", h.Units)
		r.Get("/{id}/images", h.Images)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Put("/{id}/units", h.ReplaceUnits)
			r.Post("/{id}/images", h.AddImage)
			r.Put("/{id}/images/{imageId}", h.UpdateImage)
			r.Delete("/{id}/images/{imageId}", h.DeleteImage)
		})
	})
}

// healthCheck runs every probe and answers 503 when one of them fails
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	status, code := "healthy", http.StatusOK
	checks := make(map[string]string, len(rt.handlers.Probes))
	for name, probe := range rt.handlers.Probes {
		if err := probe(ctx); err != nil {
			rt.logger.With("dependency", name).Warnf("Health probe failed: %v", err)
			checks[name] = "unavailable"
			status, code = "unhealthy", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	response.JSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
