package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// RouterOptions configures the outer surface of the router
type RouterOptions struct {
	CORSOrigins []string
	ImageDir    string // served under ImagePrefix when set
	ImagePrefix string
}

// NewRouter mounts every endpoint of h
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if opts.ImageDir != "" {
		prefix := "/" + strings.Trim(opts.ImagePrefix, "/")
		if prefix == "/" {
			prefix = "/images"
		}
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(opts.ImageDir))))
	}

	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWS)
	}

	r.Route("/api/v1.0", func(r chi.Router) {
		// Public endpoints
		r.Post("/users", h.Register)
		r.Post("/sessions", h.Login)
		r.Delete("/sessions", h.DeleteSession)
		r.Get("/areas", h.GetAreas)
		r.Get("/houses", h.SearchHouses)
		r.Get("/houses/index", h.GetIndex)
		r.Get("/houses/{id}", h.GetHouse)

		// Protected endpoints (require JWT)
		r.Group(func(r chi.Router) {
			r.Use(h.JWTAuthMiddleware)
			r.Get("/sessions", h.GetSession)

			r.Get("/user", h.GetProfile)
			r.Put("/user/name", h.SetName)
			r.Post("/user/avatar", h.SetAvatar)
			r.Get("/user/auth", h.GetRealNameAuth)
			r.Post("/user/auth", h.SetRealNameAuth)
			r.Get("/user/houses", h.GetUserHouses)
			r.Get("/user/orders", h.GetUserOrders)

			r.Post("/houses", h.CreateHouse)
			r.Post("/houses/{id}/images", h.AddHouseImage)

			r.Post("/orders", h.PlaceOrder)
			r.Put("/orders/{id}/status", h.SetOrderStatus)
			r.Put("/orders/{id}/payment", h.PayOrder)
			r.Put("/orders/{id}/comment", h.CommentOrder)
			r.Delete("/orders/{id}", h.CancelOrder)
		})
	})

	return r
}

// RequestLogger logs one entry per request through logger
func RequestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			entry := logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("Request served")
				return
			}
			entry.Debug("Request served")
		})
	}
}
