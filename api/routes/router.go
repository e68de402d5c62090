package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/photostream-labs/photostream-backend/api/controllers"
	"github.com/photostream-labs/photostream-backend/api/middleware"
	"github.com/photostream-labs/photostream-backend/internal/photos"
	"github.com/photostream-labs/photostream-backend/internal/uploads"
	"github.com/photostream-labs/photostream-backend/pkg/config"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readyDeps controllers.ReadyDeps,
	uploadsService uploads.Service,
	photosService photos.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.ExtraOrigins),
		middleware.Identity(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readyDeps, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/identity", controllers.IdentityCreate())
		r.Post("/uploads/presign", controllers.UploadPresign(uploadsService, logg))

		r.Route("/photos", func(r chi.Router) {
			r.Post("/", controllers.PhotoCreate(photosService, logg))
			r.Get("/", controllers.PhotoList(photosService, logg, cfg.Feed.DefaultPage, cfg.Feed.MaxPage))
			r.Get("/mine", controllers.MyPhotos(photosService, logg))
			r.Post("/{photoId}/like", controllers.PhotoToggleLike(photosService, logg))
			r.Delete("/{photoId}", controllers.PhotoDelete(photosService, logg))
		})
	})

	return r
}
