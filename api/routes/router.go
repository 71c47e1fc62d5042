package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shelfstock-backend/api/controllers"
	"github.com/angelmondragon/shelfstock-backend/api/middleware"
	"github.com/angelmondragon/shelfstock-backend/internal/containers"
	"github.com/angelmondragon/shelfstock-backend/internal/products"
	"github.com/angelmondragon/shelfstock-backend/internal/shelves"
	"github.com/angelmondragon/shelfstock-backend/pkg/config"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/shelfstock-backend/pkg/redis"
)

// Services groups the inventory services exposed over HTTP.
type Services struct {
	Products   products.Service
	Containers containers.Service
	Shelves    shelves.Service
}

// NewRouter wires every inventory route. idempotencyStore and metricsHandler may be nil.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	metricsHandler http.Handler,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if metricsHandler != nil && cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, cfg.FeatureFlags.IdempotencyTTL, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Post("/bulk-delete", controllers.ProductBulkDelete(svcs.Products, logg))
			r.Get("/search", controllers.ProductSearch(svcs.Products, logg))
			r.Post("/{productId}/identifiers", controllers.ProductAddIdentifiers(svcs.Products, logg))
		})

		r.Route("/containers", func(r chi.Router) {
			r.Post("/", controllers.ContainerCreate(svcs.Containers, logg))
			r.Post("/bulk-delete", controllers.ContainerBulkDelete(svcs.Containers, logg))
			r.Get("/{containerId}", controllers.ContainerLookup(svcs.Containers, logg))
			r.Get("/{containerId}/contents", controllers.ContainerContents(svcs.Containers, logg))
			r.Post("/{containerId}/products", controllers.ContainerAddProduct(svcs.Containers, logg))
			r.Post("/{containerId}/products/remove", controllers.ContainerRemoveProduct(svcs.Containers, logg))
		})

		r.Route("/shelves", func(r chi.Router) {
			r.Post("/", controllers.ShelfCreate(svcs.Shelves, logg))
			r.Post("/bulk-delete", controllers.ShelfBulkDelete(svcs.Shelves, logg))
			r.Post("/bindings", controllers.ShelfBind(svcs.Shelves, logg))
			r.Post("/unbind", controllers.ShelfUnbind(svcs.Shelves, logg))
			r.Get("/{shelfId}/containers", controllers.ShelfContainers(svcs.Shelves, logg))
		})
	})

	return r
}
