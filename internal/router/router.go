package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	apiHandler "github.com/fastygo/bizdesk/api/handler"
)

type Handlers struct {
	Lead    *apiHandler.LeadHandler
	Booking *apiHandler.BookingHandler
	Role    *apiHandler.RoleHandler
	Health  *apiHandler.HealthHandler
	// Event is nil when no event journal is configured.
	Event *apiHandler.EventHandler
}

// Options toggles the operational endpoints.
type Options struct {
	// Metrics, when set, is served on GET /metrics.
	Metrics prometheus.Gatherer
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")

	// Contact form, no principal required
	api.POST("/leads/public", handlers.Lead.CreatePublic)

	api.POST("/leads", authMiddleware(handlers.Lead.Create))
	api.GET("/leads", authMiddleware(handlers.Lead.List))
	api.GET("/leads/{id}", authMiddleware(handlers.Lead.Get))
	api.PATCH("/leads/{id}", authMiddleware(handlers.Lead.Update))
	api.PUT("/leads/{id}/stage", authMiddleware(handlers.Lead.UpdateStage))
	api.POST("/leads/{id}/contacts", authMiddleware(handlers.Lead.AddContact))
	api.GET("/leads/{id}/contacts", authMiddleware(handlers.Lead.ListContacts))
	api.POST("/leads/{id}/convert", authMiddleware(handlers.Lead.Convert))

	api.POST("/bookings", authMiddleware(handlers.Booking.Create))
	api.GET("/bookings", authMiddleware(handlers.Booking.List))
	api.GET("/bookings/{id}", authMiddleware(handlers.Booking.Get))
	api.PATCH("/bookings/{id}", authMiddleware(handlers.Booking.Update))
	api.PUT("/bookings/{id}/status", authMiddleware(handlers.Booking.ChangeStatus))
	api.POST("/bookings/{id}/cancel", authMiddleware(handlers.Booking.Cancel))

	api.POST("/roles", authMiddleware(handlers.Role.Create))
	api.GET("/roles", authMiddleware(handlers.Role.List))
	api.GET("/roles/{id}", authMiddleware(handlers.Role.Get))
	api.PATCH("/roles/{id}", authMiddleware(handlers.Role.Update))
	api.DELETE("/roles/{id}", authMiddleware(handlers.Role.Deactivate))

	if handlers.Event != nil {
		api.GET("/events/{id}", authMiddleware(handlers.Event.ListByAggregate))
	}

	return r
}
