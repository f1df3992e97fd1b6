package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"provledger/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// A nil gatherer leaves /metrics unregistered.
func RegisterRoutes(app *fiber.App, slot Pinger, svc service.ProvenanceService, gatherer prometheus.Gatherer) {
	app.Get("/health", HealthCheck(slot))
	app.Get("/healthz", LivenessProbe())

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	app.Post("/digests", ComputeDigest(svc))

	app.Post("/provenance", TrackProvenance(svc))
	app.Get("/provenance", ListProvenance(svc))
	app.Get("/provenance/:id", GetProvenance(svc))
}
