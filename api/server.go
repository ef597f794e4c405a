/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/gate/*           Vehicle entry and exit
  /api/sessions/*       Visit lifecycle and settlement
  /api/customers/*      Customer registry
  /api/vehicles/*       Vehicle registry
  /api/subscriptions/*  Subscription management
  /api/spots/*          Spot inventory and maintenance
  /api/reports/*        Occupancy and revenue reporting
  /api/staff/*          Staff and shift records
  /api/scenarios/*      Demo scenarios
  /api/reset            Database reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Gate routes (entry/exit barriers)
		r.Route("/gate", func(r chi.Router) {
			r.Post("/entry", h.GateEntry)
			r.Post("/exit", h.GateExit)
		})

		// Session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/active", h.ListActiveSessions)
			r.Get("/unpaid", h.ListUnpaidSessions)
			r.Get("/{id}", h.GetSession)
			r.Post("/{id}/settle", h.SettleSession)
		})

		// Customer routes
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/search", h.SearchCustomers)
			r.Get("/{id}", h.GetCustomer)
			r.Get("/{id}/vehicles", h.ListCustomerVehicles)
			r.Get("/{id}/subscriptions", h.ListCustomerSubscriptions)
			r.Post("/{id}/subscriptions", h.Subscribe)
		})

		// Vehicle routes
		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", h.ListVehicles)
			r.Post("/", h.RegisterVehicle)
			r.Get("/{plate}", h.GetVehicle)
		})

		// Subscription routes
		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", h.ListSubscriptions)
			r.Post("/{id}/cancel", h.CancelSubscription)
		})

		// Plan catalogue
		r.Get("/plans", h.ListPlans)

		// Spot routes
		r.Route("/spots", func(r chi.Router) {
			r.Get("/", h.ListSpots)
			r.Post("/", h.CreateSpots)
			r.Post("/maintenance", h.SetSpotMaintenance)
		})

		// Staff routes
		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.CreateStaff)
		})
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.AssignShift)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/occupancy", h.OccupancyReport)
			r.Get("/revenue", h.RevenueReport)
			r.Get("/revenue/daily", h.DailyRevenueReport)
			r.Get("/revenue/monthly", h.MonthlyRevenueReport)
			r.Get("/top-customers", h.TopCustomersReport)
			r.Get("/vehicle-types", h.VehicleTypeReport)
			r.Get("/dashboard", h.Dashboard)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Parking Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Parking Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/sessions/active">/api/sessions/active</a> - Vehicles currently parked</li>
<li><a href="/api/spots">/api/spots</a> - Spot inventory</li>
<li><a href="/api/reports/occupancy">/api/reports/occupancy</a> - Occupancy snapshot</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
