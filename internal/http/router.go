package http

import (
	"net/http"

	"rentflow-backend/internal/auth"
	"rentflow-backend/internal/cache"
	"rentflow-backend/internal/handlers"
	"rentflow-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	tenantHandler *handlers.TenantHandler,
	landlordHandler *handlers.LandlordHandler,
	partnerHandler *handlers.PartnerHandler,
	auditHandler *handlers.AuditHandler,
	notificationHandler *handlers.NotificationHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	idempotencyStore cache.IdempotencyStore,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate, middleware.APILogging, middleware.Idempotency(idempotencyStore))

	// Tenant: dashboard and payment flow
	tenantAPI := api.PathPrefix("/tenant").Subrouter()
	tenantAPI.Use(authMiddleware.RequireRole(auth.RoleTenant))
	tenantAPI.HandleFunc("/dashboard", tenantHandler.Dashboard).Methods("GET")
	tenantAPI.HandleFunc("/payments/history", tenantHandler.PaymentHistory).Methods("GET")
	tenantAPI.HandleFunc("/payment-flow", tenantHandler.FlowState).Methods("GET")
	tenantAPI.HandleFunc("/payment-flow/unit", tenantHandler.SelectUnit).Methods("POST")
	tenantAPI.HandleFunc("/payment-flow/method", tenantHandler.SelectMethod).Methods("POST")
	tenantAPI.HandleFunc("/payment-flow/form", tenantHandler.UpdateForm).Methods("PUT")
	tenantAPI.HandleFunc("/payment-flow/submit", tenantHandler.Submit).Methods("POST")
	tenantAPI.HandleFunc("/payment-flow/back", tenantHandler.Back).Methods("POST")
	tenantAPI.HandleFunc("/payment-flow/retry", tenantHandler.TryAgain).Methods("POST")
	tenantAPI.HandleFunc("/payment-flow/start-over", tenantHandler.StartOver).Methods("POST")
	tenantAPI.HandleFunc("/payment-flow/reset", tenantHandler.Reset).Methods("POST")
	tenantAPI.HandleFunc("/payment-flow/receipt", tenantHandler.Receipt).Methods("GET")

	// Landlord: pending manual payment confirmations
	landlordAPI := api.PathPrefix("/landlord").Subrouter()
	landlordAPI.Use(authMiddleware.RequireRole(auth.RoleLandlord, auth.RoleAdmin))
	landlordAPI.HandleFunc("/pending-payments", landlordHandler.PendingPayments).Methods("GET")
	landlordAPI.HandleFunc("/pending-payments/refresh", landlordHandler.Refresh).Methods("POST")
	landlordAPI.HandleFunc("/pending-payments/summary", landlordHandler.Summary).Methods("GET")
	landlordAPI.HandleFunc("/pending-payments/dialog", landlordHandler.CloseDialog).Methods("DELETE")
	landlordAPI.HandleFunc("/pending-payments/{id}/dialog", landlordHandler.OpenDialog).Methods("POST")
	landlordAPI.HandleFunc("/pending-payments/{id}/confirm", landlordHandler.Confirm).Methods("POST")
	landlordAPI.HandleFunc("/payments", landlordHandler.ListPayments).Methods("GET")

	// Partner: commission wallet and payouts
	partnerAPI := api.PathPrefix("/partner").Subrouter()
	partnerAPI.Use(authMiddleware.RequireRole(auth.RolePartner))
	partnerAPI.HandleFunc("/wallet", partnerHandler.Wallet).Methods("GET")
	partnerAPI.HandleFunc("/payouts", partnerHandler.Payouts).Methods("GET")
	partnerAPI.HandleFunc("/payouts", partnerHandler.RequestPayout).Methods("POST")

	// Any signed-in user: own audit trail
	api.HandleFunc("/audit", auditHandler.ListMine).Methods("GET")

	// Toast stream (token may come as ?token= on the upgrade request)
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware.Authenticate)
	ws.HandleFunc("", notificationHandler.Stream).Methods("GET")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not found"}`))
	})

	return r
}
