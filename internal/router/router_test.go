package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/virtuve/class-booking/internal/config"
	"github.com/virtuve/class-booking/internal/handler"
)

func registeredEcho() *echo.Echo {
	cfg := config.Config{
		JWTSecret:   "test-secret",
		FrontendURL: "http://localhost:3000",
	}
	e := echo.New()
	Register(e, cfg, nil, Handlers{
		Auth:       handler.NewAuthHandler(cfg),
		Class:      handler.NewClassHandler(nil),
		AdminClass: handler.NewAdminClassHandler(nil, nil),
		Booking:    handler.NewBookingHandler(nil),
		Webhook:    handler.NewWebhookHandler(nil),
		Meta:       handler.NewMetaHandler(cfg),
	})
	return e
}

func routeSet(e *echo.Echo) map[string]bool {
	set := make(map[string]bool)
	for _, r := range e.Routes() {
		set[r.Method+" "+r.Path] = true
	}
	return set
}

func TestRegisterExposesDocumentedPaths(t *testing.T) {
	routes := routeSet(registeredEcho())

	for _, want := range []string{
		"GET /healthz",
		"GET /config",
		"GET /api/config",
		"GET /api/classes",
		"GET /api/classes/:id",
		"POST /api/classes",
		"PUT /api/classes/:id",
		"DELETE /api/classes/:id",
		"POST /api/create-payment-intent",
		"POST /api/confirm-booking",
		"POST /api/cancel-booking",
		"GET /api/bookings/email/:email",
		"POST /api/admin/login",
		"POST /api/admin/logout",
		"GET /api/admin/check",
		"GET /api/admin/bookings",
		"GET /api/admin/classes/:id/stats",
		"POST /webhook",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}

	// Class management lives on /api/classes, not under /api/admin.
	assert.False(t, routes["POST /api/admin/classes"])
	assert.False(t, routes["PUT /api/admin/classes/:id"])
	assert.False(t, routes["DELETE /api/admin/classes/:id"])
}

func TestClassWritesRequireAdminToken(t *testing.T) {
	e := registeredEcho()

	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/classes"},
		{http.MethodPut, "/api/classes/1"},
		{http.MethodDelete, "/api/classes/1"},
		{http.MethodGet, "/api/admin/bookings"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s must be guarded", tc.method, tc.path)
	}
}
