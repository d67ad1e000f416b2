package handler

import (
	"github.com/labstack/echo/v4"

	"meditrip-api/internal/middleware"
	"meditrip-api/internal/model"
)

// RegisterRoutes wires the API surface. The per-address rate limiter sits
// ahead of everything; all routes under /v1 except auth require a bearer
// token.
func (h *Handler) RegisterRoutes(e *echo.Echo, rl *middleware.RateLimiter) {
	v1 := e.Group("/v1", middleware.RateLimit(rl))

	pub := v1.Group("/auth")
	pub.POST("/register", h.Register)
	pub.POST("/login", h.Login)
	pub.POST("/refresh", h.Refresh)

	authed := v1.Group("", middleware.Auth(h.secret))
	authed.POST("/auth/logout", h.Logout)

	authed.POST("/appointments", h.CreateAppointment, middleware.RequireRole(model.RolePatient))
	authed.GET("/appointments", h.ListMyAppointments)
	authed.GET("/appointments/:id", h.GetAppointment)
	authed.PATCH("/appointments/:id/status", h.UpdateAppointmentStatus, middleware.RequireRole(model.RoleDoctor))
	authed.POST("/appointments/:id/cancel", h.CancelAppointment, middleware.RequireRole(model.RolePatient))
	authed.POST("/appointments/:id/reschedule", h.RescheduleAppointment, middleware.RequireRole(model.RolePatient))
	authed.GET("/doctor/appointments", h.ListDoctorAppointments, middleware.RequireRole(model.RoleDoctor))

	authed.POST("/payments", h.CreatePayment, middleware.RequireRole(model.RolePatient))
	authed.POST("/payments/:id/confirm", h.ConfirmPayment, middleware.RequireRole(model.RolePatient))
	authed.POST("/payments/:id/initiate", h.InitiatePayment, middleware.RequireRole(model.RolePatient))
}
