package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"meditrip-api/internal/middleware"
	"meditrip-api/internal/model"
	"meditrip-api/internal/payment"
)

type createPaymentRequest struct {
	AppointmentID string `json:"appointment_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Method        string `json:"payment_method"`
}

type paymentResponse struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	DoctorID      string    `json:"doctor_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Method        string    `json:"payment_method"`
	Status        string    `json:"status"`
	ProviderRef   string    `json:"provider_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		AppointmentID: p.AppointmentID,
		PatientID:     p.PatientID,
		DoctorID:      p.DoctorID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Method:        p.Method,
		Status:        string(p.Status),
		ProviderRef:   p.ProviderRef,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (h *Handler) CreatePayment(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	var req createPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.linker.CreatePayment(c.Request().Context(), payment.CreateRequest{
		AppointmentID: req.AppointmentID,
		RequesterID:   id.UserID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Method:        req.Method,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, toPaymentResponse(p))
}

type confirmPaymentRequest struct {
	ProviderReference string `json:"provider_reference"`
}

func (h *Handler) ConfirmPayment(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	var req confirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.linker.ConfirmProviderPayment(c.Request().Context(), c.Param("id"), req.ProviderReference, id.UserID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResponse(p))
}

type initiatePaymentRequest struct {
	Destination string `json:"destination"`
}

func (h *Handler) InitiatePayment(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	var req initiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	init, err := h.linker.InitiateAlternatePayment(c.Request().Context(), c.Param("id"), req.Destination, id.UserID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, init)
}
