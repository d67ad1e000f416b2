package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"meditrip-api/internal/middleware"
	"meditrip-api/internal/model"
	"meditrip-api/internal/scheduling"
)

type createAppointmentRequest struct {
	DoctorID        string `json:"doctor_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Type            string `json:"appointment_type"`
	ConsultationFee int64  `json:"consultation_fee"`
	Notes           string `json:"notes"`
	Symptoms        string `json:"symptoms"`
	MedicalHistory  string `json:"medical_history"`
}

type appointmentResponse struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
	DoctorID        string    `json:"doctor_id"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	DurationMinutes int       `json:"duration_minutes"`
	Type            string    `json:"appointment_type"`
	Status          string    `json:"status"`
	ConsultationFee int64     `json:"consultation_fee"`
	Notes           string    `json:"notes,omitempty"`
	Symptoms        string    `json:"symptoms,omitempty"`
	MedicalHistory  string    `json:"medical_history,omitempty"`
	CancelReason    string    `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toResponse(a *model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		Date:            a.Date,
		Time:            a.Time,
		DurationMinutes: a.DurationMinutes,
		Type:            a.Type,
		Status:          string(a.Status),
		ConsultationFee: a.ConsultationFee,
		Notes:           a.Notes,
		Symptoms:        a.Symptoms,
		MedicalHistory:  a.MedicalHistory,
		CancelReason:    a.CancelReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	a, err := h.engine.CreateAppointment(c.Request().Context(), scheduling.CreateRequest{
		PatientID:       id.UserID,
		DoctorID:        req.DoctorID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		ConsultationFee: req.ConsultationFee,
		Notes:           req.Notes,
		Symptoms:        req.Symptoms,
		MedicalHistory:  req.MedicalHistory,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, toResponse(a))
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	a, err := h.engine.GetAppointment(c.Request().Context(), c.Param("id"), id.UserID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(a))
}

func (h *Handler) ListMyAppointments(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	apts, err := h.engine.ListForPatient(c.Request().Context(), id.UserID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toResponseList(apts))
}

func (h *Handler) ListDoctorAppointments(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	apts, err := h.engine.ListForDoctor(c.Request().Context(), id.UserID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toResponseList(apts))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateAppointmentStatus(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	a, err := h.engine.UpdateStatus(c.Request().Context(), c.Param("id"), model.AppointmentStatus(req.Status), id.UserID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(a))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	a, err := h.engine.Cancel(c.Request().Context(), c.Param("id"), id.UserID, req.Reason)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(a))
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *Handler) RescheduleAppointment(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	a, err := h.engine.Reschedule(c.Request().Context(), c.Param("id"), id.UserID, req.Date, req.Time)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(a))
}

func toResponseList(apts []model.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, len(apts))
	for i := range apts {
		out[i] = toResponse(&apts[i])
	}
	return out
}
