package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medagenda/api/internal/domain/appointment"
	"github.com/medagenda/api/internal/service"
)

type AppointmentHandler struct {
	bookings     *service.BookingService
	availability *service.AvailabilityService
}

func NewAppointmentHandler(bookings *service.BookingService, availability *service.AvailabilityService) *AppointmentHandler {
	return &AppointmentHandler{bookings: bookings, availability: availability}
}

// Available is public: patients browse free slots before authenticating.
func (h *AppointmentHandler) Available(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		respondError(c, http.StatusBadRequest, "date query parameter is required")
		return
	}

	doctorID, ok := parseQueryUint(c, "doctor_id")
	if !ok {
		return
	}
	if doctorID == nil {
		respondError(c, http.StatusBadRequest, "doctor_id query parameter is required")
		return
	}

	times, err := h.availability.AvailableTimes(c.Request.Context(), date, *doctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"date":            date,
		"doctor_id":       *doctorID,
		"available_times": times,
	})
}

type bookRequest struct {
	PatientID          uint   `json:"patient_id"`
	DoctorID           uint   `json:"doctor_id" binding:"required"`
	ConsultationTypeID uint   `json:"consultation_type_id" binding:"required"`
	Date               string `json:"date" binding:"required"`
	Time               string `json:"time" binding:"required"`
	Modality           string `json:"modality" binding:"required"`
	Notes              string `json:"notes"`
	RescheduledFrom    *uint  `json:"rescheduled_from"`
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	// Patients always book for themselves; only admins book on behalf of
	// someone else.
	patientID := claims.UserID
	if claims.IsAdmin() && req.PatientID != 0 {
		patientID = req.PatientID
	}

	cmd := &appointment.BookCommand{
		PatientID:          patientID,
		DoctorID:           req.DoctorID,
		ConsultationTypeID: req.ConsultationTypeID,
		Date:               req.Date,
		Time:               req.Time,
		Modality:           appointment.Modality(req.Modality),
		Notes:              req.Notes,
	}

	if req.RescheduledFrom != nil {
		// Reschedule is owner-or-admin; the ownership check needs the
		// original row, so it lives here rather than in the command.
		original, err := h.bookings.Get(c.Request.Context(), *req.RescheduledFrom, claims)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if !claims.IsAdmin() {
			cmd.PatientID = original.PatientID
		}
		cmd.RescheduledFrom = req.RescheduledFrom
	}

	appt, err := h.bookings.Book(c.Request.Context(), cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, appt)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	appt, err := h.bookings.Get(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, appt)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	doctorID, ok := parseQueryUint(c, "doctor_id")
	if !ok {
		return
	}
	patientID, ok := parseQueryUint(c, "patient_id")
	if !ok {
		return
	}

	q := &appointment.ListQuery{
		DoctorID:  doctorID,
		PatientID: patientID,
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
	}

	if raw := c.Query("status"); raw != "" {
		status := appointment.Status(raw)
		if !status.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid status: "+raw)
			return
		}
		q.Status = &status
	}
	if raw := c.Query("date"); raw != "" {
		q.Date = &raw
	}

	page, err := h.bookings.List(c.Request.Context(), q, claimsFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"appointments": page.Appointments,
		"total_count":  page.TotalCount,
		"page":         page.Page,
		"page_size":    page.PageSize,
		"total_pages":  page.TotalPages,
	})
}

type editRequest struct {
	Date               string  `json:"date" binding:"required"`
	Time               string  `json:"time" binding:"required"`
	ConsultationTypeID *uint   `json:"consultation_type_id"`
	Notes              *string `json:"notes"`
}

// Edit mutates the row in place. Moving to an occupied or blocked slot is
// rejected; the history-preserving path is Book with rescheduled_from.
func (h *AppointmentHandler) Edit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req editRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.EditCommand{
		Date:               req.Date,
		Time:               req.Time,
		ConsultationTypeID: req.ConsultationTypeID,
		Notes:              req.Notes,
	}

	appt, err := h.bookings.Edit(c.Request.Context(), id, cmd, claimsFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, appt)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	appt, err := h.bookings.Cancel(c.Request.Context(), id, &appointment.CancelCommand{Reason: req.Reason}, claimsFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, appt)
}

// Remove hard-deletes a future appointment. Admin only, enforced by the
// route group.
func (h *AppointmentHandler) Remove(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.bookings.Remove(c.Request.Context(), id, claimsFromContext(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": id})
}
