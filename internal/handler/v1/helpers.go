package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medagenda/api/internal/domain"
	"github.com/medagenda/api/internal/domain/appointment"
	"github.com/medagenda/api/internal/domain/blockedtime"
	"github.com/medagenda/api/internal/domain/consultationtype"
	"github.com/medagenda/api/internal/domain/doctor"
	"github.com/medagenda/api/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, appointment.ErrNotFound),
		errors.Is(err, blockedtime.ErrNotFound),
		errors.Is(err, consultationtype.ErrNotFound),
		errors.Is(err, doctor.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrSlotTaken),
		errors.Is(err, appointment.ErrSlotBlocked),
		errors.Is(err, blockedtime.ErrAlreadyBlocked),
		errors.Is(err, blockedtime.ErrSlotHasAppointment),
		errors.Is(err, consultationtype.ErrNameTaken),
		errors.Is(err, consultationtype.ErrInUse):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrPastDateTime),
		errors.Is(err, appointment.ErrAlreadyElapsed),
		errors.Is(err, appointment.ErrInvalidDate),
		errors.Is(err, appointment.ErrInvalidTime),
		errors.Is(err, appointment.ErrInvalidModality),
		errors.Is(err, appointment.ErrInvalidDoctor),
		errors.Is(err, appointment.ErrInvalidConsultationType),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, blockedtime.ErrPastDateTime),
		errors.Is(err, blockedtime.ErrInvalidDate),
		errors.Is(err, blockedtime.ErrInvalidTime),
		errors.Is(err, consultationtype.ErrInvalidDuration),
		errors.Is(err, consultationtype.ErrNotAllowedForDoctor):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseIDParam(c *gin.Context, param string) (uint, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

func parseQueryUint(c *gin.Context, key string) (*uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + key + ": must be a positive integer"})
		return nil, false
	}
	id := uint(v)
	return &id, true
}

func claimsFromContext(c *gin.Context) *domain.Claims {
	v, ok := c.Get(contextKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*domain.Claims)
	return claims
}
