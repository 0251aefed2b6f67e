package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/medagenda/api/internal/domain/doctor"
	"github.com/medagenda/api/internal/service"
)

type DoctorHandler struct {
	doctors doctor.Repository
	types   *service.ConsultationTypeService
}

func NewDoctorHandler(doctors doctor.Repository, types *service.ConsultationTypeService) *DoctorHandler {
	return &DoctorHandler{doctors: doctors, types: types}
}

func (h *DoctorHandler) List(c *gin.Context) {
	doctors, err := h.doctors.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, doctors)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	d, err := h.doctors.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	typeIDs, err := h.types.ListForDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"doctor":                d,
		"consultation_type_ids": typeIDs,
	})
}
