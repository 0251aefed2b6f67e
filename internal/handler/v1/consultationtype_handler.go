package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/medagenda/api/internal/domain/consultationtype"
	"github.com/medagenda/api/internal/service"
)

type ConsultationTypeHandler struct {
	svc *service.ConsultationTypeService
}

func NewConsultationTypeHandler(svc *service.ConsultationTypeService) *ConsultationTypeHandler {
	return &ConsultationTypeHandler{svc: svc}
}

func (h *ConsultationTypeHandler) List(c *gin.Context) {
	types, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, types)
}

type createConsultationTypeRequest struct {
	Name         string `json:"name" binding:"required"`
	DurationMins int    `json:"duration_mins" binding:"required"`
	Description  string `json:"description"`
}

func (h *ConsultationTypeHandler) Create(c *gin.Context) {
	var req createConsultationTypeRequest
	if !bindJSON(c, &req) {
		return
	}

	ct, err := h.svc.Create(c.Request.Context(), &consultationtype.CreateCommand{
		Name:         req.Name,
		DurationMins: req.DurationMins,
		Description:  req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, ct)
}

type updateConsultationTypeRequest struct {
	Name         *string `json:"name"`
	DurationMins *int    `json:"duration_mins"`
	Description  *string `json:"description"`
}

func (h *ConsultationTypeHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateConsultationTypeRequest
	if !bindJSON(c, &req) {
		return
	}

	ct, err := h.svc.Update(c.Request.Context(), id, &consultationtype.UpdateCommand{
		Name:         req.Name,
		DurationMins: req.DurationMins,
		Description:  req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, ct)
}

func (h *ConsultationTypeHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": id})
}

func (h *ConsultationTypeHandler) AssignToDoctor(c *gin.Context) {
	doctorID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	typeID, ok := parseIDParam(c, "typeId")
	if !ok {
		return
	}

	if err := h.svc.AssignToDoctor(c.Request.Context(), doctorID, typeID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"doctor_id": doctorID, "consultation_type_id": typeID})
}

func (h *ConsultationTypeHandler) UnassignFromDoctor(c *gin.Context) {
	doctorID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	typeID, ok := parseIDParam(c, "typeId")
	if !ok {
		return
	}

	if err := h.svc.UnassignFromDoctor(c.Request.Context(), doctorID, typeID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"doctor_id": doctorID, "consultation_type_id": typeID, "unassigned": true})
}
