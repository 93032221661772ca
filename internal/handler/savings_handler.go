package handler

import (
	"net/http"

	"github.com/MallamTeja/Fintrack/internal/services"
	"github.com/MallamTeja/Fintrack/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SavingsHandler struct {
	service *services.SavingsService
}

func NewSavingsHandler(service *services.SavingsService) *SavingsHandler {
	return &SavingsHandler{service: service}
}

func (h *SavingsHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	goals, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewListResponse(httpdto.NewGoalDTOs(goals)))
}

func (h *SavingsHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req httpdto.GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	g, err := h.service.Create(c.Request.Context(), userID, goalInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewGoalDTO(g)))
}

func (h *SavingsHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req httpdto.GoalPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	g, err := h.service.Update(c.Request.Context(), userID, id, services.GoalPatch{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		DueDate:       req.DueDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewGoalDTO(g)))
}

func (h *SavingsHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	g, err := h.service.Delete(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewGoalDTO(g)))
}

// Bulk creates or updates every goal in the request body array.
func (h *SavingsHandler) Bulk(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req []httpdto.GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Request body must be an array of savings goals")
		return
	}

	in := make([]services.GoalInput, 0, len(req))
	for _, r := range req {
		in = append(in, goalInput(r))
	}
	saved, err := h.service.Bulk(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewListResponse(httpdto.NewGoalDTOs(saved)))
}

func goalInput(r httpdto.GoalRequest) services.GoalInput {
	id := uuid.Nil
	if r.ID != nil {
		id = *r.ID
	}
	return services.GoalInput{
		ID:            id,
		Name:          r.Name,
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
		DueDate:       r.DueDate,
	}
}
