package handler

import (
	"net/http"

	"github.com/MallamTeja/Fintrack/internal/domain"
	"github.com/MallamTeja/Fintrack/internal/domain/transaction"
	"github.com/MallamTeja/Fintrack/internal/services"
	"github.com/MallamTeja/Fintrack/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	service *services.TransactionService
}

func NewTransactionHandler(service *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var q httpdto.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query")
		return
	}

	list, err := h.service.List(c.Request.Context(), userID, transaction.Filter{
		Type:     domain.TransactionType(q.Type),
		Category: q.Category,
		From:     q.From,
		To:       q.To,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewListResponse(list))
}

func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req httpdto.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Type, amount and category are required")
		return
	}
	t, err := h.service.Create(c.Request.Context(), userID, transactionInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(t))
}

func (h *TransactionHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req httpdto.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Type, amount and category are required")
		return
	}
	t, err := h.service.Update(c.Request.Context(), userID, id, transactionInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(t))
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := h.service.Delete(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(t))
}

func transactionInput(r httpdto.TransactionRequest) services.TransactionInput {
	return services.TransactionInput{
		Type:        r.Type,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date,
	}
}
