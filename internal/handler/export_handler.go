package handler

import (
	"net/http"

	"github.com/MallamTeja/Fintrack/internal/domain"
	"github.com/MallamTeja/Fintrack/internal/domain/transaction"
	"github.com/MallamTeja/Fintrack/internal/services"
	"github.com/MallamTeja/Fintrack/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	service *services.ExportService
}

func NewExportHandler(service *services.ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Transactions accepts the same filters as the transaction listing.
func (h *ExportHandler) Transactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var q httpdto.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query")
		return
	}

	out, err := h.service.ExportTransactions(c.Request.Context(), userID, transaction.Filter{
		Type:     domain.TransactionType(q.Type),
		Category: q.Category,
		From:     q.From,
		To:       q.To,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(out))
}
