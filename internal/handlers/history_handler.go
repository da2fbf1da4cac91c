package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/pagination"
	"papertrade/internal/services"
)

// HistoryHandler handles transaction history requests.
type HistoryHandler struct {
	historyService services.HistoryServicer
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService services.HistoryServicer) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// ListTransactions returns the user's trade ledger
// @Summary     List transactions
// @Description Paginated trade history in insertion order, oldest first
// @Tags        history
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size (max 100)"
// @Success     200 {object} pagination.PageResponse[services.LedgerEntry] "Transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /history [get]
func (h *HistoryHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transactions, err := h.historyService.ListTransactions(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}
