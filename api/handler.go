package api

import (
	"context"
	"errors"
	"net/http"

	"api_pos/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// salesHandler holds the sales service and implements HTTP handlers for
// inventory and sale operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

// handleSell handles the POST /sales endpoint.
func (h *salesHandler) handleSell(ctx *gin.Context) {
	var req struct {
		ProductID int64        `json:"product_id"`
		Quantity  numericInput `json:"quantity"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	sale, err := h.salesService.Sell(ctx.Request.Context(), req.ProductID, req.Quantity.String())
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, sale)
}

// handleListSales handles the GET /sales endpoint.
func (h *salesHandler) handleListSales(ctx *gin.Context) {
	var productID int64
	if raw := ctx.Query("product_id"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid product_id filter"})
			return
		}
		productID = id
	}

	results, metadata, err := h.salesService.ListSales(ctx.Request.Context(), productID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"results": results, "metadata": metadata})
}

func (h *salesHandler) handleListProducts(ctx *gin.Context) {
	products, err := h.salesService.ListProducts(ctx.Request.Context())
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": products})
}

func (h *salesHandler) handleGetProduct(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.salesService.GetProduct(ctx.Request.Context(), id)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

// handleUpsertProduct handles POST /products: create or overwrite by name.
func (h *salesHandler) handleUpsertProduct(ctx *gin.Context) {
	var req struct {
		Name     string       `json:"name"`
		Price    numericInput `json:"price"`
		Quantity numericInput `json:"quantity"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	product, err := h.salesService.UpsertProduct(ctx.Request.Context(), req.Name, req.Price.String(), req.Quantity.String())
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

// handleRestock handles PATCH /products/:id/stock.
func (h *salesHandler) handleRestock(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var req struct {
		Delta numericInput `json:"delta"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	product, err := h.salesService.RestockProduct(ctx.Request.Context(), id, req.Delta.String())
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

func (h *salesHandler) handleDeleteProduct(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := h.salesService.DeleteProduct(ctx.Request.Context(), id); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// writeError turns an engine failure into a user-facing message.
func (h *salesHandler) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, sales.ErrInvalidInput), errors.Is(err, sales.ErrInvalidQuantity):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, sales.ErrProductNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, sales.ErrInsufficientStock), errors.Is(err, sales.ErrProductInUse):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
	default:
		h.logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

