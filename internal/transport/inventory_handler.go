package transport

import (
	"net/http"

	"bevera/internal/middleware"
	"bevera/internal/repository"
	"bevera/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RestockRequest adds stock to a product
type RestockRequest struct {
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Reason   string `json:"reason"`
}

// InventoryHandler serves back-office stock management
type InventoryHandler struct {
	inventoryService service.InventoryService
	logger           *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// RegisterRoutes registers inventory routes for admins and workers
func (h *InventoryHandler) RegisterRoutes(r chi.Router, authMiddleware, backOffice func(http.Handler) http.Handler) {
	r.Route("/api/inventory", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(backOffice)
		r.Post("/{productID}/restock", h.Restock)
		r.Get("/{productID}/movements", h.ListMovements)
		r.Get("/low-stock", h.ListLowStock)
	})
}

// Restock adds stock and records a ledger movement
func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req RestockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movement, err := h.inventoryService.Restock(r.Context(), productID, req.Quantity, req.Reason, actorID)
	if err != nil {
		switch err {
		case service.ErrNonPositiveRestock:
			middleware.RespondWithError(w, http.StatusBadRequest, "restock quantity must be positive")
		case repository.ErrProductNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		default:
			h.logger.Error("Failed to restock", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to restock")
		}
		return
	}

	h.logger.Info("Product restocked",
		zap.String("product_id", productID.String()),
		zap.Int("quantity", req.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, movement)
}

// ListMovements returns a product's stock ledger, newest first
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	movements, err := h.inventoryService.ListMovements(r.Context(), productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to list movements", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list movements")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, movements)
}

// ListLowStock returns products at or below their low-stock threshold
func (h *InventoryHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.inventoryService.ListLowStock(r.Context())
	if err != nil {
		h.logger.Error("Failed to list low stock products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list low stock products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}
