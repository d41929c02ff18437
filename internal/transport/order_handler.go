package transport

import (
	"net/http"

	"bevera/internal/domain"
	"bevera/internal/middleware"
	"bevera/internal/repository"
	"bevera/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChangeStatusRequest moves an order to a new status
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler serves client checkout and back-office order management
type OrderHandler struct {
	orderService   service.OrderService
	invoiceService service.InvoiceService
	logger         *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, invoiceService service.InvoiceService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// RegisterRoutes registers order routes. Client routes are scoped to the
// caller's own orders; back-office routes see everything.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, backOffice func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/checkout", h.Checkout)
		r.Get("/my", h.ListMyOrders)
		r.Get("/my/{id}", h.GetMyOrder)
		r.Get("/my/{id}/invoice", h.DownloadMyInvoice)

		r.Group(func(r chi.Router) {
			r.Use(backOffice)
			r.Get("/", h.ListOrders)
			r.Get("/summary", h.Summary)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/status", h.ChangeStatus)
			r.Get("/{id}/invoice", h.DownloadInvoice)
		})
	})
}

// Checkout converts the caller's cart into an order
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	order, err := h.orderService.Checkout(r.Context(), userID)
	if err != nil {
		switch err {
		case service.ErrCartEmpty:
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case service.ErrProductUnavailable:
			middleware.RespondWithError(w, http.StatusConflict, "a product in the cart is no longer available")
		case repository.ErrCartConsumed:
			middleware.RespondWithError(w, http.StatusConflict, "cart has already been checked out")
		case repository.ErrCartChanged:
			middleware.RespondWithError(w, http.StatusConflict, "cart changed during checkout, review it and try again")
		default:
			h.logger.Error("Checkout failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("client_id", userID.String()),
		zap.String("total", order.Total.StringFixed(2)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListMyOrders returns the caller's orders, newest first
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderService.ListMyOrders(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetMyOrder returns one of the caller's orders with items and history
func (h *OrderHandler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	detail, err := h.orderService.GetOrder(r.Context(), orderID, &userID)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, detail)
}

// DownloadMyInvoice streams the invoice PDF for one of the caller's orders
func (h *OrderHandler) DownloadMyInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.serveInvoice(w, r, &userID)
}

// ListOrders returns the paginated back-office order list, filtered by
// status and a free-text query over order ID, client email, and name.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	filter := repository.OrderFilter{
		Query:    r.URL.Query().Get("q"),
		Page:     page,
		PageSize: pageSize,
	}
	if rawStatus := r.URL.Query().Get("status"); rawStatus != "" {
		status, err := domain.ParseOrderStatus(rawStatus)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown order status")
			return
		}
		filter.Status = &status
	}

	orders, total, err := h.orderService.ListOrders(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PagedResponse{
		Items:    orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Summary returns order counts by status and delivered revenue
func (h *OrderHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.orderService.Summary(r.Context())
	if err != nil {
		h.logger.Error("Failed to load order summary", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// GetOrder returns any order with items and history
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	detail, err := h.orderService.GetOrder(r.Context(), orderID, nil)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, detail)
}

// ChangeStatus moves an order along the allowed transitions
func (h *OrderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req ChangeStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.ChangeStatus(r.Context(), orderID, req.Status, actorID)
	if err != nil {
		switch err {
		case repository.ErrOrderNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case service.ErrInvalidTransition:
			middleware.RespondWithError(w, http.StatusUnprocessableEntity, "status transition not allowed")
		case repository.ErrStatusConflict:
			middleware.RespondWithError(w, http.StatusConflict, "order status changed concurrently")
		default:
			if _, parseErr := domain.ParseOrderStatus(req.Status); parseErr != nil {
				middleware.RespondWithError(w, http.StatusBadRequest, "unknown order status")
				return
			}
			h.logger.Error("Failed to change order status", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to change status")
		}
		return
	}

	h.logger.Info("Order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// DownloadInvoice streams the invoice PDF for any order
func (h *OrderHandler) DownloadInvoice(w http.ResponseWriter, r *http.Request) {
	h.serveInvoice(w, r, nil)
}

func (h *OrderHandler) serveInvoice(w http.ResponseWriter, r *http.Request, forClient *uuid.UUID) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	file, err := h.invoiceService.EnsureInvoice(r.Context(), orderID, forClient)
	if err != nil {
		switch err {
		case repository.ErrOrderNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case service.ErrOrderAccessDenied:
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case service.ErrInvoiceFileMissing:
			middleware.RespondWithError(w, http.StatusNotFound, "invoice file not found")
		default:
			h.logger.Error("Failed to produce invoice", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to produce invoice")
		}
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	http.ServeFile(w, r, file.Path)
}

func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error) {
	switch err {
	case repository.ErrOrderNotFound:
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	case service.ErrOrderAccessDenied:
		// 404 rather than 403 so order IDs cannot be probed
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	default:
		h.logger.Error("Failed to load order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load order")
	}
}
