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

// CatalogHandler serves the public storefront: categories, products,
// search, and the caller's favorites.
type CatalogHandler struct {
	catalogService  service.CatalogService
	favoriteService service.FavoriteService
	logger          *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, favoriteService service.FavoriteService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService:  catalogService,
		favoriteService: favoriteService,
		logger:          logger,
	}
}

// RegisterRoutes registers storefront routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{slug}", h.CategoryProducts)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/search", h.Search)
	})

	r.Route("/api/favorites", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListFavorites)
		r.Post("/{productID}/toggle", h.ToggleFavorite)
	})
}

// ListCategories returns active categories for the storefront menu
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context(), true)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// CategoryProducts returns a category resolved by slug with its active products
func (h *CatalogHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	category, products, err := h.catalogService.ListProductsByCategory(r.Context(), slug)
	if err != nil {
		if err == repository.ErrCategoryNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("Failed to list category products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"category": category,
		"products": products,
	})
}

// ListProducts returns a paginated product listing, optionally filtered by
// category and sorted by a whitelisted field.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	filter := repository.ProductFilter{
		ActiveOnly: true,
		Page:       page,
		PageSize:   pageSize,
		SortBy:     r.URL.Query().Get("sort_by"),
	}
	if r.URL.Query().Get("sort_order") == "asc" {
		filter.SortOrder = repository.SortOrderAsc
	}
	if rawCategory := r.URL.Query().Get("category_id"); rawCategory != "" {
		categoryID, err := uuid.Parse(rawCategory)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
			return
		}
		filter.CategoryID = &categoryID
	}

	products, total, err := h.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PagedResponse{
		Items:    products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetProduct returns one product with its image gallery
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	images, err := h.catalogService.ListProductImages(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list product images", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"product": product,
		"images":  images,
	})
}

// Search returns active products whose name matches the query
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing search query")
		return
	}

	page, pageSize := pagination(r)

	products, total, err := h.catalogService.SearchProducts(r.Context(), query, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to search products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PagedResponse{
		Items:    products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// ToggleFavorite flips the favorite state of a product for the caller
func (h *CatalogHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	favorited, err := h.favoriteService.Toggle(r.Context(), userID, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to toggle favorite", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to toggle favorite")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

// ListFavorites returns the caller's favorited products
func (h *CatalogHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserUUID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	products, err := h.favoriteService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list favorites", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list favorites")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}
