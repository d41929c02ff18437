package transport

import (
	"errors"
	"net/http"
	"strconv"

	"bevera/internal/middleware"
	"bevera/internal/repository"
	"bevera/internal/service"
	"bevera/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryRequest carries category fields from the admin API
type CategoryRequest struct {
	Name     string `json:"name" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

// BrandRequest carries brand fields from the admin API
type BrandRequest struct {
	Name     string `json:"name" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

// ProductRequest carries product fields from the admin API. Money and
// measure fields arrive as strings so decimals survive the JSON boundary.
type ProductRequest struct {
	Name              string  `json:"name" validate:"required"`
	SKU               string  `json:"sku" validate:"required"`
	Description       string  `json:"description"`
	Price             string  `json:"price" validate:"required,money"`
	VolumeLiters      string  `json:"volume_liters"`
	AlcoholPercent    string  `json:"alcohol_percent"`
	PackageType       string  `json:"package_type"`
	Stock             int     `json:"stock" validate:"gte=0"`
	LowStockThreshold int     `json:"low_stock_threshold" validate:"gte=0"`
	IsActive          bool    `json:"is_active"`
	CategoryID        string  `json:"category_id" validate:"required,uuid"`
	BrandID           *string `json:"brand_id" validate:"omitempty,uuid"`
}

// AdminCatalogHandler serves back-office category, brand, product, and
// image management. Categories and brands are admin only; products and
// images are open to workers as well.
type AdminCatalogHandler struct {
	catalogService service.CatalogService
	imageStore     *upload.ImageStore
	logger         *zap.Logger
}

// NewAdminCatalogHandler creates a new AdminCatalogHandler
func NewAdminCatalogHandler(catalogService service.CatalogService, imageStore *upload.ImageStore, logger *zap.Logger) *AdminCatalogHandler {
	return &AdminCatalogHandler{
		catalogService: catalogService,
		imageStore:     imageStore,
		logger:         logger,
	}
}

// RegisterRoutes registers back-office catalog routes
func (h *AdminCatalogHandler) RegisterRoutes(r chi.Router, authMiddleware, adminOnly, backOffice func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Post("/{id}/image", h.UploadCategoryImage)
				r.Delete("/{id}", h.DeleteCategory)
			})

			r.Route("/brands", func(r chi.Router) {
				r.Get("/", h.ListBrands)
				r.Post("/", h.CreateBrand)
				r.Put("/{id}", h.UpdateBrand)
				r.Delete("/{id}", h.DeleteBrand)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(backOffice)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.ListProducts)
				r.Post("/", h.CreateProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
				r.Post("/{id}/images", h.UploadImage)
			})

			r.Delete("/images/{id}", h.DeleteImage)
		})
	})
}

// ListCategories returns all categories, inactive ones included
func (h *AdminCatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context(), false)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// CreateCategory creates a category from a JSON payload
func (h *AdminCatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), req.Name, "")
	if err != nil {
		if err == repository.ErrCategoryAlreadyExists {
			middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
			return
		}
		h.logger.Error("Failed to create category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// UpdateCategory updates a category's name and active flag
func (h *AdminCatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category, err := h.catalogService.UpdateCategory(r.Context(), id, req.Name, "", isActive)
	if err != nil {
		switch err {
		case repository.ErrCategoryNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
		case repository.ErrCategoryAlreadyExists:
			middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
		default:
			h.logger.Error("Failed to update category", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update category")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// UploadCategoryImage accepts one multipart image shown on the category tile.
// A new upload replaces the previous image and removes its file.
func (h *AdminCatalogHandler) UploadCategoryImage(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	storedFileName, err := h.imageStore.Save(file, header)
	if err != nil {
		switch err {
		case upload.ErrUnsupportedImageType:
			middleware.RespondWithError(w, http.StatusBadRequest, "unsupported image type")
		case upload.ErrFileTooLarge:
			middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
		default:
			h.logger.Error("Failed to store category image", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to store image")
		}
		return
	}

	previous := ""
	if category, err := h.catalogService.GetCategory(r.Context(), categoryID); err == nil {
		previous = category.ImagePath
	}

	category, err := h.catalogService.SetCategoryImage(r.Context(), categoryID, storedFileName)
	if err != nil {
		// The record failed, so the file on disk is orphaned; remove it.
		if removeErr := h.imageStore.Remove(storedFileName); removeErr != nil {
			h.logger.Warn("Failed to remove orphaned image file", zap.Error(removeErr))
		}
		if err == repository.ErrCategoryNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("Failed to set category image", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to set category image")
		return
	}

	if previous != "" && previous != storedFileName {
		if err := h.imageStore.Remove(previous); err != nil {
			h.logger.Warn("Failed to remove replaced category image", zap.Error(err))
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// DeleteCategory deletes a category without products
func (h *AdminCatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteCategory(r.Context(), id); err != nil {
		switch err {
		case repository.ErrCategoryNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
		case repository.ErrCategoryInUse:
			middleware.RespondWithError(w, http.StatusConflict, "category has products and cannot be deleted")
		default:
			h.logger.Error("Failed to delete category", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete category")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListBrands returns all brands, inactive ones included
func (h *AdminCatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalogService.ListBrands(r.Context(), false)
	if err != nil {
		h.logger.Error("Failed to list brands", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list brands")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, brands)
}

// CreateBrand creates a brand
func (h *AdminCatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req BrandRequest
	if !h.decode(w, r, &req) {
		return
	}

	brand, err := h.catalogService.CreateBrand(r.Context(), req.Name)
	if err != nil {
		if err == repository.ErrBrandAlreadyExists {
			middleware.RespondWithError(w, http.StatusConflict, "brand with this name already exists")
			return
		}
		h.logger.Error("Failed to create brand", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create brand")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, brand)
}

// UpdateBrand updates a brand's name and active flag
func (h *AdminCatalogHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req BrandRequest
	if !h.decode(w, r, &req) {
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	brand, err := h.catalogService.UpdateBrand(r.Context(), id, req.Name, isActive)
	if err != nil {
		switch err {
		case repository.ErrBrandNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "brand not found")
		case repository.ErrBrandAlreadyExists:
			middleware.RespondWithError(w, http.StatusConflict, "brand with this name already exists")
		default:
			h.logger.Error("Failed to update brand", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update brand")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, brand)
}

// DeleteBrand deletes a brand
func (h *AdminCatalogHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteBrand(r.Context(), id); err != nil {
		if err == repository.ErrBrandNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "brand not found")
			return
		}
		h.logger.Error("Failed to delete brand", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete brand")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "brand deleted"})
}

// ListProducts returns the paginated back-office product list, inactive
// products included.
func (h *AdminCatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	filter := repository.ProductFilter{
		Page:     page,
		PageSize: pageSize,
		SortBy:   r.URL.Query().Get("sort_by"),
	}
	if r.URL.Query().Get("sort_order") == "asc" {
		filter.SortOrder = repository.SortOrderAsc
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

// CreateProduct creates a product
func (h *AdminCatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	input, err := h.toProductInput(req)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), input)
	if err != nil {
		h.respondProductError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct updates a product
func (h *AdminCatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	input, err := h.toProductInput(req)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), id, input)
	if err != nil {
		h.respondProductError(w, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct deletes a product not referenced by carts or orders
func (h *AdminCatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), id); err != nil {
		switch err {
		case repository.ErrProductNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case repository.ErrProductInUse:
			middleware.RespondWithError(w, http.StatusConflict, "product is referenced by carts or orders")
		default:
			h.logger.Error("Failed to delete product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// UploadImage accepts one multipart image for a product. Sending main=true
// makes it the product's main image; the first image becomes main anyway.
func (h *AdminCatalogHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	storedFileName, err := h.imageStore.Save(file, header)
	if err != nil {
		switch err {
		case upload.ErrUnsupportedImageType:
			middleware.RespondWithError(w, http.StatusBadRequest, "unsupported image type")
		case upload.ErrFileTooLarge:
			middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
		default:
			h.logger.Error("Failed to store image", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to store image")
		}
		return
	}

	asMain, _ := strconv.ParseBool(r.FormValue("main"))

	image, err := h.catalogService.AddProductImage(r.Context(), productID, storedFileName, asMain)
	if err != nil {
		// The record failed, so the file on disk is orphaned; remove it.
		if removeErr := h.imageStore.Remove(storedFileName); removeErr != nil {
			h.logger.Warn("Failed to remove orphaned image file", zap.Error(removeErr))
		}
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to add product image", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add product image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, image)
}

// DeleteImage removes an image record and its file
func (h *AdminCatalogHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	image, err := h.catalogService.DeleteProductImage(r.Context(), id)
	if err != nil {
		if err == repository.ErrProductImageNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "image not found")
			return
		}
		h.logger.Error("Failed to delete image", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}

	if err := h.imageStore.Remove(image.Path); err != nil {
		h.logger.Warn("Failed to remove image file", zap.Error(err))
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "image deleted"})
}

func (h *AdminCatalogHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *AdminCatalogHandler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *AdminCatalogHandler) toProductInput(req ProductRequest) (service.ProductInput, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return service.ProductInput{}, err
	}

	input := service.ProductInput{
		Name:              req.Name,
		SKU:               req.SKU,
		Description:       req.Description,
		Price:             req.Price,
		VolumeLiters:      req.VolumeLiters,
		AlcoholPercent:    req.AlcoholPercent,
		PackageType:       req.PackageType,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          req.IsActive,
		CategoryID:        categoryID,
	}

	if req.BrandID != nil && *req.BrandID != "" {
		brandID, err := uuid.Parse(*req.BrandID)
		if err != nil {
			return service.ProductInput{}, err
		}
		input.BrandID = &brandID
	}

	return input, nil
}

func (h *AdminCatalogHandler) respondProductError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, service.ErrInvalidProductInput) {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch err {
	case repository.ErrProductNotFound:
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case repository.ErrCategoryNotFound:
		middleware.RespondWithError(w, http.StatusBadRequest, "category does not exist")
	case service.ErrBrandRequired:
		middleware.RespondWithError(w, http.StatusBadRequest, "brand does not exist")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
