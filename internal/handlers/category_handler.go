package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/pagination"
	"dompet/internal/services"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRequest represents the request payload for creating or replacing a
// category. Omitting parent_id makes the category top-level.
type CategoryRequest struct {
	Name     string              `json:"name" binding:"required,max=100"`
	Type     models.CategoryType `json:"type" binding:"required,category_type"`
	ParentID *string             `json:"parent_id" binding:"omitempty,uuid"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a category, optionally under a top-level parent
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       request body CategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input or hierarchy"
// @Failure     404 {object} ErrorResponse "Parent category not found"
// @Failure     409 {object} ErrorResponse "Duplicate category"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), req.Name, req.Type, req.ParentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ListCategories handles the retrieval of categories
// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Param       type      query string false "Filter by type (income, expense, transfer)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Category] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var categoryType *models.CategoryType
	if v := c.Query("type"); v != "" {
		t := models.CategoryType(v)
		if !t.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income, expense, or transfer"))
			return
		}
		categoryType = &t
	}

	result, err := h.categoryService.ListCategories(c.Request.Context(), categoryType, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategoryByID handles the retrieval of a specific category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category with parent snapshot"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles replacing a category's fields
// @Summary     Update category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id      path string          true "Category ID"
// @Param       request body CategoryRequest true "Category details"
// @Success     200 {object} models.Category "Category updated"
// @Failure     400 {object} ErrorResponse "Invalid input or hierarchy"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Duplicate category"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), categoryID, req.Name, req.Type, req.ParentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete category
// @Description Delete a category. Its transactions become uncategorized and its subcategories become top-level.
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {object} map[string]string "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
