package services

import (
	"context"
	"errors"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/store"
)

// HierarchyManager enforces the one-level category nesting rule. It only
// reads, and always through the store handle it is given, so the checks see
// the caller's atomic scope.
type HierarchyManager struct{}

// NewHierarchyManager creates a HierarchyManager.
func NewHierarchyManager() *HierarchyManager {
	return &HierarchyManager{}
}

// ValidateParent checks that candidateParentID may become the parent of the
// category selfID (nil when the category does not exist yet) and returns the
// resolved parent.
func (h *HierarchyManager) ValidateParent(ctx context.Context, st *store.Store, candidateParentID string, selfID *string) (*models.Category, error) {
	if selfID != nil && *selfID == candidateParentID {
		return nil, apperrors.ErrSelfParentCategory
	}

	parent, err := st.Categories().GetByID(ctx, candidateParentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !parent.IsRoot() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidHierarchy, "parent category is itself a subcategory")
	}

	// A category that already has children cannot move under another one.
	if selfID != nil {
		children, err := st.Categories().Count(ctx, store.Where("parent_id = ?", *selfID))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if children > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidHierarchy, "category with subcategories cannot have a parent")
		}
	}

	return parent, nil
}

// ResolveParent fills category.Parent with a snapshot of its parent row. A
// dangling parent id leaves Parent nil.
func (h *HierarchyManager) ResolveParent(ctx context.Context, st *store.Store, category *models.Category) error {
	category.Parent = nil
	if category.IsRoot() {
		return nil
	}
	parent, err := st.Categories().GetByID(ctx, *category.ParentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	category.Parent = parent
	return nil
}
