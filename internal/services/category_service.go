package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/pagination"
	"dompet/internal/store"
)

// categoryService handles category-related business logic.
type categoryService struct {
	store     *store.Store
	hierarchy *HierarchyManager
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(st *store.Store, hierarchy *HierarchyManager) CategoryServicer {
	return &categoryService{store: st, hierarchy: hierarchy}
}

// CreateCategory creates a new category, optionally nested under a
// top-level parent.
func (s *categoryService) CreateCategory(ctx context.Context, name string, categoryType models.CategoryType, parentID *string) (*models.Category, error) {
	name, err := validateCategory(name, categoryType)
	if err != nil {
		return nil, err
	}
	parentID = normalizeID(parentID)

	category := &models.Category{
		Name:     name,
		Type:     categoryType,
		ParentID: parentID,
	}

	err = s.store.Atomic(ctx, func(tx *store.Store) error {
		if err := ensureUniqueCategory(ctx, tx, name, categoryType, ""); err != nil {
			return err
		}

		var parent *models.Category
		if parentID != nil {
			p, err := s.hierarchy.ValidateParent(ctx, tx, *parentID, nil)
			if err != nil {
				return err
			}
			parent = p
		}

		if err := tx.Categories().Insert(ctx, category); err != nil {
			return categoryWriteError(err)
		}
		category.Parent = parent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// GetCategoryByID retrieves a category with its parent snapshot.
func (s *categoryService) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	category, err := getCategory(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := s.hierarchy.ResolveParent(ctx, s.store, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories retrieves a paginated list of categories, optionally of a
// single type.
func (s *categoryService) ListCategories(ctx context.Context, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var scopes []store.Scope
	if categoryType != nil {
		scopes = append(scopes, store.Where("type = ?", *categoryType))
	}

	totalItems, err := s.store.Categories().Count(ctx, scopes...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	categories, err := s.store.Categories().List(ctx,
		append(scopes, store.OrderBy("created_at ASC, id ASC"), pagination.Paginate(page))...,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.attachParents(ctx, categories); err != nil {
		return nil, err
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateCategory replaces a category's name, type and parent. A nil parentID
// makes the category top-level.
func (s *categoryService) UpdateCategory(ctx context.Context, id string, name string, categoryType models.CategoryType, parentID *string) (*models.Category, error) {
	name, err := validateCategory(name, categoryType)
	if err != nil {
		return nil, err
	}
	parentID = normalizeID(parentID)

	var result *models.Category
	err = s.store.Atomic(ctx, func(tx *store.Store) error {
		category, err := getCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := ensureUniqueCategory(ctx, tx, name, categoryType, id); err != nil {
			return err
		}

		var parent *models.Category
		if parentID != nil {
			p, err := s.hierarchy.ValidateParent(ctx, tx, *parentID, &id)
			if err != nil {
				return err
			}
			parent = p
		}

		category.Name = name
		category.Type = categoryType
		category.ParentID = parentID
		category.Touch(time.Now())
		if err := tx.Categories().Update(ctx, category); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return categoryWriteError(err)
		}

		category.Parent = parent
		result = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteCategory removes a category. Transactions that used it become
// uncategorised and its subcategories become top-level.
func (s *categoryService) DeleteCategory(ctx context.Context, id string) error {
	return s.store.Atomic(ctx, func(tx *store.Store) error {
		if _, err := getCategory(ctx, tx, id); err != nil {
			return err
		}

		now := time.Now()
		if _, err := tx.Transactions().UpdateColumns(ctx,
			map[string]any{"category_id": nil, "updated_at": now},
			store.Where("category_id = ?", id),
		); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if _, err := tx.Categories().UpdateColumns(ctx,
			map[string]any{"parent_id": nil, "updated_at": now},
			store.Where("parent_id = ?", id),
		); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Categories().DeleteByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// attachParents resolves parent snapshots for a page of categories with a
// single lookup.
func (s *categoryService) attachParents(ctx context.Context, categories []models.Category) error {
	var ids []string
	for _, c := range categories {
		if c.ParentID != nil {
			ids = append(ids, *c.ParentID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	parents, err := s.store.Categories().List(ctx, store.Where("id IN ?", ids))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byID := make(map[string]*models.Category, len(parents))
	for i := range parents {
		byID[parents[i].ID] = &parents[i]
	}
	for i := range categories {
		if categories[i].ParentID != nil {
			categories[i].Parent = byID[*categories[i].ParentID]
		}
	}
	return nil
}

func validateCategory(name string, categoryType models.CategoryType) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !categoryType.Valid() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category type")
	}
	return name, nil
}

// ensureUniqueCategory rejects a second category with the same name and
// type. excludeID skips the category being updated.
func ensureUniqueCategory(ctx context.Context, st *store.Store, name string, categoryType models.CategoryType, excludeID string) error {
	scopes := []store.Scope{store.Where("name = ? AND type = ?", name, categoryType)}
	if excludeID != "" {
		scopes = append(scopes, store.Where("id <> ?", excludeID))
	}
	count, err := st.Categories().Count(ctx, scopes...)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}

func getCategory(ctx context.Context, st *store.Store, id string) (*models.Category, error) {
	category, err := st.Categories().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

func categoryWriteError(err error) error {
	switch {
	case errors.Is(err, store.ErrForeignKey):
		return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
	case errors.Is(err, store.ErrDuplicate):
		return apperrors.ErrDuplicateCategory
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// normalizeID treats an empty identifier as absent.
func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
