package biz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/orgtree"
)

// CategoryUsageCounter reports how many records reference a category.
// The flow module provides the real implementation.
type CategoryUsageCounter interface {
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
}

type CategoryServiceParams struct {
	fx.In

	DB    *gorm.DB
	Usage CategoryUsageCounter `optional:"true"`
}

// CategoryService maintains the flow category tree. Categories carry no
// status, so unlike departments there is no disabled-parent guard and no
// enable cascade.
type CategoryService struct {
	*AbstractService

	usage CategoryUsageCounter
}

func NewCategoryService(params CategoryServiceParams) *CategoryService {
	return &CategoryService{
		AbstractService: &AbstractService{db: params.DB},
		usage:           params.Usage,
	}
}

func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category

	err := s.dbFromContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("category %d: %w", id, gorm.ErrRecordNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &category, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, category *model.Category) error {
	if category.ParentID == orgtree.RootParentID {
		category.Ancestors = orgtree.RootAncestors
	} else {
		parent, err := s.GetCategory(ctx, category.ParentID)
		if err != nil {
			return err
		}

		category.Ancestors = orgtree.ChildAncestors(parent)
	}

	if err := s.dbFromContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, category *model.Category) error {
	current, err := s.GetCategory(ctx, category.ID)
	if err != nil {
		return err
	}

	if category.ParentID != current.ParentID {
		return s.Reparent(ctx, category.ID, category.ParentID)
	}

	err = s.dbFromContext(ctx).Model(&model.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":      category.Name,
			"order_num": category.OrderNum,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	return nil
}

// Reparent moves a category subtree under a new parent, rewriting the
// materialized ancestor paths in one transaction.
func (s *CategoryService) Reparent(ctx context.Context, id, newParentID int64) error {
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		node, err := s.GetCategory(ctx, id)
		if err != nil {
			return err
		}

		if newParentID == node.ID {
			return fmt.Errorf("category %d: %w", id, orgtree.ErrSelfParent)
		}

		var newAncestors string

		if newParentID == orgtree.RootParentID {
			newAncestors = orgtree.RootAncestors
		} else {
			newParent, err := s.GetCategory(ctx, newParentID)
			if err != nil {
				return err
			}

			if err := orgtree.ValidateMove(node, newParent); err != nil {
				return fmt.Errorf("category %d: %w", id, err)
			}

			newAncestors = orgtree.ChildAncestors(newParent)
		}

		oldAncestors := node.Ancestors

		err = s.dbFromContext(ctx).Model(&model.Category{}).
			Where("id = ?", id).
			Updates(map[string]any{"parent_id": newParentID, "ancestors": newAncestors}).Error
		if err != nil {
			return fmt.Errorf("failed to move category: %w", err)
		}

		return s.cascadeAncestors(ctx, node.ID, oldAncestors, newAncestors)
	})
}

func (s *CategoryService) cascadeAncestors(ctx context.Context, nodeID int64, oldPrefix, newPrefix string) error {
	descendants, err := s.descendants(ctx, nodeID)
	if err != nil {
		return err
	}

	oldNodePrefix := oldPrefix + orgtree.Delimiter + fmt.Sprint(nodeID)
	newNodePrefix := newPrefix + orgtree.Delimiter + fmt.Sprint(nodeID)

	for _, desc := range descendants {
		updated, ok := orgtree.ReplacePrefix(desc.Ancestors, oldNodePrefix, newNodePrefix)
		if !ok {
			log.Warn(ctx, "descendant ancestors do not match moved subtree prefix",
				log.Int64("category_id", desc.ID),
				log.String("ancestors", desc.Ancestors),
			)

			continue
		}

		err := s.dbFromContext(ctx).Model(&model.Category{}).
			Where("id = ?", desc.ID).
			Update("ancestors", updated).Error
		if err != nil {
			return fmt.Errorf("failed to update category %d ancestors: %w", desc.ID, err)
		}
	}

	return nil
}

func (s *CategoryService) descendants(ctx context.Context, id int64) ([]model.Category, error) {
	var candidates []model.Category

	err := s.dbFromContext(ctx).
		Where("ancestors LIKE ?", "%"+fmt.Sprint(id)+"%").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan descendants: %w", err)
	}

	descendants := candidates[:0]

	for _, candidate := range candidates {
		if orgtree.ContainsID(candidate.Ancestors, id) {
			descendants = append(descendants, candidate)
		}
	}

	return descendants, nil
}

// DeleteCategory removes a leaf category that nothing references.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	gdb := s.dbFromContext(ctx)

	var childCount int64
	if err := gdb.Model(&model.Category{}).Where("parent_id = ?", id).Count(&childCount).Error; err != nil {
		return fmt.Errorf("failed to count child categories: %w", err)
	}

	if childCount > 0 {
		return fmt.Errorf("category %d: %w", id, orgtree.ErrHasChildren)
	}

	if s.usage != nil {
		used, err := s.usage.CountByCategory(ctx, id)
		if err != nil {
			return err
		}

		if used > 0 {
			return fmt.Errorf("category %d has %d references: %w", id, used, orgtree.ErrInUse)
		}
	}

	if err := gdb.Delete(&model.Category{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return nil
}

// ListCategoryTree returns the category forest ordered by weight.
func (s *CategoryService) ListCategoryTree(ctx context.Context) ([]*orgtree.TreeNode[model.Category], error) {
	var categories []model.Category

	if err := s.dbFromContext(ctx).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	forest := orgtree.BuildForest(categories)
	orgtree.SortForest(forest, func(a, b model.Category) bool {
		if a.OrderNum != b.OrderNum {
			return a.OrderNum < b.OrderNum
		}

		return a.ID < b.ID
	})

	return forest, nil
}
