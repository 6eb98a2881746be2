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

type DeptServiceParams struct {
	fx.In

	DB          *gorm.DB
	UserService *UserService
	ScopeCache  *DataScopeCache
}

// DeptService maintains the department tree and its materialized ancestor
// paths.
type DeptService struct {
	*AbstractService

	userService *UserService
	scopeCache  *DataScopeCache
}

func NewDeptService(params DeptServiceParams) *DeptService {
	return &DeptService{
		AbstractService: &AbstractService{db: params.DB},
		userService:     params.UserService,
		scopeCache:      params.ScopeCache,
	}
}

// GetDept looks up one department.
func (s *DeptService) GetDept(ctx context.Context, id int64) (*model.Dept, error) {
	var dept model.Dept

	err := s.dbFromContext(ctx).First(&dept, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("dept %d: %w", id, gorm.ErrRecordNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get dept: %w", err)
	}

	return &dept, nil
}

// CreateDept inserts a department under the given parent. The ancestor
// path is computed from the parent at insert time. Inserting under a
// disabled parent is rejected.
func (s *DeptService) CreateDept(ctx context.Context, dept *model.Dept) error {
	if dept.ParentID == orgtree.RootParentID {
		dept.Ancestors = orgtree.RootAncestors
	} else {
		parent, err := s.GetDept(ctx, dept.ParentID)
		if err != nil {
			return err
		}

		if parent.Status != model.StatusEnabled {
			return fmt.Errorf("dept %d: %w", parent.ID, orgtree.ErrParentDisabled)
		}

		dept.Ancestors = orgtree.ChildAncestors(parent)
	}

	if err := s.dbFromContext(ctx).Create(dept).Error; err != nil {
		return fmt.Errorf("failed to create dept: %w", err)
	}

	s.scopeCache.InvalidateDeptTree(ctx)

	return nil
}

// UpdateDept renames or reorders a department, re-parenting it when the
// parent changed. The descendant ancestor paths move with it.
func (s *DeptService) UpdateDept(ctx context.Context, dept *model.Dept) error {
	current, err := s.GetDept(ctx, dept.ID)
	if err != nil {
		return err
	}

	if dept.ParentID != current.ParentID {
		return s.Reparent(ctx, dept.ID, dept.ParentID)
	}

	err = s.dbFromContext(ctx).Model(&model.Dept{}).
		Where("id = ?", dept.ID).
		Updates(map[string]any{
			"name":      dept.Name,
			"order_num": dept.OrderNum,
			"leader":    dept.Leader,
			"status":    dept.Status,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update dept: %w", err)
	}

	if dept.Status == model.StatusEnabled && current.Status != model.StatusEnabled {
		if err := s.enableAncestors(ctx, dept.ID); err != nil {
			return err
		}
	}

	s.scopeCache.InvalidateDeptTree(ctx)

	return nil
}

// Reparent moves a department (and its whole subtree) under a new parent.
// The node's ancestor path and every descendant's path are rewritten in
// one transaction, so a failed cascade never leaves the tree half-moved.
func (s *DeptService) Reparent(ctx context.Context, id, newParentID int64) error {
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		node, err := s.GetDept(ctx, id)
		if err != nil {
			return err
		}

		if newParentID == node.ID {
			return fmt.Errorf("dept %d: %w", id, orgtree.ErrSelfParent)
		}

		var newAncestors string

		if newParentID == orgtree.RootParentID {
			newAncestors = orgtree.RootAncestors
		} else {
			newParent, err := s.GetDept(ctx, newParentID)
			if err != nil {
				return err
			}

			if err := orgtree.ValidateMove(node, newParent); err != nil {
				return fmt.Errorf("dept %d: %w", id, err)
			}

			newAncestors = orgtree.ChildAncestors(newParent)
		}

		oldAncestors := node.Ancestors

		err = s.dbFromContext(ctx).Model(&model.Dept{}).
			Where("id = ?", id).
			Updates(map[string]any{"parent_id": newParentID, "ancestors": newAncestors}).Error
		if err != nil {
			return fmt.Errorf("failed to move dept: %w", err)
		}

		if err := s.cascadeAncestors(ctx, node.ID, oldAncestors, newAncestors); err != nil {
			return err
		}

		if node.Status == model.StatusEnabled && newAncestors != orgtree.RootAncestors {
			if err := s.enableAncestors(ctx, id); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.scopeCache.InvalidateDeptTree(ctx)

	return nil
}

// cascadeAncestors rewrites the ancestor path of every descendant of the
// moved node. The old path of the moved node becomes the old prefix; the
// replacement is token-wise so numerically overlapping ids in unrelated
// paths stay untouched.
func (s *DeptService) cascadeAncestors(ctx context.Context, nodeID int64, oldPrefix, newPrefix string) error {
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
				log.Int64("dept_id", desc.ID),
				log.String("ancestors", desc.Ancestors),
			)

			continue
		}

		err := s.dbFromContext(ctx).Model(&model.Dept{}).
			Where("id = ?", desc.ID).
			Update("ancestors", updated).Error
		if err != nil {
			return fmt.Errorf("failed to update dept %d ancestors: %w", desc.ID, err)
		}
	}

	return nil
}

// descendants returns every department below the given node. Candidates
// are narrowed with a LIKE scan and then confirmed token-wise, since a
// textual id match alone could pick up unrelated rows.
func (s *DeptService) descendants(ctx context.Context, id int64) ([]model.Dept, error) {
	var candidates []model.Dept

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

// DescendantIDs returns the ids of the department subtree rooted at id,
// excluding id itself.
func (s *DeptService) DescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	descendants, err := s.descendants(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(descendants))
	for i, dept := range descendants {
		ids[i] = dept.ID
	}

	return ids, nil
}

// enableAncestors repairs the chain upward: a department cannot be
// enabled while an ancestor is disabled, so enabling (or moving an
// enabled node) enables every ancestor. Descendants are left alone.
func (s *DeptService) enableAncestors(ctx context.Context, id int64) error {
	node, err := s.GetDept(ctx, id)
	if err != nil {
		return err
	}

	ancestorIDs := orgtree.Split(node.Ancestors)
	if len(ancestorIDs) == 0 {
		return nil
	}

	// Skip the root sentinel.
	ids := make([]int64, 0, len(ancestorIDs))

	for _, ancestorID := range ancestorIDs {
		if ancestorID != orgtree.RootParentID {
			ids = append(ids, ancestorID)
		}
	}

	if len(ids) == 0 {
		return nil
	}

	err = s.dbFromContext(ctx).Model(&model.Dept{}).
		Where("id IN ?", ids).
		Update("status", model.StatusEnabled).Error
	if err != nil {
		return fmt.Errorf("failed to enable ancestors: %w", err)
	}

	return nil
}

// DeleteDept removes a leaf department. Departments with children or with
// assigned users are kept.
func (s *DeptService) DeleteDept(ctx context.Context, id int64) error {
	gdb := s.dbFromContext(ctx)

	var childCount int64
	if err := gdb.Model(&model.Dept{}).Where("parent_id = ?", id).Count(&childCount).Error; err != nil {
		return fmt.Errorf("failed to count child depts: %w", err)
	}

	if childCount > 0 {
		return fmt.Errorf("dept %d: %w", id, orgtree.ErrHasChildren)
	}

	userCount, err := s.userService.CountByDept(ctx, id)
	if err != nil {
		return err
	}

	if userCount > 0 {
		return fmt.Errorf("dept %d has %d users: %w", id, userCount, orgtree.ErrInUse)
	}

	if err := gdb.Delete(&model.Dept{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete dept: %w", err)
	}

	s.scopeCache.InvalidateDeptTree(ctx)

	return nil
}

// ListDeptTree returns the department forest for display, ordered by
// order weight within each sibling group.
func (s *DeptService) ListDeptTree(ctx context.Context) ([]*orgtree.TreeNode[model.Dept], error) {
	var depts []model.Dept

	if err := s.dbFromContext(ctx).Find(&depts).Error; err != nil {
		return nil, fmt.Errorf("failed to list depts: %w", err)
	}

	forest := orgtree.BuildForest(depts)
	orgtree.SortForest(forest, func(a, b model.Dept) bool {
		if a.OrderNum != b.OrderNum {
			return a.OrderNum < b.OrderNum
		}

		return a.ID < b.ID
	})

	return forest, nil
}
