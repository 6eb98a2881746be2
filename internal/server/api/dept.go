package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/objects"
	"github.com/lyfdddd/ryadmin/internal/orgtree"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
)

type DeptHandlersParams struct {
	fx.In

	DeptService *biz.DeptService
}

func NewDeptHandlers(params DeptHandlersParams) *DeptHandlers {
	return &DeptHandlers{
		DeptService: params.DeptService,
	}
}

type DeptHandlers struct {
	DeptService *biz.DeptService
}

func (h *DeptHandlers) ListTree(c *gin.Context) {
	forest, err := h.DeptService.ListDeptTree(c.Request.Context())
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(forest))
}

type CreateDeptRequest struct {
	ParentID int64  `json:"parentId"`
	Name     string `json:"name" binding:"required"`
	OrderNum int    `json:"orderNum"`
	Leader   string `json:"leader"`
}

func (h *DeptHandlers) Create(c *gin.Context) {
	var req CreateDeptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	dept := &model.Dept{
		ParentID: req.ParentID,
		Name:     req.Name,
		OrderNum: req.OrderNum,
		Leader:   req.Leader,
		Status:   model.StatusEnabled,
	}

	if err := h.DeptService.CreateDept(c.Request.Context(), dept); err != nil {
		JSONError(c, treeErrorStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(dept))
}

type UpdateDeptRequest struct {
	ParentID int64        `json:"parentId"`
	Name     string       `json:"name" binding:"required"`
	OrderNum int          `json:"orderNum"`
	Leader   string       `json:"leader"`
	Status   model.Status `json:"status" binding:"required"`
}

func (h *DeptHandlers) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var req UpdateDeptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	dept := &model.Dept{
		TenantBase: model.TenantBase{Base: model.Base{ID: id}},
		ParentID:   req.ParentID,
		Name:       req.Name,
		OrderNum:   req.OrderNum,
		Leader:     req.Leader,
		Status:     req.Status,
	}

	if err := h.DeptService.UpdateDept(c.Request.Context(), dept); err != nil {
		JSONError(c, treeErrorStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}

func (h *DeptHandlers) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	if err := h.DeptService.DeleteDept(c.Request.Context(), id); err != nil {
		JSONError(c, treeErrorStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid id")
	}

	return id, nil
}

func treeErrorStatus(err error) int {
	switch {
	case errors.Is(err, orgtree.ErrSelfParent),
		errors.Is(err, orgtree.ErrParentDisabled):
		return http.StatusBadRequest
	case errors.Is(err, orgtree.ErrHasChildren),
		errors.Is(err, orgtree.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
