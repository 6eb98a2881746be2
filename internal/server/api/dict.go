package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/objects"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
)

type DictHandlersParams struct {
	fx.In

	DictService *biz.DictService
}

func NewDictHandlers(params DictHandlersParams) *DictHandlers {
	return &DictHandlers{
		DictService: params.DictService,
	}
}

type DictHandlers struct {
	DictService *biz.DictService
}

func (h *DictHandlers) ListData(c *gin.Context) {
	dictType := c.Param("type")
	if dictType == "" {
		JSONError(c, http.StatusBadRequest, errors.New("missing dict type"))
		return
	}

	data, err := h.DictService.ListDictData(c.Request.Context(), dictType)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(data))
}

type CreateDictDataRequest struct {
	DictType string `json:"dictType" binding:"required"`
	Label    string `json:"label" binding:"required"`
	Value    string `json:"value" binding:"required"`
	Sort     int    `json:"sort"`
}

func (h *DictHandlers) CreateData(c *gin.Context) {
	var req CreateDictDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	dd := &model.DictData{
		DictType: req.DictType,
		Label:    req.Label,
		Value:    req.Value,
		Sort:     req.Sort,
	}

	if err := h.DictService.CreateDictData(c.Request.Context(), dd); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(dd))
}

// Sync copies the default tenant's dictionary to every tenant. Only
// superusers may trigger it; the elevation to a system principal is
// limited to this call.
func (h *DictHandlers) Sync(c *gin.Context) {
	ctx := c.Request.Context()

	dictType := c.Param("type")
	if dictType == "" {
		JSONError(c, http.StatusBadRequest, errors.New("missing dict type"))
		return
	}

	if !authz.IsSuperuser(ctx) {
		JSONError(c, http.StatusForbidden, errors.New("dict sync requires superuser"))
		return
	}

	_, err := authz.RunAsSystem(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.DictService.SyncToAllTenants(ctx, dictType)
	})
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(nil))
}
