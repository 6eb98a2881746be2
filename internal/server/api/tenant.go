package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/objects"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
)

type TenantHandlersParams struct {
	fx.In

	TenantService *biz.TenantService
}

func NewTenantHandlers(params TenantHandlersParams) *TenantHandlers {
	return &TenantHandlers{
		TenantService: params.TenantService,
	}
}

type TenantHandlers struct {
	TenantService *biz.TenantService
}

func (h *TenantHandlers) List(c *gin.Context) {
	ids, err := h.TenantService.ListTenantIDs(c.Request.Context())
	if err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(ids))
}

type CreateTenantRequest struct {
	TenantID    string     `json:"tenantId" binding:"required"`
	CompanyName string     `json:"companyName" binding:"required"`
	ExpireAt    *time.Time `json:"expireAt"`
}

func (h *TenantHandlers) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("invalid request format"))
		return
	}

	t := &model.Tenant{
		TenantID:    req.TenantID,
		CompanyName: req.CompanyName,
		ExpireAt:    req.ExpireAt,
		Status:      model.StatusEnabled,
	}

	if err := h.TenantService.CreateTenant(c.Request.Context(), t); err != nil {
		JSONError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, objects.OK(t))
}
