// Package http 通知上下文的 HTTP 接口层。
package http

import (
	"errors"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/notification/application"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/notification/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/response"
)

// WebhookHandler Webhook 端点管理接口
type WebhookHandler struct {
	endpoints *application.EndpointService
}

// NewWebhookHandler 创建 HTTP 处理器
func NewWebhookHandler(endpoints *application.EndpointService) *WebhookHandler {
	return &WebhookHandler{endpoints: endpoints}
}

// RegisterRoutes 注册路由
func (h *WebhookHandler) RegisterRoutes(api *gin.RouterGroup) {
	webhooks := api.Group("/webhooks")
	{
		webhooks.POST("", h.Register)
		webhooks.GET("", h.List)
		webhooks.DELETE("/:id", h.Delete)
	}
}

// RegisterRequest 注册端点请求
type RegisterRequest struct {
	URL        string `json:"url" binding:"required,url"`
	Secret     string `json:"secret" binding:"required,min=16"`
	EventTypes string `json:"event_types"`
}

// Register 注册端点
func (h *WebhookHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, nethttp.StatusBadRequest, err)
		return
	}

	endpoint, err := h.endpoints.Register(c.Request.Context(), application.RegisterEndpointCommand{
		URL:        req.URL,
		Secret:     req.Secret,
		EventTypes: req.EventTypes,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Created(c, endpoint)
}

// List 列出端点
func (h *WebhookHandler) List(c *gin.Context) {
	endpoints, err := h.endpoints.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, endpoints)
}

// Delete 删除端点
func (h *WebhookHandler) Delete(c *gin.Context) {
	if err := h.endpoints.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *WebhookHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEndpointNotFound):
		response.ErrorWithStatus(c, nethttp.StatusNotFound, err)
	case errors.Is(err, tenant.ErrTenantContextNotSet):
		response.ErrorWithStatus(c, nethttp.StatusForbidden, err)
	default:
		response.Error(c, err)
	}
}
