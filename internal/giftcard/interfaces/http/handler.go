// Package http 礼品卡 HTTP 接口层。
package http

import (
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/application"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/response"
)

// GiftCardHandler HTTP 处理器
type GiftCardHandler struct {
	commands *application.CommandService
	queries  *application.QueryService
}

// NewGiftCardHandler 创建 HTTP 处理器
func NewGiftCardHandler(commands *application.CommandService, queries *application.QueryService) *GiftCardHandler {
	return &GiftCardHandler{commands: commands, queries: queries}
}

// RegisterRoutes 注册路由。过期不暴露公共接口，由过期扫描驱动。
func (h *GiftCardHandler) RegisterRoutes(api *gin.RouterGroup) {
	cards := api.Group("/gift-cards")
	{
		cards.POST("", h.IssueCard)
		cards.GET("", h.ListCards)
		cards.GET("/:id", h.GetCard)
		cards.POST("/:id/activate", h.ActivateCard)
		cards.POST("/:id/redeem", h.Redeem)
		cards.POST("/:id/adjust-balance", h.AdjustBalance)
		cards.POST("/:id/decrease-balance", h.DecreaseBalance)
		cards.POST("/:id/suspend", h.SuspendCard)
		cards.POST("/:id/reactivate", h.ReactivateCard)
		cards.POST("/:id/cancel", h.CancelCard)
	}
}

// IssueCardRequest 发卡请求
type IssueCardRequest struct {
	Amount     int64      `json:"amount" binding:"required"`
	Currency   string     `json:"currency" binding:"required"`
	CardNumber string     `json:"card_number"`
	PIN        string     `json:"pin"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// IssueCard 发卡
func (h *GiftCardHandler) IssueCard(c *gin.Context) {
	var req IssueCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, nethttp.StatusBadRequest, err)
		return
	}

	card, err := h.commands.IssueCard(c.Request.Context(), application.IssueCardCommand{
		Amount:     req.Amount,
		Currency:   req.Currency,
		CardNumber: req.CardNumber,
		PIN:        req.PIN,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		h.renderError(c, "issue card", err)
		return
	}
	response.Created(c, card)
}

// GetCard 查询单卡
func (h *GiftCardHandler) GetCard(c *gin.Context) {
	card, err := h.queries.GetCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, "get card", err)
		return
	}
	response.Success(c, card)
}

// ListCardsResponse 分页列表响应
type ListCardsResponse struct {
	Items    []*application.CardDTO `json:"items"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// ListCards 分页查询
func (h *GiftCardHandler) ListCards(c *gin.Context) {
	var query struct {
		Status   string `form:"status"`
		Page     int    `form:"page,default=1"`
		PageSize int    `form:"page_size,default=20"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithStatus(c, nethttp.StatusBadRequest, err)
		return
	}

	items, total, err := h.queries.ListCards(c.Request.Context(), query.Status, query.Page, query.PageSize)
	if err != nil {
		h.renderError(c, "list cards", err)
		return
	}
	response.Success(c, ListCardsResponse{Items: items, Total: total, Page: query.Page, PageSize: query.PageSize})
}

// ActivateCard 激活
func (h *GiftCardHandler) ActivateCard(c *gin.Context) {
	card, err := h.commands.ActivateCard(c.Request.Context(), application.ActivateCardCommand{CardID: c.Param("id")})
	if err != nil {
		h.renderError(c, "activate card", err)
		return
	}
	response.Success(c, card)
}

// AmountRequest 金额请求体
type AmountRequest struct {
	Amount   int64  `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"required"`
}

// Redeem 客户兑换
func (h *GiftCardHandler) Redeem(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, nethttp.StatusBadRequest, err)
		return
	}

	card, err := h.commands.Redeem(c.Request.Context(), application.RedeemCommand{
		CardID:   c.Param("id"),
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		h.renderError(c, "redeem", err)
		return
	}
	response.Success(c, card)
}

// BalanceChangeRequest 管理性余额变更请求体，Reason 必填
type BalanceChangeRequest struct {
	Amount   int64  `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// AdjustBalance 管理性增加余额
func (h *GiftCardHandler) AdjustBalance(c *gin.Context) {
	var req BalanceChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, nethttp.StatusBadRequest, err)
		return
	}

	card, err := h.commands.AdjustBalance(c.Request.Context(), application.AdjustBalanceCommand{
		CardID:   c.Param("id"),
		Amount:   req.Amount,
		Currency: req.Currency,
		Reason:   req.Reason,
	})
	if err != nil {
		h.renderError(c, "adjust balance", err)
		return
	}
	response.Success(c, card)
}

// DecreaseBalance 管理性扣减余额
func (h *GiftCardHandler) DecreaseBalance(c *gin.Context) {
	var req BalanceChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, nethttp.StatusBadRequest, err)
		return
	}

	card, err := h.commands.DecreaseBalance(c.Request.Context(), application.DecreaseBalanceCommand{
		CardID:   c.Param("id"),
		Amount:   req.Amount,
		Currency: req.Currency,
		Reason:   req.Reason,
	})
	if err != nil {
		h.renderError(c, "decrease balance", err)
		return
	}
	response.Success(c, card)
}

// SuspendRequest 暂停请求体
type SuspendRequest struct {
	Reason          string `json:"reason" binding:"required"`
	DurationSeconds int64  `json:"duration_seconds" binding:"required"`
}

// SuspendCard 暂停
func (h *GiftCardHandler) SuspendCard(c *gin.Context) {
	var req SuspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, nethttp.StatusBadRequest, err)
		return
	}

	card, err := h.commands.SuspendCard(c.Request.Context(), application.SuspendCardCommand{
		CardID:          c.Param("id"),
		Reason:          req.Reason,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		h.renderError(c, "suspend card", err)
		return
	}
	response.Success(c, card)
}

// ReactivateRequest 恢复激活请求体
type ReactivateRequest struct {
	Reason       string     `json:"reason"`
	NewExpiresAt *time.Time `json:"new_expires_at"`
}

// ReactivateCard 恢复激活
func (h *GiftCardHandler) ReactivateCard(c *gin.Context) {
	var req ReactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, nethttp.StatusBadRequest, err)
		return
	}

	card, err := h.commands.ReactivateCard(c.Request.Context(), application.ReactivateCardCommand{
		CardID:       c.Param("id"),
		Reason:       req.Reason,
		NewExpiresAt: req.NewExpiresAt,
	})
	if err != nil {
		h.renderError(c, "reactivate card", err)
		return
	}
	response.Success(c, card)
}

// CancelRequest 作废请求体
type CancelRequest struct {
	Reason string `json:"reason"`
}

// CancelCard 作废
func (h *GiftCardHandler) CancelCard(c *gin.Context) {
	// 作废允许空请求体
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	card, err := h.commands.CancelCard(c.Request.Context(), application.CancelCardCommand{
		CardID: c.Param("id"),
		Reason: req.Reason,
	})
	if err != nil {
		h.renderError(c, "cancel card", err)
		return
	}
	response.Success(c, card)
}

// renderError 把领域错误映射为 HTTP 状态码
func (h *GiftCardHandler) renderError(c *gin.Context, op string, err error) {
	ctx := c.Request.Context()

	var transition *domain.InvalidStateTransitionError
	var insufficient *domain.InsufficientBalanceError
	var conflict *domain.ConcurrencyConflictError
	var mismatch *domain.TenantMismatchError

	switch {
	case errors.Is(err, domain.ErrCardNotFound):
		response.ErrorWithStatus(c, nethttp.StatusNotFound, err)
	case errors.As(err, &transition):
		response.ErrorWithStatus(c, nethttp.StatusConflict, err)
	case errors.As(err, &insufficient):
		response.ErrorWithStatus(c, nethttp.StatusUnprocessableEntity, err)
	case errors.As(err, &conflict):
		response.ErrorWithStatus(c, nethttp.StatusConflict, err)
	case errors.As(err, &mismatch), errors.Is(err, tenant.ErrTenantContextNotSet):
		logger.Warn(ctx, "tenant isolation rejected request", "operation", op, "error", err)
		response.ErrorWithStatus(c, nethttp.StatusForbidden, err)
	case errors.Is(err, domain.ErrInvalidCardID),
		errors.Is(err, domain.ErrUnsupportedCurrency),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrNonPositiveAmount),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrEmptyReason),
		errors.Is(err, domain.ErrInvalidDuration):
		response.ErrorWithStatus(c, nethttp.StatusBadRequest, err)
	default:
		logger.Error(ctx, "gift card operation failed", "operation", op, "error", err)
		response.Error(c, err)
	}
}
