// controllers/subscription_controller.go
package controllers

import (
	"errors"
	"net/http"

	"item_custody_service/app"
	"item_custody_service/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriptionController struct{ *Srv }

func NewSubscriptionController(s *Srv) *SubscriptionController {
	return &SubscriptionController{Srv: s}
}

// 申领：POST /api/subscriptions  body: {itemId}
func (sc *SubscriptionController) Request(c *gin.Context) {
	var in struct {
		ItemID string `json:"itemId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	v, ok := c.Get("userID")
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	userID, _ := v.(string)

	item, err := sc.Repo.FindItemByID(c.Request.Context(), in.ItemID)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "item not found"})
		return
	}

	sub, err := sc.Subs.Request(c.Request.Context(), userID, item.ID, item.Name)
	if err != nil {
		sc.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// 批准：POST /api/subscriptions/:code/approve （仅负责人）
func (sc *SubscriptionController) Approve(c *gin.Context) {
	code := c.Param("code")
	v, _ := c.Get("username")
	approver, _ := v.(string)

	sub, err := sc.Subs.Approve(c.Request.Context(), code, approver)
	if err != nil {
		sc.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// 驳回：POST /api/subscriptions/:code/reject （仅负责人）
func (sc *SubscriptionController) Reject(c *gin.Context) {
	code := c.Param("code")

	snapshot, err := sc.Subs.Reject(c.Request.Context(), code)
	if err != nil {
		sc.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "rejected": snapshot})
}

// 归还：POST /api/subscriptions/:code/return
func (sc *SubscriptionController) Return(c *gin.Context) {
	code := c.Param("code")

	sub, err := sc.Subs.Return(c.Request.Context(), code)
	if err != nil {
		sc.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// 记录：GET /api/subscriptions?userId=&itemId=&state=
func (sc *SubscriptionController) List(c *gin.Context) {
	subs, err := sc.Store.List(c.Request.Context(),
		c.Query("userId"), c.Query("itemId"), c.Query("state"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"subscriptions": subs})
}

// 错误逐一映射，不降级：调用方靠状态码区分原因。
func (sc *SubscriptionController) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, subscription.ErrDuplicateActive):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, subscription.ErrAlreadyApproved):
		c.JSON(http.StatusForbidden, app.H{"error": err.Error()})
	case errors.Is(err, subscription.ErrNotApproved),
		errors.Is(err, subscription.ErrAlreadyReturned):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	case errors.Is(err, subscription.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
