package handler

import (
	"Rewards/config"
	"Rewards/middleware"
	"Rewards/pkg/context"
	"Rewards/pkg/jwt"
	"Rewards/pkg/response"
	"Rewards/service"
	"Rewards/types"

	"github.com/gin-gonic/gin"
)

type Credit struct {
	Config *config.Config
	Ledger service.ICreditLedger
}

func (h *Credit) RegisterRouter(r gin.IRouter) {
	authorize := middleware.Auth([]byte(h.Config.Jwt.Secret))
	g := r.Group("/v1/credits", authorize)
	g.GET("/balance", context.Wrap(h.Balance))
	g.GET("/transactions", context.Wrap(h.Transactions))
	g.GET("/reconcile", middleware.RequireRole(jwt.RoleTenantAdmin, jwt.RolePlatformAdmin), context.Wrap(h.Reconcile))
	g.POST("/top-up", middleware.RequireRole(jwt.RolePlatformAdmin), context.Wrap(h.TopUp))
}

func (h *Credit) Balance(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	bal, err := h.Ledger.Balance(c.Request.Context(), id.TenantID)
	if err != nil {
		return err
	}
	response.Success(c, bal)
	return nil
}

func (h *Credit) Transactions(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	var req types.ListCreditTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return response.Validation("%s", err.Error())
	}
	resp, err := h.Ledger.ListTransactions(c.Request.Context(), id.TenantID, req.Type, req.Cursor, req.Limit)
	if err != nil {
		return err
	}
	response.Success(c, resp)
	return nil
}

func (h *Credit) Reconcile(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	report, err := h.Ledger.Reconcile(c.Request.Context(), id.TenantID)
	if err != nil {
		return err
	}
	response.Success(c, report)
	return nil
}

// TopUp 平台管理员给任意租户充值
func (h *Credit) TopUp(c *gin.Context) error {
	id, err := context.GetIdentity(c)
	if err != nil {
		return err
	}
	var req types.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.Validation("%s", err.Error())
	}
	record, err := h.Ledger.TopUp(c.Request.Context(), service.LedgerEntry{
		TenantID:    req.TenantID,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedBy:   id.UserID,
	})
	if err != nil {
		return err
	}
	response.Created(c, record)
	return nil
}
