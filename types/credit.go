package types

import "Rewards/models"

type TopUpRequest struct {
	TenantID    int64  `json:"tenant_id" binding:"required,gt=0"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=255"`
}

type CreditBalance struct {
	TenantID      int64 `json:"tenant_id"`
	Balance       int64 `json:"balance"`
	TotalReceived int64 `json:"total_received"`
	TotalSpent    int64 `json:"total_spent"`
}

type ListCreditTransactionsRequest struct {
	Type   string `form:"type" binding:"omitempty,oneof=CREDIT DEBIT REFUND"`
	Cursor int64  `form:"cursor"`
	Limit  int    `form:"limit,default=20" binding:"gte=1,lte=100"`
}

type ListCreditTransactions struct {
	Records    []models.CreditTransaction `json:"records"`
	NextCursor int64                      `json:"next_cursor"`
	HasMore    bool                       `json:"has_more"`
}

// ReconcileReport 流水重放对账结果
type ReconcileReport struct {
	TenantID        int64    `json:"tenant_id"`
	Balance         int64    `json:"balance"`
	ReplayedBalance int64    `json:"replayed_balance"`
	TotalReceived   int64    `json:"total_received"`
	TotalSpent      int64    `json:"total_spent"`
	EntryCount      int64    `json:"entry_count"`
	Consistent      bool     `json:"consistent"`
	Problems        []string `json:"problems,omitempty"`
}
