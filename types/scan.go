package types

import (
	"Rewards/models"
	"encoding/json"
)

type VerifyScanRequest struct {
	CouponCode string          `json:"coupon_code" binding:"required,max=32"`
	Location   json.RawMessage `json:"location"`
	DeviceInfo json.RawMessage `json:"device_info"`
}

type VerifyScanResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Error   string         `json:"error,omitempty"`
	Coupon  *models.Coupon `json:"coupon,omitempty"`
}

type ListScansRequest struct {
	Cursor int64 `form:"cursor"`
	Limit  int   `form:"limit,default=20" binding:"gte=1,lte=100"`
}

type ListScansResponse struct {
	Scans      []models.Scan `json:"scans"`
	NextCursor int64         `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}
