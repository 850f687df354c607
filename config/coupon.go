package config

// Coupon 券创建相关的业务参数
type Coupon struct {
	MaxBatchQuantity int    `json:"max_batch_quantity" yaml:"max_batch_quantity"`
	MinDiscount      int64  `json:"min_discount" yaml:"min_discount"`
	CodeAttempts     int    `json:"code_attempts" yaml:"code_attempts"`
	ReferencePrefix  string `json:"reference_prefix" yaml:"reference_prefix"`
	VerifyBaseURL    string `json:"verify_base_url" yaml:"verify_base_url"`
}

func (c *Coupon) normalize() {
	if c.MaxBatchQuantity <= 0 {
		c.MaxBatchQuantity = 500
	}
	if c.MinDiscount <= 0 {
		c.MinDiscount = 1
	}
	if c.CodeAttempts <= 0 {
		c.CodeAttempts = 10
	}
	if c.ReferencePrefix == "" {
		c.ReferencePrefix = "CP-"
	}
}

// Scan 扫码核销接口的限流参数
type Scan struct {
	RateLimit         int `json:"rate_limit" yaml:"rate_limit"`
	RateWindowSeconds int `json:"rate_window_seconds" yaml:"rate_window_seconds"`
}

func (s *Scan) normalize() {
	if s.RateLimit <= 0 {
		s.RateLimit = 30
	}
	if s.RateWindowSeconds <= 0 {
		s.RateWindowSeconds = 60
	}
}
