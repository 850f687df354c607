package types

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var couponRefPattern = regexp.MustCompile(`^[A-Z]{1,8}-\d{3,}$`)

// RegisterValidators 注册自定义 binding 规则，启动时调用一次
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("coupon_ref", func(fl validator.FieldLevel) bool {
		return couponRefPattern.MatchString(fl.Field().String())
	})
}
