package user

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 为 gin 的请求绑定注册自定义校验标签 gender 和 votergroup
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 的校验引擎不是 validator.Validate")
	}
	if err := v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		_, err := ParseGender(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("votergroup", func(fl validator.FieldLevel) bool {
		return IsGroupName(fl.Field().String())
	})
}
