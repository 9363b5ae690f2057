// Package apperr 区分调用方可以纠正的输入错误和需要隐藏细节的内部错误。
package apperr

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrInternal 是离开业务层的所有内部错误的统一替身
var ErrInternal = errors.New("internal error")

// ErrUnauthorized 表示请求没有有效的登录会话
var ErrUnauthorized = errors.New("unauthorized")

// InputError 是调用方可以纠正的错误，消息原样返回给客户端
type InputError struct {
	Msg string
	// NotFound 为 true 时 HTTP 层返回 404
	NotFound bool
}

func (e *InputError) Error() string { return e.Msg }

// Input 创建一个输入错误
func Input(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// NotFound 创建一个表示资源不存在的输入错误
func NotFound(msg string) error {
	return &InputError{Msg: msg, NotFound: true}
}

// IsInput 判断错误链中是否含有 InputError
func IsInput(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// AsInput 取出错误链中的 InputError
func AsInput(err error) (*InputError, bool) {
	var ie *InputError
	ok := errors.As(err, &ie)
	return ie, ok
}

// Logger 用于记录内部错误，未设置时丢弃
var Logger = zap.NewNop()

// Internal 在发现问题的位置记录一次完整上下文，然后返回不透明的 ErrInternal。
// 输入错误和 ErrUnauthorized 原样返回。
func Internal(op string, err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}
	if IsInput(err) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrInternal) {
		return err
	}
	Logger.Error(op+" 失败", append(fields, zap.Error(err))...)
	return ErrInternal
}
