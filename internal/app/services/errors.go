package services

import (
	"errors"
	"fmt"

	"search-server/internal/pkg/code"
)

// MetasoError 带返回码的业务错误
type MetasoError struct {
	Code int
	Msg  string
	Err  error
}

func (e *MetasoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Msg)
}

func (e *MetasoError) Unwrap() error {
	return e.Err
}

func newMetasoError(c int, err error) *MetasoError {
	return &MetasoError{Code: c, Msg: code.Message(c), Err: err}
}

func ErrParamsInvalid(format string, args ...any) *MetasoError {
	return newMetasoError(code.RequestParamsInvalid, fmt.Errorf(format, args...))
}

func ErrRequestFailed(err error) *MetasoError {
	return newMetasoError(code.RequestFailed, err)
}

func ErrContentEmpty() *MetasoError {
	return newMetasoError(code.ContentEmpty, nil)
}

func ErrStreamPushing(err error) *MetasoError {
	return newMetasoError(code.ChatStreamPushing, err)
}

func ErrRateLimited(err error) *MetasoError {
	return newMetasoError(code.RateLimited, err)
}

func ErrTimeout(err error) *MetasoError {
	return newMetasoError(code.Timeout, err)
}

// CodeOf 取错误对应的返回码, 非业务错误一律视为请求失败
func CodeOf(err error) int {
	if err == nil {
		return code.Success
	}
	var me *MetasoError
	if errors.As(err, &me) {
		return me.Code
	}
	var be *BochaError
	if errors.As(err, &be) {
		return be.code()
	}
	return code.RequestFailed
}
