// Package apperr 业务错误类型：handler / service / repo 之间唯一的预期失败通道
package apperr

import (
	"errors"
	"net/http"
)

// FieldError 单个字段的校验失败（path 使用 JSON 字段名）
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error 统一业务错误：HTTP 状态码 + 可展示消息 + 可选字段错误
type Error struct {
	Status  int
	Message string
	Fields  []FieldError
	Err     error // 内部原因，只记日志，不返回给客户端
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, msg string) *Error { return &Error{Status: status, Message: msg} }

func BadRequest(msg string) *Error   { return New(http.StatusBadRequest, msg) }
func NotFound(msg string) *Error     { return New(http.StatusNotFound, msg) }
func Unauthorized(msg string) *Error { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(http.StatusForbidden, msg) }

// Conflict 唯一性冲突；对外按 400 返回
func Conflict(msg string) *Error { return New(http.StatusBadRequest, msg) }

// Validation 请求体校验失败，fields 保持校验顺序
func Validation(fields []FieldError) *Error {
	return &Error{Status: http.StatusBadRequest, Message: "validation failed", Fields: fields}
}

func Internal(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// As 在错误链中查找 *Error
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Wrap 已是 *Error 则原样返回（不二次包装），否则包成 500 + msg
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}
	return Internal(msg, err)
}

// From 在 HTTP 边界把任意错误转成可输出的 *Error（非业务错误统一为通用 500 文案）
func From(err error) *Error {
	if ae, ok := As(err); ok {
		if ae.Status == 0 {
			return &Error{Status: http.StatusInternalServerError, Message: ae.Message, Fields: ae.Fields, Err: ae.Err}
		}
		return ae
	}
	return Internal("internal server error", err)
}

// StatusOf 返回错误对应的 HTTP 状态码；nil 为 200
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return From(err).Status
}
