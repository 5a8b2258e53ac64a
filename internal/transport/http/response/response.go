package response

import "go-gin-gorm-users/internal/core/apperr"

// Success 成功信封；data 永远输出（删除时为 null）
type Success struct {
	Status  string         `json:"status"`
	Data    any            `json:"data"`
	Message string         `json:"message,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Failure 失败信封；errors 只在字段校验失败时出现
type Failure struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func OK(data any) Success { return Success{Status: StatusSuccess, Data: data} }

func OKMsg(data any, msg string) Success {
	return Success{Status: StatusSuccess, Data: data, Message: msg}
}

// Error 失败响应（msg 为空用默认文案）
func Error(code int, msg string) Failure {
	if msg == "" {
		msg = MsgOf(code)
	}
	return Failure{Status: StatusError, Message: msg}
}

// Fail 由业务错误构造；内部原因 e.Err 不输出
func Fail(e *apperr.Error) Failure {
	f := Error(e.Status, e.Message)
	if len(e.Fields) > 0 {
		f.Errors = e.Fields
	}
	return f
}
