package response

import "net/http"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CodeMsgMap HTTP 状态码 → 默认错误文案（调用方未给 msg 时使用）
var CodeMsgMap = map[int]string{
	http.StatusBadRequest:            "bad request",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusForbidden:             "forbidden",
	http.StatusNotFound:              "not found",
	http.StatusMethodNotAllowed:      "method not allowed",
	http.StatusRequestEntityTooLarge: "request body too large",
	http.StatusTooManyRequests:       "too many requests",
	http.StatusInternalServerError:   "internal server error",
	http.StatusServiceUnavailable:    "server busy",
	http.StatusGatewayTimeout:        "request timeout",
}

// MsgOf 未登记的状态码退回标准文案
func MsgOf(code int) string {
	if m, ok := CodeMsgMap[code]; ok {
		return m
	}
	return http.StatusText(code)
}
