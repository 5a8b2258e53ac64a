package ez

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-users/internal/core/apperr"
	"go-gin-gorm-users/internal/core/validate"
	resp "go-gin-gorm-users/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// EZ 路由分组 + 校验器
type EZ struct {
	g *gin.RouterGroup
	v *validate.Validator
}

func New(g *gin.RouterGroup, v *validate.Validator) EZ { return EZ{g: g, v: v} }

// Group 子分组，可挂额外中间件（例如 AuthJWT）
func (e EZ) Group(path string, mw ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, mw...), v: e.v}
}

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string // 例："/users/:id"
	Binder  Binder
	Status  int    // 成功状态码，默认 200
	Message string // 成功信封里的 message（可空）
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 绑定 → 校验 → Handler → 成功信封；任何错误交给 ErrorHandler。
// JSON 字段类型错误与其余字段的校验错误合并成一次 400
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}

	h := func(c *gin.Context) {
		var in I
		var fields []apperr.FieldError
		if err := bind(c, a.Binder, &in); err != nil {
			var tm *typeMismatch
			if !errors.As(err, &tm) {
				abort(c, err)
				return
			}
			fields = []apperr.FieldError{tm.FieldError}
		}
		if a.Binder != BindNone && e.v != nil {
			fields = mergeFields(reflect.TypeOf(in), fields, e.v.Struct(&in))
		}
		if len(fields) > 0 {
			abort(c, apperr.Validation(fields))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(status, resp.OKMsg(out, a.Message))
	}

	e.g.Handle(strings.ToUpper(a.Method), a.Path, h)
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bind(c *gin.Context, b Binder, in any) error {
	switch b {
	case BindJSON:
		return bindJSONErr(c.ShouldBindJSON(in))
	case BindQuery:
		if err := c.ShouldBindQuery(in); err != nil {
			return apperr.BadRequest("invalid query parameters")
		}
	}
	return nil
}

// bindJSONErr 解码错误 → 业务错误；空 body 视为 {}，交给校验报缺字段
func bindJSONErr(err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.New(http.StatusRequestEntityTooLarge, resp.MsgOf(http.StatusRequestEntityTooLarge))
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &typeMismatch{apperr.FieldError{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("%s must be of type %s", typeErr.Field, jsonKind(typeErr.Type.Kind().String())),
		}}
	}

	return apperr.BadRequest("malformed JSON body")
}

// typeMismatch 字段类型不符；encoding/json 仍会解码其余字段，所以照常跑校验
type typeMismatch struct {
	apperr.FieldError
}

func (e *typeMismatch) Error() string { return e.Message }

// mergeFields 类型错误顶替同字段的校验错误，按结构体字段顺序输出
func mergeFields(t reflect.Type, mismatch, checked []apperr.FieldError) []apperr.FieldError {
	if len(mismatch) == 0 {
		return checked
	}
	out := make([]apperr.FieldError, 0, len(checked)+1)
	for _, fe := range checked {
		if fe.Path != mismatch[0].Path {
			out = append(out, fe)
		}
	}
	out = append(out, mismatch[0])

	rank := fieldRank(t)
	pos := func(p string) int {
		if i, ok := rank[strings.SplitN(p, ".", 2)[0]]; ok {
			return i
		}
		return len(rank)
	}
	sort.SliceStable(out, func(i, j int) bool { return pos(out[i].Path) < pos(out[j].Path) })
	return out
}

// fieldRank json 字段名 → 声明顺序
func fieldRank(t reflect.Type) map[string]int {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	rank := map[string]int{}
	if t == nil || t.Kind() != reflect.Struct {
		return rank
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = f.Name
		}
		rank[name] = i
	}
	return rank
}

func jsonKind(k string) string {
	switch k {
	case "string":
		return "string"
	case "bool":
		return "boolean"
	case "struct", "map":
		return "object"
	case "slice", "array":
		return "array"
	}
	return "number"
}
