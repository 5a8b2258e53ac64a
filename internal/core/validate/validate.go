// Package validate 声明式请求体校验：字段规则表 + go-playground/validator
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-gin-gorm-users/internal/core/apperr"
)

// Schema 结构体字段名 → validator 规则，例如 {"Email": "required,email"}
type Schema map[string]string

// Partial 派生更新用规则：去掉 required，其余规则保留，前置 omitnil。
// 目标结构体字段应为指针（nil 为未提供，"" 仍会被校验）
func (s Schema) Partial() Schema {
	out := make(Schema, len(s))
	for field, rules := range s {
		kept := []string{"omitnil"}
		for _, r := range strings.Split(rules, ",") {
			r = strings.TrimSpace(r)
			switch r {
			case "", "required", "omitempty", "omitnil":
				continue
			}
			kept = append(kept, r)
		}
		out[field] = strings.Join(kept, ",")
	}
	return out
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误路径用 json / form 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	// maxbytes 按 UTF-8 字节数限制长度（max 按字符计）
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil || fl.Field().Kind() != reflect.String {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return &Validator{v: v}
}

// Register 绑定 schema 到结构体类型；只在启动期调用（非并发安全）
func (v *Validator) Register(s Schema, types ...any) {
	v.v.RegisterStructValidationMapRules(map[string]string(s), types...)
}

// Struct 校验整个结构体，一次收集全部字段错误（每个字段只报第一条失败规则）
func (v *Validator) Struct(in any) []apperr.FieldError {
	err := v.v.Struct(in)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []apperr.FieldError{{Path: "", Message: err.Error()}}
	}
	out := make([]apperr.FieldError, 0, len(ves))
	for _, fe := range ves {
		out = append(out, apperr.FieldError{Path: path(fe), Message: message(fe)})
	}
	return out
}

// path 去掉根类型名：CreateUserInput.email → email
func path(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "required_without":
		return fmt.Sprintf("%s is required when %s is missing", f, lowerFirst(fe.Param()))
	case "email":
		return f + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", f, fe.Param())
	case "uuid", "uuid4":
		return f + " must be a valid UUID"
	}
	return f + " is invalid"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
