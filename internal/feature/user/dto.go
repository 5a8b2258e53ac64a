package user

import "go-gin-gorm-users/internal/core/validate"

// CreateSchema 创建用户的字段规则；更新规则由它派生
var CreateSchema = validate.Schema{
	"Username":  "required,min=3,max=64",
	"Email":     "required,email,max=191",
	"Password":  "required,min=6,maxbytes=72", // bcrypt 上限 72 字节
	"FirstName": "required,min=2,max=64",
	"LastName":  "required,min=2,max=64",
}

var UpdateSchema = CreateSchema.Partial()

var LoginSchema = validate.Schema{
	"Email":    "required,email",
	"Password": "required",
}

var LookupSchema = validate.Schema{
	"Email":    "required_without=Username,omitempty,email",
	"Username": "required_without=Email,omitempty,min=3",
}

type CreateUserInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type UpdateUserInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LookupQuery 管理端按 email 或 username 查用户（二选一）
type LookupQuery struct {
	Email    string `form:"email"`
	Username string `form:"username"`
}

// RegisterSchemas 启动期把规则绑定到输入类型
func RegisterSchemas(v *validate.Validator) {
	v.Register(CreateSchema, CreateUserInput{})
	v.Register(UpdateSchema, UpdateUserInput{})
	v.Register(LoginSchema, LoginInput{})
	v.Register(LookupSchema, LookupQuery{})
}
