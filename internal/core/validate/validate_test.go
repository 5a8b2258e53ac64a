package validate_test

import (
	"testing"

	"go-gin-gorm-users/internal/core/validate"
)

type signup struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

type signupPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Age   *int    `json:"age"`
}

var signupSchema = validate.Schema{
	"Name":  "required,min=3",
	"Email": "required,email",
	"Age":   "required,min=18",
}

func newValidator() *validate.Validator {
	v := validate.New()
	v.Register(signupSchema, signup{})
	v.Register(signupSchema.Partial(), signupPatch{})
	return v
}

func ptr[T any](v T) *T { return &v }

func TestStruct_CollectsEveryField(t *testing.T) {
	v := newValidator()

	errs := v.Struct(&signup{Name: "ab", Email: "nope", Age: 3})
	if len(errs) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %+v", len(errs), errs)
	}
	want := []string{"name", "email", "age"}
	for i, p := range want {
		if errs[i].Path != p {
			t.Errorf("errs[%d].Path = %q, want %q", i, errs[i].Path, p)
		}
		if errs[i].Message == "" {
			t.Errorf("errs[%d] has empty message", i)
		}
	}
	if errs[0].Message != "name must be at least 3 characters" {
		t.Errorf("unexpected message %q", errs[0].Message)
	}
	if errs[1].Message != "email must be a valid email address" {
		t.Errorf("unexpected message %q", errs[1].Message)
	}
}

func TestStruct_OneEntryPerField(t *testing.T) {
	v := newValidator()

	// empty name fails both required and min; only the first is reported
	errs := v.Struct(&signup{Email: "a@b.co", Age: 20})
	if len(errs) != 1 {
		t.Fatalf("expected 1 field error, got %+v", errs)
	}
	if errs[0].Message != "name is required" {
		t.Fatalf("unexpected message %q", errs[0].Message)
	}
}

func TestStruct_Valid(t *testing.T) {
	v := newValidator()
	if errs := v.Struct(&signup{Name: "alice", Email: "a@b.co", Age: 30}); errs != nil {
		t.Fatalf("expected no errors, got %+v", errs)
	}
}

func TestPartial_OptionalButConstrained(t *testing.T) {
	v := newValidator()

	if errs := v.Struct(&signupPatch{}); errs != nil {
		t.Fatalf("empty patch should pass, got %+v", errs)
	}
	if errs := v.Struct(&signupPatch{Name: ptr("alice")}); errs != nil {
		t.Fatalf("valid single field should pass, got %+v", errs)
	}

	errs := v.Struct(&signupPatch{Name: ptr(""), Email: ptr("x")})
	if len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", errs)
	}
	if errs[0].Path != "name" || errs[1].Path != "email" {
		t.Fatalf("unexpected paths: %+v", errs)
	}
}

func TestPartial_Rules(t *testing.T) {
	p := validate.Schema{"Name": "required,min=3,max=64"}.Partial()
	if got := p["Name"]; got != "omitnil,min=3,max=64" {
		t.Fatalf("Partial() = %q", got)
	}
}

type secret struct {
	Pass string `json:"pass"`
}

func TestMaxBytes_CountsUTF8Bytes(t *testing.T) {
	v := validate.New()
	v.Register(validate.Schema{"Pass": "required,maxbytes=6"}, secret{})

	if errs := v.Struct(&secret{Pass: "密密"}); errs != nil {
		t.Fatalf("6 bytes should pass, got %+v", errs)
	}
	// 3 个字符但 9 字节
	errs := v.Struct(&secret{Pass: "密密密"})
	if len(errs) != 1 || errs[0].Message != "pass must be at most 6 bytes" {
		t.Fatalf("expected byte-length violation, got %+v", errs)
	}
}
