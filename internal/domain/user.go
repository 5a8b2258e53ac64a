package domain

import (
	"context"
	"time"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch 部分更新：nil 表示不修改
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
}

func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil &&
		p.FirstName == nil && p.LastName == nil
}

// Merge 返回应用 patch 后的新值，u 本身不变；ID / CreatedAt 不可修改
func (u User) Merge(p UserPatch, now time.Time) User {
	out := u
	if p.Username != nil {
		out.Username = *p.Username
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.PasswordHash != nil {
		out.PasswordHash = *p.PasswordHash
	}
	if p.FirstName != nil {
		out.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		out.LastName = *p.LastName
	}
	out.UpdatedAt = now
	return out
}

// UserRepository 持久化边界。Find* 查不到返回 (nil, nil)；
// 其余失败统一为 *apperr.Error。
type UserRepository interface {
	Create(ctx context.Context, u User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, id string, p UserPatch) (*User, error)
	Delete(ctx context.Context, id string) error
	VerifyCredentials(ctx context.Context, email, password string) (*User, error)
}

// PasswordHasher 单向哈希
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
