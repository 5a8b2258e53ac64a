package user

import (
	"time"

	"go-gin-gorm-users/internal/domain"
)

// UserModel users 表；时间戳由仓储写入，关闭 gorm 自动时间
type UserModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string `gorm:"column:password_hash;size:100;not null"`
	FirstName    string `gorm:"size:64;not null"`
	LastName     string `gorm:"size:64;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null"`
}

func (UserModel) TableName() string { return "users" }

func FromDomain(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
