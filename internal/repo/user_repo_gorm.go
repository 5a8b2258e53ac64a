package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-gin-gorm-users/internal/core/apperr"
	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/internal/feature/user"
)

var _ domain.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	db     *gorm.DB
	hasher domain.PasswordHasher
	now    func() time.Time
	newID  func() string
}

type Option func(*UserRepo)

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) Option { return func(r *UserRepo) { r.now = now } }

func WithIDGen(gen func() string) Option { return func(r *UserRepo) { r.newID = gen } }

func NewUserRepo(db *gorm.DB, hasher domain.PasswordHasher, opts ...Option) *UserRepo {
	r := &UserRepo{db: db, hasher: hasher, now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	if u.ID == "" {
		u.ID = r.newID()
	}
	now := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	m := user.FromDomain(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDupKey(err) {
			return nil, apperr.Conflict("user already exists")
		}
		return nil, apperr.Internal("failed to create user", err)
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findBy(ctx, "id", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findBy(ctx, "email", email)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findBy(ctx, "username", username)
}

// findBy 查不到返回 (nil, nil)；col 只来自本文件常量
func (r *UserRepo) findBy(ctx context.Context, col, val string) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).Where(col+" = ?", val).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to find user", err)
	}
	return m.ToDomain(), nil
}

// Update 读快照 → 合并出新值 → 一次按 id 的 UPDATE；期间被删则 404
func (r *UserRepo) Update(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	cur, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, apperr.NotFound("user not found")
	}

	next := cur.Merge(p, r.now().UTC())
	m := user.FromDomain(next)
	res := r.db.WithContext(ctx).Model(&user.UserModel{}).
		Where("id = ?", id).
		Select("*").Omit("id", "created_at").
		Updates(&m)
	if err := res.Error; err != nil {
		if isDupKey(err) {
			return nil, apperr.Conflict("user already exists")
		}
		return nil, apperr.Internal("failed to update user", err)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("user not found")
	}
	return m.ToDomain(), nil
}

// Delete 物理删除
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	cur, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return apperr.NotFound("user not found")
	}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&user.UserModel{}).Error; err != nil {
		return apperr.Internal("failed to delete user", err)
	}
	return nil
}

// VerifyCredentials 邮箱不存在或密码不符都返回 (nil, nil)
func (r *UserRepo) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := r.FindByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	if !r.hasher.Compare(u.PasswordHash, password) {
		return nil, nil
	}
	return u, nil
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 驱动未实现 ErrorTranslator 时按错误文本兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
