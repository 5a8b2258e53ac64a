package service

import (
	"context"

	"go.uber.org/zap"

	"go-gin-gorm-users/internal/core/apperr"
	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/internal/feature/user"
)

const (
	msgEmailTaken    = "email already registered"
	msgUsernameTaken = "username already taken"
	msgNotFound      = "user not found"
	msgBadCreds      = "invalid credentials"
)

type UserService struct {
	repo   domain.UserRepository
	hasher domain.PasswordHasher
	log    *zap.Logger
}

func NewUserService(repo domain.UserRepository, hasher domain.PasswordHasher, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{repo: repo, hasher: hasher, log: log.Named("user_service")}
}

// CreateUser 校验唯一性（email / username）后哈希密码入库
func (s *UserService) CreateUser(ctx context.Context, in user.CreateUserInput) (*domain.User, error) {
	const op = "failed to create user"

	if err := s.ensureEmailFree(ctx, in.Email, "", op); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, in.Username, "", op); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.fail(op, err, zap.String("email", in.Email))
	}

	u, err := s.repo.Create(ctx, domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		return nil, s.fail(op, err, zap.String("email", in.Email))
	}
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	return s.found(u, err, "failed to get user", zap.String("id", id))
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	return s.found(u, err, "failed to get user by email", zap.String("email", email))
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	return s.found(u, err, "failed to get user by username", zap.String("username", username))
}

// UpdateUser in 只读；密码在这里重新哈希，patch 是新构造的值
func (s *UserService) UpdateUser(ctx context.Context, id string, in user.UpdateUserInput) (*domain.User, error) {
	const op = "failed to update user"

	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(op, err, zap.String("id", id))
	}
	if cur == nil {
		return nil, apperr.NotFound(msgNotFound)
	}

	if in.Email != nil && *in.Email != cur.Email {
		if err := s.ensureEmailFree(ctx, *in.Email, id, op); err != nil {
			return nil, err
		}
	}
	if in.Username != nil && *in.Username != cur.Username {
		if err := s.ensureUsernameFree(ctx, *in.Username, id, op); err != nil {
			return nil, err
		}
	}

	patch := domain.UserPatch{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, s.fail(op, err, zap.String("id", id))
		}
		patch.PasswordHash = &hash
	}

	u, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail(op, err, zap.String("id", id))
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	const op = "failed to delete user"

	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.fail(op, err, zap.String("id", id))
	}
	if cur == nil {
		return apperr.NotFound(msgNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(op, err, zap.String("id", id))
	}
	return nil
}

// AuthenticateUser 邮箱不存在与密码错误返回同一个 401
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.repo.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, s.fail("failed to authenticate user", err, zap.String("email", email))
	}
	if u == nil {
		return nil, apperr.Unauthorized(msgBadCreds)
	}
	return u, nil
}

func (s *UserService) found(u *domain.User, err error, op string, f zap.Field) (*domain.User, error) {
	if err != nil {
		return nil, s.fail(op, err, f)
	}
	if u == nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	return u, nil
}

// ensureEmailFree selfID 非空时忽略本人
func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID, op string) error {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return s.fail(op, err, zap.String("email", email))
	}
	if u != nil && u.ID != selfID {
		return apperr.Conflict(msgEmailTaken)
	}
	return nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username, selfID, op string) error {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return s.fail(op, err, zap.String("username", username))
	}
	if u != nil && u.ID != selfID {
		return apperr.Conflict(msgUsernameTaken)
	}
	return nil
}

// fail 业务错误原样返回；其它错误记录后包成 500
func (s *UserService) fail(op string, err error, fields ...zap.Field) error {
	if ae, ok := apperr.As(err); ok && ae.Status < 500 {
		return ae
	}
	s.log.Error(op, append(fields, zap.Error(err))...)
	return apperr.Wrap(err, op)
}
