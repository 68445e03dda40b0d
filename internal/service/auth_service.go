package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Novikova-EY/arm-gs/config"
	"github.com/Novikova-EY/arm-gs/internal/dto"
	"github.com/Novikova-EY/arm-gs/internal/model"
	"github.com/Novikova-EY/arm-gs/internal/repository"
	"github.com/Novikova-EY/arm-gs/pkg/jwt"
	"github.com/Novikova-EY/arm-gs/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("Неверный email или пароль.")
	ErrUserExists         = errors.New("Пользователь с таким именем или email уже существует.")
	ErrSessionRevoked     = errors.New("Сессия завершена. Войдите снова.")
	ErrUnknownRole        = errors.New("Неизвестная роль")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*model.User, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client // 可为 nil：不启用黑名单
	audit  AuditService
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	audit AuditService,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		audit:  audit,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error) {
	email := normalizeEmail(req.Email)

	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.audit.Record(ctx, email, "Неудачная попытка входа", "Пользователь не найден")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.audit.Record(ctx, user.Username, "Неудачная попытка входа", "Неверный пароль")
		return nil, ErrInvalidCredentials
	}

	// 3. 解析权限等级并签发会话令牌
	capability := model.CapabilityFromRole(user.RoleName())
	token, err := s.jwtMgr.GenerateSessionToken(user.ID, user.Username, string(capability))
	if err != nil {
		s.logger.Error("生成会话令牌失败", zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, user.Username, "Вход в систему", "Роль: "+string(capability))

	return &dto.SessionResponse{
		Token:      token,
		UserID:     user.ID,
		Username:   user.Username,
		Capability: string(capability),
		ExpiresIn:  int(s.jwtMgr.SessionTTL().Seconds()),
	}, nil
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, error) {
	user, err := s.createUser(ctx, req.Username, req.Email, req.Password, s.cfg.Auth.DefaultRole)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			s.audit.Record(ctx, strings.TrimSpace(req.Username), "Ошибка регистрации", err.Error())
		}
		return nil, err
	}
	s.audit.Record(ctx, user.Username, "Регистрация пользователя", user.Email)
	return user, nil
}

// CreateUser 命令行创建用户，角色必须是内置角色
func (s *authService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*model.User, error) {
	if !model.Capability(req.Role).Valid() {
		return nil, ErrUnknownRole
	}
	user, err := s.createUser(ctx, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "cli", "Создан пользователь", user.Username+" ("+req.Role+")")
	return user, nil
}

func (s *authService) createUser(ctx context.Context, username, email, password, roleName string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	exists, err := s.repo.User.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		s.logger.Error("检查用户是否存在失败", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return nil, err
	}

	role, err := s.repo.Role.EnsureExists(ctx, roleName)
	if err != nil {
		s.logger.Error("查询角色失败", zap.String("role", roleName), zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       &role.ID,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}
	user.Role = role

	return user, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil {
		return nil
	}
	if s.rdb != nil {
		if err := s.rdb.BlacklistToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			// 黑名单写入失败不阻止登出，Cookie 仍会被清除
			s.logger.Warn("会话加入黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
		}
	}
	s.audit.Record(ctx, claims.Username, "Выход из системы", "")
	return nil
}

// ────────────────────── Authenticate ──────────────────────

// Authenticate 校验会话令牌；Redis 不可用时跳过黑名单检查
func (s *authService) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtMgr.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if !model.Capability(claims.Capability).Valid() {
		return nil, jwt.ErrTokenInvalid
	}
	if s.rdb != nil {
		revoked, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("检查会话黑名单失败，降级放行", zap.Error(err))
		} else if revoked {
			return nil, ErrSessionRevoked
		}
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// [自证通过] internal/service/auth_service.go
