package model

// Capability 登录时由角色名解析出的权限等级，封闭枚举
type Capability string

const (
	CapabilityGuest      Capability = "guest"
	CapabilityAdmin      Capability = "admin"
	CapabilitySuperAdmin Capability = "super-admin"
)

// BuiltinRoles 内置角色名，迁移时写入 roles 表
var BuiltinRoles = []string{
	string(CapabilityGuest),
	string(CapabilityAdmin),
	string(CapabilitySuperAdmin),
}

// CapabilityFromRole 未知或空角色一律降级为 guest
func CapabilityFromRole(roleName string) Capability {
	switch Capability(roleName) {
	case CapabilityAdmin:
		return CapabilityAdmin
	case CapabilitySuperAdmin:
		return CapabilitySuperAdmin
	default:
		return CapabilityGuest
	}
}

// CanEdit 是否允许修改参考数据
func (c Capability) CanEdit() bool {
	return c == CapabilityAdmin || c == CapabilitySuperAdmin
}

// Valid 是否属于封闭枚举
func (c Capability) Valid() bool {
	switch c {
	case CapabilityGuest, CapabilityAdmin, CapabilitySuperAdmin:
		return true
	}
	return false
}
