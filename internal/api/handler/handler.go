package handler

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Novikova-EY/arm-gs/config"
	"github.com/Novikova-EY/arm-gs/internal/service"
	"github.com/Novikova-EY/arm-gs/pkg/redis"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth *AuthHandler
	Log  *LogHandler
	Page *PageHandler

	// References 保持菜单顺序
	References []*ReferenceHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service, db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *Handler {
	RegisterValidators()

	h := &Handler{
		Auth: NewAuthHandler(svc.Auth, cfg, logger),
		Log:  NewLogHandler(svc.Audit),
		Page: NewPageHandler(svc, cfg, db, rdb),
	}
	for _, slug := range svc.Slugs {
		h.References = append(h.References, NewReferenceHandler(svc.References[slug], svc.Audit, cfg, logger))
	}
	return h
}

// [自证通过] internal/api/handler/handler.go
