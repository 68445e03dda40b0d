package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Novikova-EY/arm-gs/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Models 参与建表的全部模型（sqlite AutoMigrate 与测试共用）
func Models() []interface{} {
	return []interface{}{
		&model.District{},
		&model.GridSystemType{},
		&model.GridSystem{},
		&model.Region{},
		&model.RegionalGridSystem{},
		&model.RegionalGridSystemRegion{},
		&model.AuditLog{},
		&model.Role{},
		&model.User{},
	}
}

// RunMigrations 执行数据库迁移
// postgres 使用内嵌 SQL 迁移文件；sqlite 仅用于本地开发，直接 AutoMigrate
func RunMigrations(db *gorm.DB, logger *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		if err := db.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("AutoMigrate 失败: %w", err)
		}
		logger.Info("sqlite 表结构同步完成")
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}

	return nil
}

// SeedRoles 确保三个内置角色存在
func SeedRoles(db *gorm.DB, names ...string) error {
	for _, name := range names {
		role := model.Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("初始化角色 %s 失败: %w", name, err)
		}
	}
	return nil
}
